package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// FakeResponse is one scripted reply for a Fake client.
type FakeResponse struct {
	Text string
	Err  error
}

// Fake is a scripted client for offline runs and tests. Each Generate call
// consumes the next response in order.
type Fake struct {
	name string

	mu      sync.Mutex
	script  []FakeResponse
	calls   int
	prompts []string
}

func NewFake(name string, script ...FakeResponse) *Fake {
	return &Fake{name: name, script: script}
}

func (f *Fake) Name() string { return f.name }
func (f *Fake) Close() error { return nil }

func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.script) == 0 {
		return "", fmt.Errorf("fake %s: script exhausted after %d calls", f.name, f.calls)
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.Text, next.Err
}

// Calls reports how many times Generate has been invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastPrompt returns the most recent prompt, or "" before the first call.
func (f *Fake) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
