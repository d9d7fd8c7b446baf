// Package llmclient wraps the generative backends the comparison pipeline
// can call. Cross-cutting concerns (fallback order, timeouts, extraction,
// validation, logging) live in internal/llm.
package llmclient

import (
	"context"
	"errors"
	"fmt"
)

// Client is a single generative backend. Generate returns the raw response
// text exactly as produced; payload extraction happens downstream.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

var ErrEmptyResponse = errors.New("llmclient: empty response")

// MissingCredentialError reports an absent API credential. The pipeline
// treats it as a precondition failure: no attempt may be made.
type MissingCredentialError struct {
	Backend string
	EnvVar  string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s is not set", e.Backend, e.EnvVar)
}
