package llm

import "context"

// Observer receives every attempt the chain makes, in order, including the
// successful one. The websocket handler uses it to stream progress.
type Observer func(Attempt)

type observerKey struct{}

// WithObserver attaches an attempt observer to ctx.
func WithObserver(ctx context.Context, fn Observer) context.Context {
	if fn == nil {
		return ctx
	}
	return context.WithValue(ctx, observerKey{}, fn)
}

func observerFrom(ctx context.Context) Observer {
	fn, _ := ctx.Value(observerKey{}).(Observer)
	return fn
}
