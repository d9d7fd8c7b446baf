// Package llm runs a prompt through an ordered list of generative backends
// until one of them produces a JSON payload that parses and validates. The
// loop is deliberately explicit: one pass over the candidates, no retries of
// the same backend, first success wins.
package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"phonepick/internal/llmclient"
	"phonepick/internal/metrics"
	"phonepick/internal/util/jsonutil"
)

// Attempt stages.
const (
	StageTransport = "transport"
	StageExtract   = "extract"
	StageValidate  = "validate"
	StageOK        = "ok"
)

// Attempt records one candidate's try. Err is nil exactly when Stage is
// StageOK.
type Attempt struct {
	Backend string
	Stage   string
	Err     error
	Elapsed time.Duration
}

// Validator checks an extracted JSON payload before the chain accepts it.
// A non-nil error fails the current candidate and advances to the next.
type Validator func(raw json.RawMessage) error

// Chain tries candidate backends in a fixed configured order.
type Chain struct {
	reg        *llmclient.Registry
	candidates []string
	timeout    time.Duration
	log        *zap.Logger
}

// NewChain builds a chain over reg trying candidates in order. timeout
// bounds each individual attempt; zero disables the bound.
func NewChain(reg *llmclient.Registry, candidates []string, timeout time.Duration, log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{
		reg:        reg,
		candidates: append([]string(nil), candidates...),
		timeout:    timeout,
		log:        log,
	}
}

// Candidates returns the configured backend order.
func (c *Chain) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// Run sends prompt to each candidate in order and returns the first payload
// that extracts, parses, and passes validate. All preconditions are checked
// before any backend is called. When every candidate fails, the error is an
// *AllFailedError carrying each attempt.
func (c *Chain) Run(ctx context.Context, prompt string, validate Validator) (json.RawMessage, []Attempt, error) {
	if len(c.candidates) == 0 {
		return nil, nil, &PreconditionError{Reason: "no backends configured"}
	}
	if err := c.reg.Preflight(c.candidates); err != nil {
		return nil, nil, &PreconditionError{Reason: "backend preflight", Err: err}
	}

	observe := observerFrom(ctx)
	attempts := make([]Attempt, 0, len(c.candidates))
	for i, id := range c.candidates {
		raw, att := c.try(ctx, id, prompt, validate)
		attempts = append(attempts, att)
		if observe != nil {
			observe(att)
		}
		if att.Err == nil {
			c.log.Info("backend produced valid payload",
				zap.String("backend", id),
				zap.Int("attempt", i+1),
				zap.Duration("elapsed", att.Elapsed),
				zap.String("payload", jsonutil.Preview(string(raw))))
			return raw, attempts, nil
		}
		c.log.Warn("backend attempt failed",
			zap.String("backend", id),
			zap.Int("attempt", i+1),
			zap.String("stage", att.Stage),
			zap.Duration("elapsed", att.Elapsed),
			zap.Int("remaining", len(c.candidates)-i-1),
			zap.Error(att.Err))
	}
	return nil, attempts, &AllFailedError{Attempts: attempts}
}

func (c *Chain) try(ctx context.Context, id, prompt string, validate Validator) (raw json.RawMessage, att Attempt) {
	att.Backend = id
	start := time.Now()
	defer func() {
		att.Elapsed = time.Since(start)
		metrics.AttemptDuration.WithLabelValues(id).Observe(att.Elapsed.Seconds())
		metrics.BackendAttempts.WithLabelValues(id, att.Stage).Inc()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	client, err := c.reg.Client(ctx, id)
	if err != nil {
		att.Stage, att.Err = StageTransport, &TransportError{Backend: id, Err: err}
		return nil, att
	}

	text, err := client.Generate(ctx, prompt)
	if err != nil {
		att.Stage, att.Err = StageTransport, &TransportError{Backend: id, Err: err}
		return nil, att
	}

	payload, err := jsonutil.ExtractJSON(text)
	if err != nil {
		att.Stage, att.Err = StageExtract, &ExtractionError{Backend: id, Err: err}
		return nil, att
	}

	if validate != nil {
		if err := validate(payload); err != nil {
			att.Stage, att.Err = StageValidate, err
			return nil, att
		}
	}

	att.Stage = StageOK
	return payload, att
}
