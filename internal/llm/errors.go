package llm

import (
	"fmt"
	"strings"
)

// PreconditionError means the chain refused to start: nothing was sent to
// any backend. Misconfiguration, missing credentials, or an empty phone
// selection all land here.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed: %s: %v", e.Reason, e.Err)
	}
	return "precondition failed: " + e.Reason
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// TransportError wraps a failure to obtain any response text from a backend:
// network errors, non-2xx statuses, timeouts, empty completions.
type TransportError struct {
	Backend string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError means the backend answered but no JSON payload could be
// recovered from the text.
type ExtractionError struct {
	Backend string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: extract: %v", e.Backend, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AllFailedError reports that every candidate backend was tried and none
// produced a valid result. Attempts preserves the failure of each candidate
// in order.
type AllFailedError struct {
	Attempts []Attempt
}

func (e *AllFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all backends failed"
	}
	last := e.Attempts[len(e.Attempts)-1]
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Backend)
	}
	return fmt.Sprintf("all %d backends failed (%s); last: %v",
		len(e.Attempts), strings.Join(names, ", "), last.Err)
}
