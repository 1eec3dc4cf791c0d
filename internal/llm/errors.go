package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors distinguishing the three failure modes of the backend.
// Callers use errors.Is to decide how to report a failed call:
//
//   - ErrUnavailable: the connection itself failed (refused, DNS, no route).
//   - ErrTimeout: the backend accepted the connection but exceeded the
//     configured deadline.
//
// A reachable backend that answers with a non-2xx status is reported as
// a *StatusError instead.
var (
	ErrUnavailable = errors.New("ollama is not reachable")
	ErrTimeout     = errors.New("ollama request timed out")
)

// StatusError reports a non-2xx response from a reachable backend.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama API error %d", e.Code)
	}
	return fmt.Sprintf("ollama API error %d: %s", e.Code, e.Body)
}
