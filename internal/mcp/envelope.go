// Package mcp implements the request/response envelope and the action
// dispatch core of DevAssist.
package mcp

import "fmt"

// Request is the wire envelope for an action request. Action selects a
// registered handler (case-sensitively); Parameters are handler-specific;
// Context is optional free-form text carried through unchanged.
type Request struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Context    string         `json:"context,omitempty"`
}

// Response is the wire envelope for an action outcome. Exactly one of
// the two states is valid: Success true with Error empty, or Success
// false with Error set. Data's shape is handler-specific.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Kind classifies a failure. Kinds never cross the wire; they exist so
// callers inside the process can branch on failure class while the
// envelope carries only the message.
type Kind int

const (
	KindUnknownAction Kind = iota
	KindValidation
	KindNotFound
	KindPermissionDenied
	KindBackendUnavailable
	KindBackendTimeout
	KindBackendError
	KindInternalFault
)

// String returns the kind's name for logging.
func (k Kind) String() string {
	switch k {
	case KindUnknownAction:
		return "unknown_action"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindBackendTimeout:
		return "backend_timeout"
	case KindBackendError:
		return "backend_error"
	case KindInternalFault:
		return "internal_fault"
	default:
		return "unknown"
	}
}

// Error is a classified handler failure.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Result is the outcome of one handler invocation: either a payload
// with an optional status message, or a classified error. It is
// converted to the wire envelope only at the dispatch boundary.
type Result struct {
	Payload any
	Message string
	Err     *Error
}

// Ok returns a success result.
func Ok(payload any, message string) Result {
	return Result{Payload: payload, Message: message}
}

// Fail returns a failure result with the given kind and message.
func Fail(kind Kind, format string, args ...any) Result {
	return Result{Err: &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// response converts a Result to the wire envelope.
func (r Result) response() *Response {
	if r.Err != nil {
		return &Response{Success: false, Error: r.Err.Message}
	}
	return &Response{Success: true, Data: r.Payload, Message: r.Message}
}
