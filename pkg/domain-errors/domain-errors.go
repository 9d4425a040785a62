// Package domainerrors carries failure classification across layer
// boundaries. A Code survives wrapping, so the layer that caused a failure
// decides its category once and every layer above can branch on it without
// string matching.
package domainerrors

import "errors"

// Code categorizes a failure in domain terms. Transport mappings (HTTP
// status, log severity) are derived from the code, never the reverse.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnavailable marks persistence failures: the bound backend could not
	// serve the operation. Callers see this code, never the backend identity.
	CodeUnavailable Code = "persistence_unavailable"

	// CodeAuditLogFailure marks a failed audit append. The triggering
	// operation itself succeeded; the failure is recorded, not propagated.
	CodeAuditLogFailure Code = "audit_log_failure"
)

// Error is a coded error. Message is what callers read; Err keeps the
// underlying chain reachable for errors.Is and errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two coded errors by Code alone, so errors.Is works against
// a bare New(code, "") probe.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// New returns a coded error with no underlying cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. If err already carries a code,
// that code wins: classification happens once, at the layer that knows the
// cause, and outer layers only add context.
func Wrap(err error, code Code, msg string) error {
	var inner *Error
	if errors.As(err, &inner) {
		code = inner.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the chain contains a coded error with code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
