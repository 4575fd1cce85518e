// Package domainerrors defines the coded error taxonomy shared by all
// services. Codes classify failures so transport layers can map them to
// status codes and callers can distinguish retryable from terminal errors
// without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks malformed input rejected before any state change.
	CodeValidation Code = "validation"
	// CodeNotFound marks a reference to a record that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an invariant violation: the input was well-formed
	// but the current state forbids the transition.
	CodeConflict Code = "conflict"
	// CodeResourceExhausted marks a request that cannot currently be met
	// from available stock. Distinct from CodeConflict so callers can offer
	// a "wait" rather than a "fix input" experience.
	CodeResourceExhausted Code = "resource_exhausted"
	// CodeTransient marks an underlying store failure. Safe to retry; no
	// side effect occurred.
	CodeTransient Code = "transient"
	// CodeInternal marks a programming error or unexpected condition.
	CodeInternal Code = "internal"
)

// Error is the concrete error type carried across service boundaries.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with a caller-facing message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, err error) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to the HTTP status the transport layer returns.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeResourceExhausted:
		return http.StatusUnprocessableEntity
	case CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
