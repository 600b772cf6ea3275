// Package errors defines the crawler's small error taxonomy (spec §7):
// transport failures and protocol violations are returned errors; programming
// errors are assertion failures that panic.
package errors

import "fmt"

// ErrorType categorizes an AppError.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeTransport  ErrorType = "TRANSPORT"
	ErrorTypeProtocol   ErrorType = "PROTOCOL"
)

// AppError is the crawler's error type for everything that is not a
// programming error.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a validation error.
func NewValidationError(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewTransportError wraps a session-level failure (spec §7: "Transport
// failure"). Partial cache state is preserved by the caller; this error only
// carries the cause up to the final done callback.
func NewTransportError(message string, cause error) error {
	return &AppError{Type: ErrorTypeTransport, Message: message, Err: cause}
}

// NewProtocolError reports a server protocol violation (spec §7: non-null
// continuation point, mismatched response count). Callers that receive this
// should treat the crawl as terminated.
func NewProtocolError(message string) error {
	return &AppError{Type: ErrorTypeProtocol, Message: message}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeValidation
}

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeTransport
}

// IsProtocol reports whether err is a protocol violation.
func IsProtocol(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == ErrorTypeProtocol
}

// ProgrammingError is raised for invariant violations that indicate a bug in
// the caller, not a runtime condition: recreating an existing cache node,
// resolving a BrowseName a second time to a different value, or assigning a
// node's references twice. These are assertion failures: callers recover()
// only in tests that intentionally probe them.
type ProgrammingError struct {
	Message string
}

func (e *ProgrammingError) Error() string {
	return "programming error: " + e.Message
}

// NewProgrammingError constructs a ProgrammingError for use with panic().
func NewProgrammingError(message string) error {
	return &ProgrammingError{Message: message}
}
