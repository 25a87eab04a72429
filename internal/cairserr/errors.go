// Package cairserr holds the Go-level error taxonomy used for construction,
// parsing, and registry-wiring failures. It is deliberately separate from
// the value-level error carrier in package value: evaluators never return
// one of these, they return an error Value instead.
package cairserr

import "fmt"

// Code is a closed set of Go-level failure categories.
type Code string

const (
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeInvariantViolated Code = "INVARIANT_VIOLATED"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeUnimplemented     Code = "UNIMPLEMENTED"
)

// CAIRSError is the base Go error type for the CAIRS module, modeled on
// mbflow's DomainError: a closed code, a human message, and an
// optional wrapped cause.
type CAIRSError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *CAIRSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CAIRSError) Unwrap() error {
	return e.Cause
}

// New creates a new CAIRSError.
func New(code Code, message string, cause error) *CAIRSError {
	return &CAIRSError{Code: code, Message: message, Cause: cause}
}

func Invalid(format string, args ...interface{}) *CAIRSError {
	return New(CodeInvalidInput, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...interface{}) *CAIRSError {
	return New(CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func Unimplemented(format string, args ...interface{}) *CAIRSError {
	return New(CodeUnimplemented, fmt.Sprintf(format, args...), nil)
}
