// Package domainerrors defines the coded error taxonomy shared by services and
// the HTTP layer. Services return *Error values; transport maps the code to a
// status and decides whether the message is safe to show.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error independently of transport.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeRateLimited        Code = "rate_limited"
	CodeExternalService    Code = "external_service_failure"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Reason narrows a Conflict so callers can pick a specific user-facing message.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonAlreadyEnrolled Reason = "already_enrolled"
	ReasonAlreadyIssued   Reason = "already_issued"
	ReasonCohortFull      Reason = "cohort_full"
	ReasonCohortInactive  Reason = "cohort_inactive"
	ReasonInvalidState    Reason = "invalid_state"
)

// Error is a coded domain error. Err holds the wrapped cause, if any, and is
// never rendered to clients.
type Error struct {
	Code    Code
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Conflict builds a CodeConflict error carrying a reason.
func Conflict(reason Reason, msg string) *Error {
	return &Error{Code: CodeConflict, Reason: reason, Message: msg}
}

// WithReason returns a copy of e with the reason set.
func (e *Error) WithReason(reason Reason) *Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost *Error, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf returns the reason of the outermost *Error, if any.
func ReasonOf(err error) Reason {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ReasonNone
}

// MessageOf returns the client-safe message of the outermost *Error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
