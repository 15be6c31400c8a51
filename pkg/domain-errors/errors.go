// Package dErrors provides coded domain errors. Services attach a stable
// machine-readable code to every error that crosses a layer boundary; the
// HTTP layer maps codes to status lines and the tests assert on codes, never
// on message text.
package dErrors

import (
	"errors"
	"fmt"
)

// Code identifies the category of a domain error. Codes are part of the API
// contract: they appear verbatim in the "error" field of HTTP error bodies.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnavailable        Code = "unavailable"
	CodeTimeout            Code = "timeout"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	code Code
	msg  string
	err  error
}

// New creates a coded error with a message safe to show to API clients.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause is
// preserved for errors.Is/errors.As but never serialized to clients.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// Unwrap exposes the cause for the errors package.
func (e *Error) Unwrap() error { return e.err }

// Code returns the error's code.
func (e *Error) Code() Code { return e.code }

// Message returns the client-safe message without the code prefix.
func (e *Error) Message() string { return e.msg }

// CodeOf extracts the code from an error chain. Uncoded errors report
// CodeInternal so nothing leaks an unclassified failure as client-caused.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is is shorthand for HasCode, matching the call shape of errors.Is.
func Is(err error, code Code) bool { return HasCode(err, code) }

// MessageOf extracts the client-safe message from an error chain. Uncoded
// errors yield an empty message.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.msg
	}
	return ""
}
