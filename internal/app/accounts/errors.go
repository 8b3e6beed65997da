// internal/app/accounts/errors.go
package accounts

import "fmt"

// Code classifies account-management failures. API handlers map these to
// HTTP statuses; the codes themselves are stable and appear in JSON bodies.
type Code string

const (
	CodeUnauthenticated    Code = "unauthenticated"
	CodePermissionDenied   Code = "permission-denied"
	CodeNotFound           Code = "not-found"
	CodeInvalidArgument    Code = "invalid-argument"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeInternal           Code = "internal"
)

// Error is a categorized account-management failure.
type Error struct {
	Code    Code
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an Error without a cause.
func E(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap builds an Error around a cause.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf extracts the code from an error, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if ae, ok := err.(*Error); ok {
		return ae.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its HTTP response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return 401
	case CodePermissionDenied:
		return 403
	case CodeNotFound:
		return 404
	case CodeInvalidArgument:
		return 400
	case CodeFailedPrecondition:
		return 409
	default:
		return 500
	}
}
