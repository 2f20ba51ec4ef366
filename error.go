package mediaguard

import (
	"errors"
	"fmt"
)

// Domain error codes - transport layer maps these to HTTP status codes.
const (
	EINVALID     = "invalid"     // 400 - Rejected content or malformed input
	ENOTFOUND    = "not_found"   // 404 - Stored object is absent
	EBADURL      = "bad_url"     // 400 - URL does not belong to the active provider
	ECONFIG      = "config"      // 500 - Provider is missing required settings
	EUNAVAILABLE = "unavailable" // 502 - Backend unreachable or returned a failure
	EINTERNAL    = "internal"    // 500 - Filesystem or unexpected failure
	ERATELIMIT   = "rate_limit"  // 429 - Too many uploads
)

// Error is the error type returned across package boundaries. Code selects
// the HTTP status; Message is safe to show a client; Err is the cause and is
// only logged.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new application error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an underlying error with application context.
func WrapError(code string, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorWithFields creates a validation error with field-specific messages.
func ErrorWithFields(fields map[string]string) *Error {
	return &Error{
		Code:    EINVALID,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// asError finds the first *Error in err's chain.
func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ErrorCode returns the code of err, "" for nil, and EINTERNAL for errors
// that carry no code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the client-safe message of err. Errors without a code
// get a generic message so their details never leak.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Message
	}
	return "An internal error occurred."
}

// ErrorFields returns per-field messages, or nil.
func ErrorFields(err error) map[string]string {
	if e, ok := asError(err); ok {
		return e.Fields
	}
	return nil
}

// IsErrorCode checks if an error has the specified error code.
func IsErrorCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Invalid creates a validation error.
func Invalid(format string, args ...any) *Error {
	return Errorf(EINVALID, format, args...)
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) *Error {
	return Errorf(ENOTFOUND, format, args...)
}

// BadURL creates an error for a URL the active provider cannot resolve.
func BadURL(format string, args ...any) *Error {
	return Errorf(EBADURL, format, args...)
}

// Config creates a configuration error. These are raised before any I/O.
func Config(format string, args ...any) *Error {
	return Errorf(ECONFIG, format, args...)
}

// Unavailable creates a backend failure error, wrapping the transport cause.
func Unavailable(message string, err error) *Error {
	return WrapError(EUNAVAILABLE, message, err)
}

// Internal creates an internal error, wrapping the underlying cause.
func Internal(message string, err error) *Error {
	return WrapError(EINTERNAL, message, err)
}
