// Package apperror defines the application's error taxonomy.
//
// Every business-rule failure is an *AppError that wraps one of the sentinel
// errors below. Callers branch with errors.Is against the sentinel and read
// the human-readable text from Message:
//
//	if errors.Is(err, apperror.ErrNotFound) { ... }
//
// Anything that is not an *AppError (or wraps ErrInternal) is treated as an
// internal failure by the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)

// Wire-level error codes, as they appear in the errorCode field of an
// error response body.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeBadRequest    = "BAD_REQUEST"
	CodeInternal      = "INTERNAL_ERROR"
)

type AppError struct {
	Err     error             // sentinel, one of the Err* values above
	Message string            // Human-readable error message
	Field   string            // Optional: single field causing the error
	Fields  map[string]string // Optional: per-field messages from structural validation
	cause   error             // underlying failure for ErrInternal, never shown to clients
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause so that
// errors.Is works against either.
func (e *AppError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("there is no %s with %s", resource, key),
	}
}

func AlreadyExists(resource, key string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: fmt.Sprintf("%s already exists with %s", resource, key),
	}
}

// InvalidInput reports a semantic violation in an otherwise well-formed
// request, e.g. a password confirmation mismatch.
func InvalidInput(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
	}
}

// BadRequest reports malformed or missing request data for one field.
func BadRequest(field, message string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: message,
		Field:   field,
	}
}

// ValidationFailed bundles structural validation failures for several fields.
// fields maps a field name to its message.
func ValidationFailed(fields map[string]string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: "request validation failed",
		Fields:  fields,
	}
}

// Internal wraps a storage or infrastructure failure. op names the operation
// that failed, e.g. "creating user".
func Internal(op string, err error) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: op,
		cause:   err,
	}
}

// Code returns the wire error code for err. Errors outside the taxonomy map
// to CodeInternal.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}
