// Package apperror defines the application's error taxonomy.
//
// Services return these domain errors instead of HTTP status codes or raw
// store errors. Each constructor wraps a sentinel, so callers classify with
// errors.Is(err, apperror.ErrNotFound) regardless of how many layers have
// wrapped the error with %w in between.
//
// Propagation policy: nothing is swallowed silently. The only operations
// that absorb failures are the best-effort identity lookups (CurrentUser,
// CurrentUserID, IsAuthenticated), which are documented to return absence
// instead of an error. Everything else rethrows with the cause preserved.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrStore           = errors.New("store error")
)

// AppError pairs a sentinel with a human-readable message and, for store
// failures, the underlying cause.
type AppError struct {
	Err     error  // sentinel (classification)
	Cause   error  // underlying failure, if any
	Message string // human-readable error message
	Field   string // optional: input field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is/errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Unauthenticated returns an AppError for actions that require a caller
// identity that is absent. HTTP handlers map this to 401.
func Unauthenticated(action string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: fmt.Sprintf("%s requires an authenticated user", action),
	}
}

// NotFound returns an AppError for a single-row fetch on a missing key.
// HTTP handlers map this to 404.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed returns an AppError for rejected input. The field names
// the offending input so clients can attach the message to the right form
// control; HTTP handlers map this to 400.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Store wraps an underlying query failure (validation, constraint violation,
// connectivity) so it propagates with its cause preserved.
func Store(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Cause:   cause,
		Message: fmt.Sprintf("store failure during %s: %v", op, cause),
	}
}
