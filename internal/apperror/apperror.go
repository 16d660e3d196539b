// Package apperror defines the typed failures returned across layers.
//
// Every failure a caller can act on wraps one of the sentinel errors below,
// so handlers can map it to a response with errors.Is regardless of how many
// fmt.Errorf("...: %w") layers sit on top of it. Anything that does not wrap
// a sentinel is an opaque internal failure.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrAuthRequired = errors.New("auth required")
	ErrInvalidState = errors.New("invalid state")
)

// Response is the JSON error body of every failed HTTP request, whether it is
// written by a handler or by the auth middleware.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

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

// AuthRequired is returned when a protected operation has no resolved caller.
// The message is fixed so the response never reveals whether the target exists.
func AuthRequired() *AppError {
	return &AppError{
		Err:     ErrAuthRequired,
		Message: "must be logged in to perform that action",
	}
}

// InvalidState is returned when the OAuth callback state does not match the
// CSRF token issued with the authorize URL.
func InvalidState() *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: "invalid state parameter",
		Field:   "state",
	}
}
