package apperror

import (
	"errors"
	"fmt"
)

// Sentinels let callers branch with errors.Is without caring about the
// message. The HTTP layer is the only place that turns them into status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUpstream        = errors.New("upstream error")
	ErrGeneration      = errors.New("generation failed")
)

type AppError struct {
	Err     error  // sentinel (and, for upstream failures, the cause)
	Message string // human-readable, safe to return to clients
	Field   string // optional: request field that failed validation
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	if id != "" {
		msg = fmt.Sprintf("%s not found: %s", resource, id)
	}
	return &AppError{Err: ErrNotFound, Message: msg}
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

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Unauthenticated covers missing, expired or tampered sessions as well as
// external identity tokens that fail verification.
func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

// Upstream wraps a failed call to an external service (token exchange,
// identity verification, plan generation transport). The cause stays
// reachable through errors.Is / errors.As but is not shown to clients.
func Upstream(service string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrUpstream, cause),
		Message: fmt.Sprintf("%s request failed", service),
	}
}

// GenerationFailed means the generator answered but its output was unusable.
func GenerationFailed(message string, cause error) *AppError {
	err := ErrGeneration
	if cause != nil {
		err = errors.Join(ErrGeneration, cause)
	}
	return &AppError{Err: err, Message: message}
}
