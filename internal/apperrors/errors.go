package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
// The wrapped message carries the offending field or amount.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates an authorization denial, e.g. a self-approval attempt.
// It is surfaced verbatim to the caller, never downgraded.
var ErrForbidden = errors.New("action not allowed")

// ErrConflict indicates a concurrent modification was detected (version mismatch).
// Callers may retry the whole command.
var ErrConflict = errors.New("concurrent modification")

// ErrImmutable indicates an attempt to mutate a posted entry or its lines.
var ErrImmutable = errors.New("entry is immutable")

// AppError wraps a lower-level error with an HTTP-ish code and a message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
