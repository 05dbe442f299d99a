package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// Remote-call taxonomy. Every GitHub call surfaces exactly one of these
	// (or ErrNotFound) when it fails.
	ErrBadToken  = errors.New("bad token")
	ErrMalformed = errors.New("malformed response")
	ErrTransport = errors.New("transport error")

	ErrDecrypt = errors.New("decrypt failure")
	ErrAuth    = errors.New("authentication failed")
)

// BadTokenMessage is the message clients see when GitHub rejects the stored token.
const BadTokenMessage = "bad github token"

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

// NotFoundMessage is NotFound with a caller-chosen message, for lookups that
// are not keyed by an id (e.g. a blob response without a content field).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
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

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// BadToken means GitHub answered 401/403 for the stored access token.
func BadToken() *AppError {
	return &AppError{
		Err:     ErrBadToken,
		Message: BadTokenMessage,
	}
}

// Malformed means a remote response was missing a field we depend on.
func Malformed(what string) *AppError {
	return &AppError{
		Err:     ErrMalformed,
		Message: fmt.Sprintf("malformed response: %s", what),
	}
}

// Transport wraps a network or unexpected-status failure for one remote operation.
func Transport(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrTransport,
		Message: fmt.Sprintf("%s: %v", op, cause),
	}
}

// DecryptFailed is returned when a stored token can't be opened with the
// process key (rotated key or corrupted ciphertext).
func DecryptFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrDecrypt,
		Message: fmt.Sprintf("could not decrypt access token: %v", cause),
	}
}

// AuthFailed is returned when the OAuth code exchange doesn't yield a token.
func AuthFailed(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}
