// Package apperr defines the error kinds shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrNotFound           = errors.New("not found")
	ErrMismatch           = errors.New("code mismatch")
	ErrExpired            = errors.New("expired")
	ErrSlotUnavailable    = errors.New("time slot unavailable")
	ErrDeliveryFailure    = errors.New("delivery failure")
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error attaches an HTTP status and a user-facing message to one of the sentinel kinds.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error for kind with the status that kind maps to.
func New(kind error, message string) *Error {
	return &Error{
		Status:  StatusOf(kind),
		Code:    CodeOf(kind),
		Message: message,
		Err:     kind,
	}
}

// Wrap keeps cause in the chain so errors.Is matches both kind and cause.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{
		Status:  StatusOf(kind),
		Code:    CodeOf(kind),
		Message: message,
		Err:     errors.Join(kind, cause),
	}
}

// StatusOf maps an error chain to the HTTP status of its first known kind.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMismatch), errors.Is(err, ErrExpired), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDeliveryFailure):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns a stable machine-readable code for the error kind.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return "RATE_LIMIT_EXCEEDED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrMismatch):
		return "MISMATCH"
	case errors.Is(err, ErrExpired):
		return "EXPIRED"
	case errors.Is(err, ErrSlotUnavailable):
		return "SLOT_UNAVAILABLE"
	case errors.Is(err, ErrDeliveryFailure):
		return "DELIVERY_FAILURE"
	case errors.Is(err, ErrPersistenceFailure):
		return "PERSISTENCE_FAILURE"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrUnavailable):
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// MessageOf returns the user-facing message, or a generic one for unexpected errors.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return "Too many requests, please try again later"
	case errors.Is(err, ErrNotFound):
		return "The requested resource was not found"
	case errors.Is(err, ErrMismatch):
		return "The code you entered is incorrect"
	case errors.Is(err, ErrExpired):
		return "The code has expired, please request a new one"
	case errors.Is(err, ErrSlotUnavailable):
		return "The agent already has an appointment within an hour of this time"
	case errors.Is(err, ErrDeliveryFailure):
		return "We could not deliver the message, please try again"
	case errors.Is(err, ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action"
	case errors.Is(err, ErrConflict):
		return "The resource already exists"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid request"
	case errors.Is(err, ErrUnavailable):
		return "This feature is temporarily unavailable"
	default:
		return "An internal error occurred, please try again later"
	}
}
