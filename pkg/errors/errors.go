package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError is a custom error type that includes an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for logging. It is never sent to clients.
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewAppError creates a new AppError
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// ErrRateLimit is returned to HTTP and socket senders that exceed their budget.
var ErrRateLimit = NewAppError(http.StatusTooManyRequests, "Rate limit exceeded")

// Helper functions to create specific errors
func BadRequest(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, msg)
}

// Validation is an alias of BadRequest used for rejected payloads.
func Validation(msg string) *AppError {
	return BadRequest(msg)
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, msg)
}

func Forbidden(msg string) *AppError {
	return NewAppError(http.StatusForbidden, msg)
}

// Transient marks a storage or dependency failure the caller may retry.
func Transient(msg string, cause error) *AppError {
	return &AppError{Code: http.StatusServiceUnavailable, Message: msg, cause: cause}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err carries a 404 AppError.
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == http.StatusNotFound
}

// IsValidation reports whether err carries a 400 AppError.
func IsValidation(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == http.StatusBadRequest
}
