// Package errs defines the error shape shared by the API and the views.
//
// Handlers return *AppError (or any error) through gin's c.Error; the error
// middleware uses Translate to turn known database, validation and token
// failures into operational errors that are safe to show to clients.
package errs

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

const (
	StatusFail  = "fail"
	StatusError = "error"
)

// AppError is an error a client is allowed to see.
type AppError struct {
	StatusCode int
	Status     string
	Message    string
	// Operational errors are expected failures. Anything else is a bug and
	// its details are hidden in production.
	Operational bool
	cause       error
}

func New(message string, statusCode int) *AppError {
	status := StatusError
	if statusCode >= 400 && statusCode < 500 {
		status = StatusFail
	}
	return &AppError{
		StatusCode:  statusCode,
		Status:      status,
		Message:     message,
		Operational: true,
		cause:       errors.New(message),
	}
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// StackTrace prints the stack captured when the error was created.
func (e *AppError) StackTrace() string {
	if e.cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.cause)
}

func BadRequest(message string) *AppError {
	return New(message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(message, http.StatusForbidden)
}

func NotFound(message string) *AppError {
	return New(message, http.StatusNotFound)
}

// Internal wraps an unexpected failure. It is not operational.
func Internal(err error) *AppError {
	if err == nil {
		err = errors.New(http.StatusText(http.StatusInternalServerError))
	}
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Status:     StatusError,
		Message:    err.Error(),
		cause:      errors.WithStack(err),
	}
}

func InvalidID(path, value string) *AppError {
	return BadRequest("Invalid " + path + ": " + strconv.Quote(value))
}
