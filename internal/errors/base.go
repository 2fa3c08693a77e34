package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the base error type for all application errors
type AppError struct {
	Message    string        // Human-readable error message
	Context    *ErrorContext // Rich error context
	Cause      error         // Underlying error (for wrapping)
	ExitCode   ExitCode      // Exit code for CLI
	HTTPStatus int           // Status code when surfaced through the API
}

// Error returns the error message with cause if present
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// App returns the base error. Typed wrappers embed *AppError and inherit it,
// which lets AsAppError find the base through any wrapper.
func (e *AppError) App() *AppError {
	return e
}

// Status returns the HTTP status, defaulting to 500
func (e *AppError) Status() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// GetUserMessage returns a user-friendly error message with context
func (e *AppError) GetUserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)

	if e.Cause != nil {
		msg += fmt.Sprintf("\nCause: %v", e.Cause)
	}

	if e.Context != nil {
		msg += e.Context.Format()
	}

	return msg
}

// NewError creates a new AppError with the given message and exit code
func NewError(message string, exitCode ExitCode) *AppError {
	return &AppError{
		Message:  message,
		ExitCode: exitCode,
	}
}

// WrapError wraps an existing error with additional context
func WrapError(cause error, message string, exitCode ExitCode) *AppError {
	return &AppError{
		Message:  message,
		Cause:    cause,
		ExitCode: exitCode,
	}
}

// WrapErrorWithContext wraps an error with full context
func WrapErrorWithContext(cause error, message string, exitCode ExitCode, context *ErrorContext) *AppError {
	return &AppError{
		Message:  message,
		Context:  context,
		Cause:    cause,
		ExitCode: exitCode,
	}
}

type appErrorer interface {
	App() *AppError
}

// AsAppError walks the error chain and returns the first application error
func AsAppError(err error) (*AppError, bool) {
	var target appErrorer
	if stderrors.As(err, &target) {
		return target.App(), true
	}
	return nil, false
}
