package errors

import (
	"fmt"
	"net/http"
)

// NotFoundError is raised when a requested resource does not exist
type NotFoundError struct {
	*AppError
}

// NewNotFoundError creates a new not found error, e.g. NewNotFoundError("Product")
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		AppError: &AppError{
			Message:    fmt.Sprintf("%s not found", resource),
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusNotFound,
		},
	}
}

// ForbiddenError is raised when the caller lacks permission
type ForbiddenError struct {
	*AppError
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{
		AppError: &AppError{
			Message:    message,
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusForbidden,
		},
	}
}

// UnauthorizedError is raised when credentials are missing or invalid
type UnauthorizedError struct {
	*AppError
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, cause error) *UnauthorizedError {
	return &UnauthorizedError{
		AppError: &AppError{
			Message:    message,
			Cause:      cause,
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusUnauthorized,
		},
	}
}

// BadRequestError is raised when a request violates a business rule
type BadRequestError struct {
	*AppError
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{
		AppError: &AppError{
			Message:    message,
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusBadRequest,
		},
	}
}

// ValidationError is raised when a request body or parameter is malformed
type ValidationError struct {
	*AppError
}

// NewValidationError creates a new validation error
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message: fmt.Sprintf("Invalid %s: %s", field, reason),
			Context: &ErrorContext{
				Operation: "Request validation",
				Details: map[string]interface{}{
					"field": field,
				},
			},
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusUnprocessableEntity,
		},
	}
}

// PayloadTooLargeError is raised when a request body exceeds the size limit
type PayloadTooLargeError struct {
	*AppError
}

// NewPayloadTooLargeError creates a new payload too large error
func NewPayloadTooLargeError(limit int64) *PayloadTooLargeError {
	return &PayloadTooLargeError{
		AppError: &AppError{
			Message:    fmt.Sprintf("Request body exceeds %d bytes", limit),
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusRequestEntityTooLarge,
		},
	}
}
