package errors

import (
	"fmt"
	"net/http"
)

// InvalidHistoryError is raised when a chat turn receives a malformed conversation
type InvalidHistoryError struct {
	*AppError
}

// NewInvalidHistoryError creates a new invalid history error
func NewInvalidHistoryError(reason string) *InvalidHistoryError {
	return &InvalidHistoryError{
		AppError: &AppError{
			Message: fmt.Sprintf("Invalid conversation history: %s", reason),
			Context: &ErrorContext{
				Operation: "Chat turn",
				Component: "Orchestrator",
				Suggestions: []string{
					"Send a non-empty message list whose last entry has role 'user'",
					"Keep at most one system message, at index 0",
				},
			},
			ExitCode:   ExitRequestError,
			HTTPStatus: http.StatusBadRequest,
		},
	}
}

// ModelUnavailableError is raised when the language model call fails
type ModelUnavailableError struct {
	*AppError
}

// NewModelUnavailableError creates a new model unavailable error
func NewModelUnavailableError(provider string, cause error) *ModelUnavailableError {
	return &ModelUnavailableError{
		AppError: &AppError{
			Message: fmt.Sprintf("Language model provider unavailable: %s", provider),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "LLM API Call",
				Component: "LLM Client",
				Details: map[string]interface{}{
					"provider": provider,
				},
				Suggestions: []string{
					"Check the API key and base URL",
					"Verify the model name is correct",
					"Try again later (service may be unavailable)",
				},
			},
			ExitCode:   ExitLLMError,
			HTTPStatus: http.StatusBadGateway,
		},
	}
}

// ToolExecutionError is raised when a tool's backing call fails
type ToolExecutionError struct {
	*AppError
	ToolName string
}

// NewToolExecutionError creates a new tool execution error
func NewToolExecutionError(toolName string, cause error) *ToolExecutionError {
	return &ToolExecutionError{
		AppError: &AppError{
			Message: fmt.Sprintf("Tool '%s' execution failed", toolName),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Tool Execution",
				Component: toolName,
				Details: map[string]interface{}{
					"tool": toolName,
				},
				Suggestions: []string{
					"Check that the user directory is reachable",
					"Verify the service account credentials",
				},
			},
			ExitCode:   ExitToolError,
			HTTPStatus: http.StatusBadGateway,
		},
		ToolName: toolName,
	}
}

// UnknownToolError is raised when the model requests a tool that is not registered
type UnknownToolError struct {
	*AppError
	ToolName string
}

// NewUnknownToolError creates a new unknown tool error
func NewUnknownToolError(toolName string) *UnknownToolError {
	return &UnknownToolError{
		AppError: &AppError{
			Message: fmt.Sprintf("Tool '%s' is not registered", toolName),
			Context: &ErrorContext{
				Operation: "Tool Dispatch",
				Component: "Tool Registry",
				Details: map[string]interface{}{
					"tool": toolName,
				},
			},
			ExitCode:   ExitToolError,
			HTTPStatus: http.StatusBadGateway,
		},
		ToolName: toolName,
	}
}
