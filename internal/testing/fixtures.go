package testing

import (
	"github.com/user/mockshop/internal/llm"
)

// TextResponse is a model reply carrying only text
func TextResponse(content string) llm.CompletionResponse {
	return llm.CompletionResponse{Content: content}
}

// ToolCallResponse is a model reply that requests the given tool calls
func ToolCallResponse(calls ...llm.ToolCall) llm.CompletionResponse {
	return llm.CompletionResponse{ToolCalls: calls}
}

// ToolCall builds a function tool call
func ToolCall(id, name, arguments string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

// UserMessage builds a user message
func UserMessage(content string) llm.Message {
	return llm.Message{Role: "user", Content: content}
}

// SystemMessage builds a system message
func SystemMessage(content string) llm.Message {
	return llm.Message{Role: "system", Content: content}
}

// AssistantMessage builds an assistant text message
func AssistantMessage(content string) llm.Message {
	return llm.Message{Role: "assistant", Content: content}
}
