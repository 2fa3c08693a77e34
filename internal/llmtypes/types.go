package llmtypes

import (
	"encoding/json"
	"fmt"
)

// Conversation roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool choice policies
const (
	ToolChoiceAuto = "auto"
	ToolChoiceNone = "none"
)

// Message represents a chat message in the OpenAI chat shape
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // Tool calls made by assistant (for role="assistant")
	ToolCallID string     `json:"tool_call_id,omitempty"` // ID of the call being answered (for role="tool")
	Name       string     `json:"name,omitempty"`         // Tool name (for role="tool")
}

// Clone returns a copy that shares no slices with m
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return m
}

// ToolCall represents a tool/function call from the LLM
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its serialized JSON arguments
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// DecodeArguments unmarshals the call's JSON arguments into v
func (tc ToolCall) DecodeArguments(v interface{}) error {
	if tc.Function.Arguments == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", tc.Function.Name, err)
	}
	return nil
}

// CompletionRequest is a request for LLM completion
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	ToolChoice   string // "auto", "none" or empty; ignored when Tools is empty
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse is the response from LLM
type CompletionResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// TokenUsage tracks token usage
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ToolDefinition defines a tool for the LLM
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}
