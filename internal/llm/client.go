package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/user/mockshop/internal/llmtypes"
)

// Type aliases so callers only import this package
type Message = llmtypes.Message
type ToolCall = llmtypes.ToolCall
type FunctionCall = llmtypes.FunctionCall
type CompletionRequest = llmtypes.CompletionRequest
type CompletionResponse = llmtypes.CompletionResponse
type TokenUsage = llmtypes.TokenUsage
type ToolDefinition = llmtypes.ToolDefinition

// LLMClient is the interface for LLM providers
type LLMClient interface {
	// GenerateCompletion generates a completion from the LLM
	GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// SupportsTools returns true if the client supports tool calling
	SupportsTools() bool

	// GetProvider returns the provider name
	GetProvider() string
}

// BaseLLMClient provides common functionality for HTTP based clients
type BaseLLMClient struct {
	httpClient *http.Client
}

// NewBaseLLMClient creates a new base LLM client. A nil client gets a default with the given timeout.
func NewBaseLLMClient(httpClient *http.Client, timeout time.Duration) *BaseLLMClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &BaseLLMClient{httpClient: httpClient}
}

// doJSONRequest POSTs payload as JSON and decodes a 2xx body into out.
// Non-2xx responses become *APIError carrying the status and body.
func (b *BaseLLMClient) doJSONRequest(
	ctx context.Context,
	url string,
	headers map[string]string,
	payload interface{},
	out interface{},
) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// APIError is returned when a provider answers with a non-2xx status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d, body: %s", e.StatusCode, e.Body)
}

// ensureToolCallIDs assigns an id to calls that arrived without one so that
// tool results can always be correlated
func ensureToolCallIDs(calls []ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
		if calls[i].Type == "" {
			calls[i].Type = "function"
		}
	}
}
