package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/user/mockshop/internal/config"
)

const defaultOllamaURL = "http://localhost:11434/v1"

// LangchainClient implements LLMClient on top of any langchaingo model
type LangchainClient struct {
	model    llms.Model
	provider string
}

// NewLangchainClient wraps an existing langchaingo model
func NewLangchainClient(model llms.Model, provider string) *LangchainClient {
	return &LangchainClient{model: model, provider: provider}
}

// NewOllamaClient talks to a local Ollama server through its OpenAI-compatible
// endpoint, which is the Ollama surface that supports tool calling
func NewOllamaClient(cfg config.LLMConfig, httpClient *http.Client) (*LangchainClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetTimeout()}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	token := cfg.APIKey
	if token == "" {
		// Ollama ignores the token but the client requires one
		token = "ollama"
	}

	model, err := openai.New(
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return NewLangchainClient(model, "ollama"), nil
}

// GenerateCompletion generates a completion through langchaingo
func (c *LangchainClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	messages, err := toMessageContent(req)
	if err != nil {
		return CompletionResponse{}, err
	}

	opts := make([]llms.CallOption, 0, 4)
	if req.MaxTokens != 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature != 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
		if req.ToolChoice != "" {
			opts = append(opts, llms.WithToolChoice(req.ToolChoice))
		}
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0]
	result := CompletionResponse{
		Content: choice.Content,
		Usage: TokenUsage{
			InputTokens:  intFromInfo(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: intFromInfo(choice.GenerationInfo, "CompletionTokens"),
			TotalTokens:  intFromInfo(choice.GenerationInfo, "TotalTokens"),
		},
	}

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: tc.Type,
			Function: FunctionCall{
				Name:      tc.FunctionCall.Name,
				Arguments: tc.FunctionCall.Arguments,
			},
		})
	}
	ensureToolCallIDs(result.ToolCalls)

	return result, nil
}

// SupportsTools returns true
func (c *LangchainClient) SupportsTools() bool {
	return true
}

// GetProvider returns the provider name
func (c *LangchainClient) GetProvider() string {
	return c.provider
}

func toMessageContent(req CompletionRequest) ([]llms.MessageContent, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case "user":
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case "assistant":
			var parts []llms.ContentPart
			if m.Content != "" {
				parts = append(parts, llms.TextPart(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, llms.TextPart(""))
			}
			messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case "tool":
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: m.ToolCallID,
						Name:       m.Name,
						Content:    m.Content,
					},
				},
			})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", m.Role)
		}
	}
	return messages, nil
}

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
