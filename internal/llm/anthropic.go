package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/user/mockshop/internal/config"
)

// AnthropicClient implements LLMClient for Anthropic Claude through the official SDK
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(cfg config.LLMConfig, httpClient *http.Client) *AnthropicClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetTimeout()}
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.GetMaxTokens(),
	}
}

// GenerateCompletion generates a completion from Anthropic
func (c *AnthropicClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	params, err := c.convertRequest(req)
	if err != nil {
		return CompletionResponse{}, err
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("anthropic request failed: %w", err)
	}

	return c.convertResponse(msg), nil
}

// SupportsTools returns true
func (c *AnthropicClient) SupportsTools() bool {
	return true
}

// GetProvider returns the provider name
func (c *AnthropicClient) GetProvider() string {
	return "anthropic"
}

// convertRequest converts internal request to SDK params.
// System messages move to the System field, tool results become tool_result
// blocks in user turns, and consecutive same-role turns are merged.
func (c *AnthropicClient) convertRequest(req CompletionRequest) (anthropic.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature != 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	var system []string
	if req.SystemPrompt != "" {
		system = append(system, req.SystemPrompt)
	}

	var messages []anthropic.MessageParam
	var usedTools []string
	appendBlocks := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			return
		}
		messages = append(messages, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "user":
			appendBlocks(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
		case "assistant":
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				input := json.RawMessage(tc.Function.Arguments)
				if len(strings.TrimSpace(tc.Function.Arguments)) == 0 {
					input = json.RawMessage("{}")
				}
				if !json.Valid(input) {
					return params, fmt.Errorf("tool call %s has invalid JSON arguments", tc.ID)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
				usedTools = appendUnique(usedTools, tc.Function.Name)
			}
			if len(blocks) > 0 {
				appendBlocks(anthropic.MessageParamRoleAssistant, blocks...)
			}
		case "tool":
			appendBlocks(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		default:
			return params, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	params.Messages = messages

	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	switch {
	case len(req.Tools) > 0 && req.ToolChoice != "none":
		params.Tools = toToolParams(req.Tools)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	case len(req.Tools) > 0 || len(usedTools) > 0:
		// tool_use/tool_result blocks need declared tools; no new calls
		defs := req.Tools
		if len(defs) == 0 {
			for _, name := range usedTools {
				defs = append(defs, ToolDefinition{Name: name, Parameters: map[string]interface{}{"type": "object"}})
			}
		}
		params.Tools = toToolParams(defs)
		none := anthropic.NewToolChoiceNoneParam()
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &none}
	}

	return params, nil
}

func toToolParams(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, tool := range defs {
		param := &anthropic.ToolParam{
			Name:        tool.Name,
			InputSchema: toInputSchema(tool.Parameters),
		}
		if tool.Description != "" {
			param.Description = anthropic.String(tool.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: param})
	}
	return tools
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

// toInputSchema maps a JSON schema object onto the SDK's input schema param
func toInputSchema(schema map[string]interface{}) anthropic.ToolInputSchemaParam {
	out := anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
	}

	switch req := schema["required"].(type) {
	case []string:
		out.Required = req
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}

	extras := map[string]any{}
	for key, value := range schema {
		switch key {
		case "type", "properties", "required":
		default:
			extras[key] = value
		}
	}
	if len(extras) > 0 {
		out.ExtraFields = extras
	}
	return out
}

// convertResponse converts the SDK message to internal format
func (c *AnthropicClient) convertResponse(msg *anthropic.Message) CompletionResponse {
	result := CompletionResponse{
		Usage: TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	var text []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, v.Text)
		case anthropic.ToolUseBlock:
			args := v.JSON.Input.Raw()
			if args == "" {
				args = "{}"
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:   v.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      v.Name,
					Arguments: args,
				},
			})
		}
	}
	result.Content = strings.Join(text, "")
	ensureToolCallIDs(result.ToolCalls)

	return result
}
