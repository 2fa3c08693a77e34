package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/mockshop/internal/config"
	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/llmtypes"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/prompts"
	"github.com/user/mockshop/internal/tools"
)

// Options tunes an Orchestrator
type Options struct {
	// UnknownToolPolicy is config.UnknownToolSynthesize (default) or config.UnknownToolFail
	UnknownToolPolicy string
	MaxTokens         int
	Temperature       float64
}

// Orchestrator runs one support chat turn: it offers the model the
// registered tools, executes the calls it makes and asks the model again
// for the final answer. It holds no per-conversation state.
type Orchestrator struct {
	llmClient     llm.LLMClient
	registry      *tools.Registry
	promptManager *prompts.Manager
	logger        *logging.Logger
	opts          Options
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(
	llmClient llm.LLMClient,
	registry *tools.Registry,
	promptManager *prompts.Manager,
	logger *logging.Logger,
	opts Options,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.UnknownToolPolicy == "" {
		opts.UnknownToolPolicy = config.UnknownToolSynthesize
	}
	return &Orchestrator{
		llmClient:     llmClient,
		registry:      registry,
		promptManager: promptManager,
		logger:        logger.Named("chat"),
		opts:          opts,
	}
}

// RunTurn answers the last user message of history on behalf of userID and
// returns the extended history. history is never modified.
func (o *Orchestrator) RunTurn(ctx context.Context, userID int, history []llm.Message) ([]llm.Message, error) {
	if err := ValidateHistory(history); err != nil {
		return nil, err
	}
	start := time.Now()

	conversation := make([]llm.Message, 0, len(history)+4)
	if history[0].Role != llmtypes.RoleSystem {
		systemPrompt, err := o.promptManager.RenderSystemPrompt(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to render system prompt: %w", err)
		}
		conversation = append(conversation, llm.Message{Role: llmtypes.RoleSystem, Content: systemPrompt})
	}
	for _, msg := range history {
		conversation = append(conversation, msg.Clone())
	}

	resp, err := o.complete(ctx, conversation, o.registry.Definitions())
	if err != nil {
		return nil, err
	}
	llmCalls := 1

	if len(resp.ToolCalls) > 0 {
		for _, call := range resp.ToolCalls {
			conversation = append(conversation, llm.Message{
				Role:      llmtypes.RoleAssistant,
				ToolCalls: []llm.ToolCall{call},
			})

			content, err := o.dispatch(ctx, userID, call)
			if err != nil {
				return nil, err
			}

			conversation = append(conversation, llm.Message{
				Role:       llmtypes.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}

		resp, err = o.complete(ctx, conversation, nil)
		if err != nil {
			return nil, err
		}
		llmCalls++
	}

	if strings.TrimSpace(resp.Content) == "" {
		return nil, apperrors.NewModelUnavailableError(o.llmClient.GetProvider(), errors.New("model returned an empty answer"))
	}
	conversation = append(conversation, llm.Message{Role: llmtypes.RoleAssistant, Content: resp.Content})

	o.logger.Info("Chat turn completed",
		logging.Int("user_id", userID),
		logging.Int("llm_calls", llmCalls),
		logging.Int("appended_messages", len(conversation)-len(history)),
		logging.Duration("duration", time.Since(start)),
	)

	return conversation, nil
}

// complete sends one request. With tools the model may call them; without
// tools it must answer in text.
func (o *Orchestrator) complete(ctx context.Context, conversation []llm.Message, defs []llm.ToolDefinition) (llm.CompletionResponse, error) {
	req := llm.CompletionRequest{
		Messages:    conversation,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	}
	if len(defs) > 0 {
		req.Tools = defs
		req.ToolChoice = llmtypes.ToolChoiceAuto
	}

	o.logger.Debug("Calling LLM",
		logging.String("provider", o.llmClient.GetProvider()),
		logging.Int("history_messages", len(conversation)),
		logging.Int("tool_count", len(req.Tools)),
	)

	resp, err := o.llmClient.GenerateCompletion(ctx, req)
	if err != nil {
		o.logger.Error("LLM call failed",
			logging.String("provider", o.llmClient.GetProvider()),
			logging.Error(err),
		)
		return llm.CompletionResponse{}, apperrors.NewModelUnavailableError(o.llmClient.GetProvider(), err)
	}

	o.logger.Debug("LLM response received",
		logging.Int("input_tokens", resp.Usage.InputTokens),
		logging.Int("output_tokens", resp.Usage.OutputTokens),
		logging.Int("tool_calls", len(resp.ToolCalls)),
	)
	return resp, nil
}

// dispatch runs one tool call and returns the tool message content
func (o *Orchestrator) dispatch(ctx context.Context, userID int, call llm.ToolCall) (string, error) {
	name := call.Function.Name

	tool, err := o.registry.Lookup(name)
	if err != nil {
		if o.opts.UnknownToolPolicy == config.UnknownToolFail {
			return "", err
		}
		o.logger.Warn("Model requested an unknown tool", logging.String("tool", name))
		return formatToolResult(map[string]string{"error": fmt.Sprintf("unknown tool: %s", name)})
	}

	o.logger.Info("Executing tool",
		logging.String("tool", name),
		logging.String("tool_call_id", call.ID),
		logging.Int("user_id", userID),
	)

	result, err := tool.Execute(ctx, tools.Invocation{UserID: userID, Arguments: call.Function.Arguments})
	if err != nil {
		o.logger.Error("Tool execution failed",
			logging.String("tool", name),
			logging.Error(err),
		)
		if _, ok := apperrors.AsAppError(err); ok {
			return "", err
		}
		return "", apperrors.NewToolExecutionError(name, err)
	}

	content, err := formatToolResult(result)
	if err != nil {
		return "", apperrors.NewToolExecutionError(name, err)
	}
	return content, nil
}

// formatToolResult encodes a tool result for the tool message
func formatToolResult(result interface{}) (string, error) {
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(jsonBytes), nil
}
