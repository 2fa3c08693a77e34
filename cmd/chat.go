package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/mockshop/internal/api"
	"github.com/user/mockshop/internal/config"
	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/llmtypes"
)

var chatUserID int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the support agent in the terminal",
	Long: `Start an interactive support chat against the seeded shop.

Account lookups go straight to the in-memory store, so no server needs to
be running. The conversation is kept for the whole session; type q to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().IntVar(&chatUserID, "user-id", 0, "Chat as this user (prompted when omitted)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"chat.user_directory.mode": config.DirectoryModeLocal,
	})
	if err != nil {
		return err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}

	logger, err := InitLogger(cfg.Logging, debugFlag, verboseFlag)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := newSeededStore(cfg)
	if err != nil {
		return err
	}
	orchestrator, err := newOrchestrator(cfg, newDirectory(cfg, st, logger), logger)
	if err != nil {
		return err
	}

	return runChatLoop(cmd.Context(), os.Stdin, cmd.OutOrStdout(), orchestrator, chatUserID, cfg.Chat.GetTurnTimeout())
}

// runChatLoop reads a user id and then messages from in until "q" or EOF.
// A failed turn is reported and the message is dropped from the history.
func runChatLoop(ctx context.Context, in io.Reader, out io.Writer, runner api.TurnRunner, userID int, turnTimeout time.Duration) error {
	scanner := bufio.NewScanner(in)

	for userID <= 0 {
		fmt.Fprint(out, "Enter user id: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		id, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || id <= 0 {
			fmt.Fprintln(out, "Please enter a positive number.")
			continue
		}
		userID = id
	}

	var history []llm.Message
	for {
		fmt.Fprint(out, "Enter message (or 'q' to quit):\n")
		if !scanner.Scan() {
			return scanner.Err()
		}
		message := scanner.Text()
		if message == "q" {
			fmt.Fprintln(out, "Quitting...")
			return nil
		}
		if strings.TrimSpace(message) == "" {
			continue
		}

		pending := append(history, llm.Message{Role: llmtypes.RoleUser, Content: message})
		updated, err := runTurn(ctx, runner, userID, pending, turnTimeout)
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				fmt.Fprintln(out, appErr.GetUserMessage())
			} else {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		history = updated
		fmt.Fprintln(out, "Assistant: ", history[len(history)-1].Content)
	}
}

func runTurn(ctx context.Context, runner api.TurnRunner, userID int, history []llm.Message, timeout time.Duration) ([]llm.Message, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return runner.RunTurn(ctx, userID, history)
}
