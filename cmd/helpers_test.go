package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/mockshop/internal/config"
	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	testutil "github.com/user/mockshop/internal/testing"
	"github.com/user/mockshop/internal/userdir"
)

// TestInitLogger_CreatesLogDir tests that a configured log directory is created
func TestInitLogger_CreatesLogDir(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger(config.LoggingConfig{LogDir: logDir, Level: "info"}, false, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	if _, err := os.Stat(filepath.Join(logDir, "mockshop.log")); err != nil {
		t.Errorf("Expected log file to be created: %v", err)
	}
}

// TestInitLogger_NoSinks tests that a logger without sinks is still usable
func TestInitLogger_NoSinks(t *testing.T) {
	logger, err := InitLogger(config.LoggingConfig{Level: "debug"}, true, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	logger.Debug("dropped")
}

func TestNewDirectory_Modes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chat.UserDirectory.Mode = config.DirectoryModeLocal
	cfg.Auth.BcryptCost = 4

	st, err := newSeededStore(cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, ok := newDirectory(cfg, st, nil).(*userdir.StoreDirectory); !ok {
		t.Error("Expected local mode to use the store directory")
	}

	cfg.Chat.UserDirectory.Mode = config.DirectoryModeHTTP
	cfg.UserDir = config.UserDirConfig{BaseURL: "http://127.0.0.1:8000", Username: "svc", Password: "pw"}
	if _, ok := newDirectory(cfg, st, nil).(*userdir.HTTPDirectory); !ok {
		t.Error("Expected http mode to use the HTTP directory")
	}
}

func TestNewOrchestrator_UnsupportedProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "gemini"

	_, err := newOrchestrator(cfg, testutil.NewMockDirectory(nil), nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported LLM provider") {
		t.Errorf("Expected unsupported provider error, got %v", err)
	}
}

func TestRunChatLoop_Conversation(t *testing.T) {
	mock := testutil.NewMockLLMClient(
		testutil.TextResponse("Hi there!"),
		testutil.TextResponse("Your order is on its way."),
	)
	runner := &echoRunner{client: mock}

	in := strings.NewReader("abc\n2\nHello\n\nWhere is my order?\nq\n")
	var out bytes.Buffer

	if err := runChatLoop(context.Background(), in, &out, runner, 0, 0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Enter user id: ",
		"Please enter a positive number.",
		"Enter message (or 'q' to quit):\n",
		"Assistant:  Hi there!\n",
		"Assistant:  Your order is on its way.\n",
		"Quitting...\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}

	if runner.userID != 2 {
		t.Errorf("Expected user id 2, got %d", runner.userID)
	}
	// Second turn sees the first exchange plus the new message
	if got := len(mock.Request(1).Messages); got != 3 {
		t.Errorf("Expected 3 messages in the second turn, got %d", got)
	}
}

func TestRunChatLoop_ErrorKeepsHistory(t *testing.T) {
	runner := &echoRunner{client: testutil.NewMockLLMClient(testutil.TextResponse("Recovered."))}
	runner.failNext = apperrors.NewModelUnavailableError("mock", errors.New("timeout"))

	in := strings.NewReader("first\nsecond\n")
	var out bytes.Buffer

	if err := runChatLoop(context.Background(), in, &out, runner, 5, 0); err != nil {
		t.Fatalf("Expected no error at EOF, got %v", err)
	}

	if !strings.Contains(out.String(), "Language model provider unavailable") {
		t.Errorf("Expected error message, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Assistant:  Recovered.") {
		t.Errorf("Expected second turn to succeed, got:\n%s", out.String())
	}
	if len(runner.lastHistory) != 1 || runner.lastHistory[0].Content != "second" {
		t.Errorf("Expected failed message to be dropped, got %+v", runner.lastHistory)
	}
}

// echoRunner forwards history to the client and appends its answer
type echoRunner struct {
	client      llm.LLMClient
	failNext    error
	userID      int
	lastHistory []llm.Message
}

func (r *echoRunner) RunTurn(ctx context.Context, userID int, history []llm.Message) ([]llm.Message, error) {
	r.userID = userID
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return nil, err
	}
	r.lastHistory = append([]llm.Message(nil), history...)

	resp, err := r.client.GenerateCompletion(ctx, llm.CompletionRequest{Messages: history})
	if err != nil {
		return nil, err
	}
	return append(append([]llm.Message(nil), history...), llm.Message{Role: "assistant", Content: resp.Content}), nil
}
