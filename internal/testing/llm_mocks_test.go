package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/user/mockshop/internal/llm"
)

func TestSequenceHandler(t *testing.T) {
	handler := NewSequenceHandler(OpenAITextCompletion("first"), OpenAITextCompletion("second"))
	server := NewMockServer(t, handler.ServeHTTP)

	for i, want := range []string{"first", "second"} {
		resp, err := http.Post(server.URL, "application/json", strings.NewReader(`{"n":1}`))
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if !strings.Contains(string(body), want) {
			t.Errorf("Request %d: expected %q in %s", i, want, body)
		}
	}

	resp, err := http.Post(server.URL, "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500 once bodies are exhausted, got %d", resp.StatusCode)
	}

	if got := len(handler.Requests()); got != 3 {
		t.Errorf("Expected 3 recorded requests, got %d", got)
	}
}

func TestOpenAIToolCallCompletion_EscapesArguments(t *testing.T) {
	body := OpenAIToolCallCompletion("call_1", "get_user_info", `{"user_id":2}`)
	if !strings.Contains(body, `"arguments":"{\"user_id\":2}"`) {
		t.Errorf("Expected escaped arguments, got %s", body)
	}
}

func TestMockLLMClient_Scripted(t *testing.T) {
	mock := NewMockLLMClient(TextResponse("one"))
	ctx := context.Background()

	msgs := []llm.Message{UserMessage("hi")}
	resp, err := mock.GenerateCompletion(ctx, llm.CompletionRequest{Messages: msgs})
	if err != nil || resp.Content != "one" {
		t.Fatalf("Unexpected response %+v, %v", resp, err)
	}

	msgs[0].Content = "changed"
	if mock.Request(0).Messages[0].Content != "hi" {
		t.Error("Expected recorded request to be isolated from caller changes")
	}

	if _, err := mock.GenerateCompletion(ctx, llm.CompletionRequest{}); err == nil {
		t.Error("Expected error once script is exhausted")
	}
	if mock.Calls() != 2 {
		t.Errorf("Expected 2 calls, got %d", mock.Calls())
	}

	boom := errors.New("boom")
	mock.Reset()
	mock.SetError(boom)
	if _, err := mock.GenerateCompletion(ctx, llm.CompletionRequest{}); !errors.Is(err, boom) {
		t.Errorf("Expected configured error, got %v", err)
	}
}

func TestMockDirectory(t *testing.T) {
	dir := NewMockDirectory(nil)
	if _, err := dir.LookupUser(context.Background(), 7); err == nil {
		t.Error("Expected not found error")
	}
	dir.RequireCalls(t, 7)
}
