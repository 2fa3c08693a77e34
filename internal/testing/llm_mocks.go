package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

type MockServerOption func(*mockServerConfig)

type mockServerConfig struct {
	validateAuth bool
	authHeader   string
	authValue    string
}

func WithAuthValidation(header, value string) MockServerOption {
	return func(cfg *mockServerConfig) {
		cfg.validateAuth = true
		cfg.authHeader = header
		cfg.authValue = value
	}
}

func NewMockServer(t *testing.T, handler http.HandlerFunc, opts ...MockServerOption) *httptest.Server {
	t.Helper()
	cfg := &mockServerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	wrappedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.validateAuth {
			if r.Header.Get(cfg.authHeader) != cfg.authValue {
				t.Errorf("Expected %s header '%s', got '%s'", cfg.authHeader, cfg.authValue, r.Header.Get(cfg.authHeader))
			}
		}
		handler(w, r)
	})

	server := httptest.NewServer(wrappedHandler)
	t.Cleanup(server.Close)
	return server
}

func UnauthorizedHandler(errorBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(errorBody))
	}
}

func InternalErrorHandler(errorBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(errorBody))
	}
}

// OpenAITextCompletion is a chat completion body answering with content
func OpenAITextCompletion(content string) string {
	encoded, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"chatcmpl-123","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, encoded)
}

// OpenAIToolCallCompletion is a chat completion body requesting one tool call
func OpenAIToolCallCompletion(id, name, args string) string {
	encodedArgs, _ := json.Marshal(args)
	return fmt.Sprintf(`{"id":"chatcmpl-123","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":null,"tool_calls":[{"id":"%s","type":"function","function":{"name":"%s","arguments":%s}}]},"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, id, name, encodedArgs)
}

// SequenceHandler answers successive requests with successive bodies and
// records every request body it receives
type SequenceHandler struct {
	mu       sync.Mutex
	bodies   []string
	requests []map[string]interface{}
}

func NewSequenceHandler(bodies ...string) *SequenceHandler {
	return &SequenceHandler{bodies: bodies}
}

func (h *SequenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&req)
	h.requests = append(h.requests, req)

	n := len(h.requests)
	if n > len(h.bodies) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":{"message":"unexpected request %d"}}`, n)
		return
	}
	SetJSONHeaders(w)
	w.Write([]byte(h.bodies[n-1]))
}

// Requests returns the decoded request bodies received so far
func (h *SequenceHandler) Requests() []map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]interface{}(nil), h.requests...)
}
