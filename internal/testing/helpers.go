package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/userdir"
)

// MockLLMClient implements llm.LLMClient with scripted responses
type MockLLMClient struct {
	mu sync.Mutex

	Responses      []llm.CompletionResponse
	CallCount      int
	LastRequest    llm.CompletionRequest
	ShouldError    bool
	ErrorToReturn  error
	RequestHistory []llm.CompletionRequest
}

// NewMockLLMClient creates a new mock LLM client with predefined responses
func NewMockLLMClient(responses ...llm.CompletionResponse) *MockLLMClient {
	return &MockLLMClient{
		Responses:      responses,
		RequestHistory: make([]llm.CompletionRequest, 0),
	}
}

// GenerateCompletion implements llm.LLMClient. Requests are recorded as
// deep copies so later changes by the caller do not leak into assertions.
func (m *MockLLMClient) GenerateCompletion(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req = cloneRequest(req)
	m.LastRequest = req
	m.RequestHistory = append(m.RequestHistory, req)
	m.CallCount++

	if err := ctx.Err(); err != nil {
		return llm.CompletionResponse{}, err
	}
	if m.ShouldError {
		return llm.CompletionResponse{}, m.ErrorToReturn
	}
	if m.CallCount > len(m.Responses) {
		return llm.CompletionResponse{}, fmt.Errorf("no response scripted for call %d", m.CallCount)
	}
	return m.Responses[m.CallCount-1], nil
}

// SupportsTools implements llm.LLMClient
func (m *MockLLMClient) SupportsTools() bool {
	return true
}

// GetProvider implements llm.LLMClient
func (m *MockLLMClient) GetProvider() string {
	return "mock"
}

// Calls returns the number of completions requested so far
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Request returns the i-th recorded request
func (m *MockLLMClient) Request(i int) llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestHistory[i]
}

// Reset resets the mock state
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastRequest = llm.CompletionRequest{}
	m.RequestHistory = make([]llm.CompletionRequest, 0)
	m.ShouldError = false
	m.ErrorToReturn = nil
}

// SetError configures the mock to return an error
func (m *MockLLMClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorToReturn = err
}

func cloneRequest(req llm.CompletionRequest) llm.CompletionRequest {
	msgs := make([]llm.Message, len(req.Messages))
	for i, msg := range req.Messages {
		msgs[i] = msg.Clone()
	}
	req.Messages = msgs
	req.Tools = append([]llm.ToolDefinition(nil), req.Tools...)
	return req
}

// MockDirectory implements userdir.Directory from a fixed table
type MockDirectory struct {
	mu    sync.Mutex
	Users map[int]userdir.UserInfo
	Err   error
	Calls []int
}

// NewMockDirectory creates a directory that knows the given users
func NewMockDirectory(users map[int]userdir.UserInfo) *MockDirectory {
	return &MockDirectory{Users: users}
}

// LookupUser implements userdir.Directory
func (d *MockDirectory) LookupUser(ctx context.Context, userID int) (userdir.UserInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Calls = append(d.Calls, userID)
	if d.Err != nil {
		return userdir.UserInfo{}, d.Err
	}
	info, ok := d.Users[userID]
	if !ok {
		return userdir.UserInfo{}, fmt.Errorf("user %d: %w", userID, userdir.ErrUserNotFound)
	}
	return info, nil
}

// CallCount returns the number of lookups so far
func (d *MockDirectory) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// RequireCalls fails the test unless the directory saw exactly the given lookups
func (d *MockDirectory) RequireCalls(t *testing.T, want ...int) {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.Calls) != len(want) {
		t.Fatalf("Expected directory calls %v, got %v", want, d.Calls)
	}
	for i := range want {
		if d.Calls[i] != want[i] {
			t.Fatalf("Expected directory calls %v, got %v", want, d.Calls)
		}
	}
}
