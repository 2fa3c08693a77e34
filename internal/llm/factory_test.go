package llm

import (
	"strings"
	"testing"

	"github.com/user/mockshop/internal/config"
)

func TestFactory_CreateClient(t *testing.T) {
	factory := NewFactory(nil)

	tests := []struct {
		name     string
		cfg      config.LLMConfig
		provider string
		wantErr  bool
	}{
		{
			name:     "openai",
			cfg:      config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"},
			provider: "openai",
		},
		{
			name:     "anthropic",
			cfg:      config.LLMConfig{Provider: "anthropic", Model: "claude-3-5-haiku-latest", APIKey: "k"},
			provider: "anthropic",
		},
		{
			name:     "ollama",
			cfg:      config.LLMConfig{Provider: "ollama", Model: "llama3.1"},
			provider: "ollama",
		},
		{
			name:    "unsupported",
			cfg:     config.LLMConfig{Provider: "gemini"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := factory.CreateClient(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), "unsupported LLM provider") {
					t.Errorf("Unexpected error message: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if client.GetProvider() != tt.provider {
				t.Errorf("Expected provider %s, got %s", tt.provider, client.GetProvider())
			}
		})
	}
}
