package llm

import (
	"fmt"
	"net/http"

	"github.com/user/mockshop/internal/config"
)

// Factory creates LLM clients
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a new LLM factory. A nil HTTP client makes each
// provider build its own using the configured timeout.
func NewFactory(httpClient *http.Client) *Factory {
	return &Factory{httpClient: httpClient}
}

// CreateClient creates an LLM client based on the provider configuration
func (f *Factory) CreateClient(cfg config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg, f.httpClient), nil
	case "anthropic":
		return NewAnthropicClient(cfg, f.httpClient), nil
	case "ollama":
		return NewOllamaClient(cfg, f.httpClient)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, anthropic, ollama)", cfg.Provider)
	}
}
