package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// Providers lists the supported backend names
var Providers = []string{"gemini", "openai", "anthropic", "ollama"}

// NewBackend creates the backend named by cfg.Provider
func NewBackend(ctx context.Context, cfg model.LLMConfig) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return NewGeminiBackend(ctx, cfg)
	case "openai":
		return NewOpenAIBackend(cfg)
	case "anthropic", "claude":
		return NewAnthropicBackend(cfg)
	case "ollama":
		return NewOllamaBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: %s)", cfg.Provider, strings.Join(Providers, ", "))
	}
}
