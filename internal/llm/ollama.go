package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/ppiankov/sourcebrief/internal/model"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaBackend runs candidates on a local Ollama server
type OllamaBackend struct {
	llm       *ollama.LLM
	maxTokens int
}

// NewOllamaBackend creates an Ollama backend. The model is chosen per call.
func NewOllamaBackend(cfg model.LLMConfig) (*OllamaBackend, error) {
	serverURL := cfg.BaseURL
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}

	opts := []ollama.Option{
		ollama.WithServerURL(serverURL),
		ollama.WithHTTPClient(&http.Client{Timeout: timeoutOrDefault(cfg.Timeout)}),
	}
	if len(cfg.Models) > 0 {
		opts = append(opts, ollama.WithModel(cfg.Models[0]))
	}

	l, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}

	return &OllamaBackend{llm: l, maxTokens: cfg.MaxTokens}, nil
}

func (b *OllamaBackend) Name() string {
	return "ollama"
}

func (b *OllamaBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	callOpts := []llms.CallOption{llms.WithModel(model)}
	if b.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(b.maxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, b.llm, prompt, callOpts...)
	if err != nil {
		return "", classifyOllamaError(err)
	}

	return text, nil
}

// ollama reports missing models as `model "x" not found, try pulling it first`
func classifyOllamaError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "not found") {
		return modelNotFound(err)
	}
	return err
}
