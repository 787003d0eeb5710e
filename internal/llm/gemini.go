package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// GeminiBackend calls the Gemini API
type GeminiBackend struct {
	client    *genai.Client
	maxTokens int32
}

// NewGeminiBackend creates a Gemini backend
func NewGeminiBackend(ctx context.Context, cfg model.LLMConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	return &GeminiBackend{client: client, maxTokens: int32(cfg.MaxTokens)}, nil
}

func (b *GeminiBackend) Name() string {
	return "gemini"
}

func (b *GeminiBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	var gc *genai.GenerateContentConfig
	if b.maxTokens > 0 {
		gc = &genai.GenerateContentConfig{MaxOutputTokens: b.maxTokens}
	}

	resp, err := b.client.Models.GenerateContent(ctx, model, genai.Text(prompt), gc)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	return resp.Text(), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isGeminiNotFound(apiErr) {
		return modelNotFound(err)
	}
	return err
}

func isGeminiNotFound(e genai.APIError) bool {
	return e.Code == http.StatusNotFound || strings.EqualFold(e.Status, "NOT_FOUND")
}
