package llm

import (
	"context"
	"testing"

	"github.com/ppiankov/sourcebrief/internal/model"
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
		wantName string
		wantErr  bool
	}{
		{"gemini", "k", "gemini", false},
		{"openai", "k", "openai", false},
		{"OpenAI", "k", "openai", false},
		{"claude", "k", "anthropic", false},
		{"ollama", "", "ollama", false},
		{"openai", "", "", true},
		{"gemini", "", "", true},
		{"mistral", "k", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.apiKey, func(t *testing.T) {
			b, err := NewBackend(context.Background(), model.LLMConfig{Provider: tt.provider, APIKey: tt.apiKey})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && b.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.wantName)
			}
		})
	}
}
