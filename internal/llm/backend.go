package llm

import "context"

// Backend invokes one named model of a text-generation service
type Backend interface {
	// Name identifies the service in status messages
	Name() string

	// Generate sends prompt to model and returns the raw text answer.
	// Errors for unknown models must satisfy errors.Is(err, ErrModelNotFound).
	Generate(ctx context.Context, model, prompt string) (string, error)
}
