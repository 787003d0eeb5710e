package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/metrics"
	"github.com/ppiankov/sourcebrief/internal/model"
)

const connectionProbePrompt = `Say "OK" if you can read this.`

// Generator walks an ordered list of candidate models until one answers
type Generator struct {
	backend Backend
	models  []string
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewGenerator creates a generator over the candidates, tried in order
func NewGenerator(backend Backend, models []string, log zerolog.Logger) *Generator {
	return &Generator{
		backend: backend,
		models:  append([]string(nil), models...),
		log:     log.With().Str("component", "generator").Str("backend", backend.Name()).Logger(),
	}
}

// WithMetrics records per-attempt outcomes
func (g *Generator) WithMetrics(m *metrics.Metrics) *Generator {
	g.metrics = m
	return g
}

// Models returns the candidate list
func (g *Generator) Models() []string {
	return append([]string(nil), g.models...)
}

// Analyze sends prompt to the first available candidate and returns its
// validated analysis. A candidate that is not found is skipped; any other
// failure, including an answer that does not parse, ends the walk.
func (g *Generator) Analyze(ctx context.Context, prompt string) (*model.AnalysisResult, error) {
	var lastErr error

	for _, m := range g.models {
		text, err := g.backend.Generate(ctx, m, prompt)
		if err != nil {
			if classifyFailure(err) == failureModelNotFound {
				g.metrics.ObserveAttempt(m, metrics.AttemptNotFound)
				g.log.Info().Str("model", m).Msg("model not available, trying next")
				lastErr = err
				continue
			}
			g.metrics.ObserveAttempt(m, metrics.AttemptFailed)
			g.log.Error().Err(err).Str("model", m).Msg("generation failed")
			return nil, &GenerationError{Reason: ReasonBackend, Model: m, Err: err}
		}

		analysis, err := ParseAnalysis(text)
		if err != nil {
			g.metrics.ObserveAttempt(m, metrics.AttemptInvalid)
			g.log.Error().Err(err).Str("model", m).Msg("unusable model answer")
			return nil, &GenerationError{Reason: ReasonInvalidResponse, Model: m, Err: err}
		}

		g.metrics.ObserveAttempt(m, metrics.AttemptOK)
		g.log.Debug().Str("model", m).Int("key_points", len(analysis.KeyPoints)).Msg("analysis complete")
		return analysis, nil
	}

	return nil, &GenerationError{Reason: ReasonNoAvailableModel, Err: lastErr}
}

// ConnectionStatus is the outcome of a connectivity probe
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Model   string `json:"model,omitempty"`
	Message string `json:"message"`
}

// TestConnection sends a trivial prompt through the same fallback walk
func (g *Generator) TestConnection(ctx context.Context) ConnectionStatus {
	name := g.backend.Name()

	for _, m := range g.models {
		text, err := g.backend.Generate(ctx, m, connectionProbePrompt)
		if err != nil {
			if classifyFailure(err) == failureModelNotFound {
				continue
			}
			return ConnectionStatus{
				Message: fmt.Sprintf("%s API error: %v", name, err),
			}
		}
		return ConnectionStatus{
			Success: true,
			Model:   m,
			Message: fmt.Sprintf("%s API connected successfully using %s. Response: %s", name, m, strings.TrimSpace(text)),
		}
	}

	return ConnectionStatus{
		Message: fmt.Sprintf("No available %s model found. Please check your API key and model availability.", name),
	}
}

type failureKind int

const (
	failureTerminal failureKind = iota
	failureModelNotFound
)

// classifyFailure decides whether an invocation error should advance to the
// next candidate. Backends tag missing models with ErrModelNotFound; errors
// that only say so in their text are recognized too.
func classifyFailure(err error) failureKind {
	if errors.Is(err, ErrModelNotFound) {
		return failureModelNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "404") || strings.Contains(msg, "not found") {
		return failureModelNotFound
	}
	return failureTerminal
}
