package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/metrics"
)

const validAnswer = `{
  "summary": "Borscht is a sour soup.",
  "key_points": ["It is sour"],
  "conflicting_claims": [],
  "what_to_verify": ["Origin"],
  "citations": [{"source": "https://a.example", "snippet": "sour soup", "used_for": "definition"}],
  "topic_tags": ["food"]
}`

// fakeBackend answers per model from a table and records call order
type fakeBackend struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Generate(_ context.Context, model, _ string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.mu.Unlock()

	if err, ok := f.errs[model]; ok {
		return "", err
	}
	if a, ok := f.answers[model]; ok {
		return a, nil
	}
	return "", modelNotFound(fmt.Errorf("models/%s is not found", model))
}

func TestGenerator_FallsBackPastMissingModels(t *testing.T) {
	backend := &fakeBackend{answers: map[string]string{"C": validAnswer}}
	g := NewGenerator(backend, []string{"A", "B", "C", "D"}, zerolog.Nop())

	analysis, err := g.Analyze(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if analysis.Summary != "Borscht is a sour soup." {
		t.Errorf("unexpected summary: %q", analysis.Summary)
	}
	if got := strings.Join(backend.calls, ","); got != "A,B,C" {
		t.Errorf("calls = %s, want A,B,C", got)
	}
}

func TestGenerator_MalformedAnswerIsTerminal(t *testing.T) {
	backend := &fakeBackend{answers: map[string]string{"A": "not json", "B": validAnswer}}
	g := NewGenerator(backend, []string{"A", "B"}, zerolog.Nop())

	_, err := g.Analyze(context.Background(), "prompt")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Reason != ReasonInvalidResponse || genErr.Model != "A" {
		t.Errorf("unexpected error: %+v", genErr)
	}
	if len(backend.calls) != 1 {
		t.Errorf("B must never be tried, calls = %v", backend.calls)
	}
}

func TestGenerator_OtherFailureIsTerminal(t *testing.T) {
	quota := errors.New("429 quota exceeded")
	backend := &fakeBackend{
		errs:    map[string]error{"A": quota},
		answers: map[string]string{"B": validAnswer},
	}
	g := NewGenerator(backend, []string{"A", "B"}, zerolog.Nop())

	_, err := g.Analyze(context.Background(), "prompt")
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonBackend {
		t.Fatalf("expected backend failure, got %v", err)
	}
	if !errors.Is(err, quota) {
		t.Error("expected the backend error to be wrapped")
	}
	if len(backend.calls) != 1 {
		t.Errorf("calls = %v, want only A", backend.calls)
	}
}

func TestGenerator_Exhausted(t *testing.T) {
	backend := &fakeBackend{}
	g := NewGenerator(backend, []string{"A", "B"}, zerolog.Nop())

	_, err := g.Analyze(context.Background(), "prompt")
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonNoAvailableModel {
		t.Fatalf("expected no available model, got %v", err)
	}
	if !errors.Is(err, ErrModelNotFound) {
		t.Error("expected last error to be carried")
	}
	if !strings.Contains(err.Error(), "models/B is not found") {
		t.Errorf("expected last error text, got %q", err.Error())
	}
}

func TestGenerator_EmptyCandidateList(t *testing.T) {
	g := NewGenerator(&fakeBackend{}, nil, zerolog.Nop())
	_, err := g.Analyze(context.Background(), "prompt")
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != ReasonNoAvailableModel {
		t.Fatalf("expected no available model, got %v", err)
	}
	if err.Error() != ReasonNoAvailableModel {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestGenerator_RecordsAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	backend := &fakeBackend{answers: map[string]string{"B": validAnswer}}
	g := NewGenerator(backend, []string{"A", "B"}, zerolog.Nop()).WithMetrics(m)

	if _, err := g.Analyze(context.Background(), "prompt"); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "sourcebrief_generation_attempts_total" {
			found = len(f.GetMetric()) == 2
		}
	}
	if !found {
		t.Error("expected one not_found and one ok attempt series")
	}
}

func TestGenerator_TestConnection(t *testing.T) {
	tests := []struct {
		name        string
		backend     *fakeBackend
		wantSuccess bool
		wantModel   string
		wantMsg     string
	}{
		{
			name:        "second candidate answers",
			backend:     &fakeBackend{answers: map[string]string{"B": "OK"}},
			wantSuccess: true,
			wantModel:   "B",
			wantMsg:     "fake API connected successfully using B. Response: OK",
		},
		{
			name:    "none available",
			backend: &fakeBackend{},
			wantMsg: "No available fake model found",
		},
		{
			name:    "terminal error",
			backend: &fakeBackend{errs: map[string]error{"A": errors.New("invalid API key")}},
			wantMsg: "fake API error: invalid API key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.backend, []string{"A", "B"}, zerolog.Nop())
			status := g.TestConnection(context.Background())
			if status.Success != tt.wantSuccess || status.Model != tt.wantModel {
				t.Errorf("status = %+v", status)
			}
			if !strings.Contains(status.Message, tt.wantMsg) {
				t.Errorf("message = %q, want to contain %q", status.Message, tt.wantMsg)
			}
		})
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		err  error
		want failureKind
	}{
		{modelNotFound(errors.New("gone")), failureModelNotFound},
		{fmt.Errorf("wrapped: %w", ErrModelNotFound), failureModelNotFound},
		{errors.New("[404 Not Found] models/gemini-pro"), failureModelNotFound},
		{errors.New("model is not found for API version"), failureModelNotFound},
		{errors.New("500 internal"), failureTerminal},
		{errors.New("permission denied"), failureTerminal},
	}

	for _, tt := range tests {
		if got := classifyFailure(tt.err); got != tt.want {
			t.Errorf("classifyFailure(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGenerationError_Messages(t *testing.T) {
	err := &GenerationError{Reason: ReasonInvalidResponse, Model: "m", Err: errors.New("missing summary")}
	if err.Error() != "invalid response structure from m: missing summary" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	err = &GenerationError{Reason: ReasonNoAvailableModel, Err: errors.New("x not found")}
	if err.Error() != "no available model, last error: x not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
