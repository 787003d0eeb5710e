package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/llm"
	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/store"
	"github.com/ppiankov/sourcebrief/internal/store/memory"
)

const answerJSON = "```json\n" + `{
  "summary": "Fermentation relies on bacteria.",
  "key_points": ["Bacteria convert sugars"],
  "conflicting_claims": [],
  "what_to_verify": ["Temperature ranges"],
  "citations": [{"source": "https://a.example", "snippet": "convert sugars", "used_for": "mechanism"}],
  "topic_tags": ["food", "microbiology"]
}` + "\n```"

// scriptedBackend reports "not found" for every model except the ones in answers
type scriptedBackend struct {
	answers map[string]string
	calls   atomic.Int32
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Generate(_ context.Context, model, _ string) (string, error) {
	b.calls.Add(1)
	if a, ok := b.answers[model]; ok {
		return a, nil
	}
	return "", fmt.Errorf("[404 Not Found] models/%s is not found", model)
}

type countingAnalyzer struct {
	calls atomic.Int32
}

func (a *countingAnalyzer) Analyze(context.Context, string) (*model.AnalysisResult, error) {
	a.calls.Add(1)
	return &model.AnalysisResult{Summary: "s", KeyPoints: []string{}, Citations: []model.Citation{}}, nil
}

type recordingPublisher struct {
	briefs []model.ResearchBrief
	err    error
}

func (p *recordingPublisher) BriefCreated(_ context.Context, b model.ResearchBrief) error {
	p.briefs = append(p.briefs, b)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingStore struct {
	store.Store
	err error
}

func (s failingStore) Save(context.Context, model.BriefInput) (*model.ResearchBrief, error) {
	return nil, s.err
}

func (s failingStore) Get(context.Context, string) (*model.ResearchBrief, error) {
	return nil, s.err
}

func (s failingStore) ListRecent(context.Context, int) ([]model.ResearchBrief, error) {
	return nil, s.err
}

func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Second source.</p></body></html>"))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCreateBrief_HappyPathWithFallback(t *testing.T) {
	server := newSourceServer(t)
	backend := &scriptedBackend{answers: map[string]string{"model-b": answerJSON}}
	gen := llm.NewGenerator(backend, []string{"model-a", "model-b"}, zerolog.Nop())
	st := memory.New()
	pub := &recordingPublisher{}

	svc := NewService(testFetcher(5*time.Second), 0, gen, st, zerolog.Nop()).WithPublisher(pub)

	urls := []string{server.URL + "/a", server.URL + "/down", server.URL + "/b"}
	brief, err := svc.CreateBrief(context.Background(), urls)
	if err != nil {
		t.Fatalf("CreateBrief: %v", err)
	}

	if brief.ID == "" {
		t.Error("expected an id")
	}
	if !reflect.DeepEqual(brief.URLs, urls) {
		t.Errorf("URLs = %v, want all submitted URLs", brief.URLs)
	}
	if brief.Summary != "Fermentation relies on bacteria." || len(brief.TopicTags) != 2 {
		t.Errorf("unexpected analysis: %+v", brief.AnalysisResult)
	}
	if backend.calls.Load() != 2 {
		t.Errorf("backend calls = %d, want 2", backend.calls.Load())
	}

	stored, err := svc.GetBrief(context.Background(), brief.ID)
	if err != nil {
		t.Fatalf("GetBrief: %v", err)
	}
	if !reflect.DeepEqual(stored, brief) {
		t.Errorf("stored brief differs:\n got %+v\nwant %+v", stored, brief)
	}

	if len(pub.briefs) != 1 || pub.briefs[0].ID != brief.ID {
		t.Errorf("expected one brief.created event, got %+v", pub.briefs)
	}
}

func TestCreateBrief_AllFetchesFailNeverCallsBackend(t *testing.T) {
	server := newSourceServer(t)
	analyzer := &countingAnalyzer{}
	svc := NewService(testFetcher(time.Second), 0, analyzer, memory.New(), zerolog.Nop())

	_, err := svc.CreateBrief(context.Background(), []string{server.URL + "/down", "http://127.0.0.1:1/"})
	if !errors.Is(err, ErrScrapeFailure) {
		t.Fatalf("expected ErrScrapeFailure, got %v", err)
	}
	if analyzer.calls.Load() != 0 {
		t.Errorf("backend was invoked %d times", analyzer.calls.Load())
	}
}

func TestCreateBrief_InvalidURLs(t *testing.T) {
	analyzer := &countingAnalyzer{}
	svc := NewService(testFetcher(time.Second), 0, analyzer, memory.New(), zerolog.Nop())

	_, err := svc.CreateBrief(context.Background(), []string{"https://a.example/x", "not-a-url"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(vErr.Messages, []string{"Invalid URL at line 2: not-a-url"}) {
		t.Errorf("Messages = %v", vErr.Messages)
	}

	_, err = svc.CreateBrief(context.Background(), nil)
	if !errors.As(err, &vErr) || vErr.Messages[0] != "At least one URL is required" {
		t.Errorf("expected empty-input validation error, got %v", err)
	}
	if analyzer.calls.Load() != 0 {
		t.Error("invalid input must not reach the backend")
	}
}

func TestCreateBrief_GenerationErrorPropagates(t *testing.T) {
	server := newSourceServer(t)
	backend := &scriptedBackend{}
	gen := llm.NewGenerator(backend, []string{"x", "y"}, zerolog.Nop())
	svc := NewService(testFetcher(5*time.Second), 0, gen, memory.New(), zerolog.Nop())

	_, err := svc.CreateBrief(context.Background(), []string{server.URL + "/a"})
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) || genErr.Reason != llm.ReasonNoAvailableModel {
		t.Fatalf("expected no available model, got %v", err)
	}
}

func TestCreateBrief_StoreErrorAndEventFailure(t *testing.T) {
	server := newSourceServer(t)
	boom := errors.New("disk full")
	svc := NewService(testFetcher(5*time.Second), 0, &countingAnalyzer{}, failingStore{err: boom}, zerolog.Nop())

	_, err := svc.CreateBrief(context.Background(), []string{server.URL + "/a"})
	var sErr *StoreError
	if !errors.As(err, &sErr) || sErr.Op != "save" || !errors.Is(err, boom) {
		t.Fatalf("expected StoreError wrapping %v, got %v", boom, err)
	}

	pub := &recordingPublisher{err: errors.New("broker down")}
	svc = NewService(testFetcher(5*time.Second), 0, &countingAnalyzer{}, memory.New(), zerolog.Nop()).WithPublisher(pub)
	if _, err := svc.CreateBrief(context.Background(), []string{server.URL + "/a"}); err != nil {
		t.Errorf("event failures must not fail the request: %v", err)
	}
}

func TestGetBrief_NotFound(t *testing.T) {
	svc := NewService(testFetcher(time.Second), 0, &countingAnalyzer{}, memory.New(), zerolog.Nop())
	if _, err := svc.GetBrief(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	svc = NewService(testFetcher(time.Second), 0, &countingAnalyzer{}, failingStore{err: errors.New("timeout")}, zerolog.Nop())
	_, err := svc.GetBrief(context.Background(), "id")
	var sErr *StoreError
	if !errors.As(err, &sErr) || sErr.Op != "get" {
		t.Errorf("expected StoreError, got %v", err)
	}
}

func TestListRecent(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, _ = st.Save(ctx, Assemble([]string{"https://a.example"}, model.AnalysisResult{Summary: "s"}))
	}

	svc := NewService(testFetcher(time.Second), 0, &countingAnalyzer{}, st, zerolog.Nop())
	briefs, err := svc.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(briefs) != 5 {
		t.Errorf("default limit returned %d briefs, want 5", len(briefs))
	}
	for i := 1; i < len(briefs); i++ {
		if briefs[i].CreatedAt.After(briefs[i-1].CreatedAt) {
			t.Error("briefs must be newest first")
		}
	}
}
