package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/events"
	"github.com/ppiankov/sourcebrief/internal/llm"
	"github.com/ppiankov/sourcebrief/internal/metrics"
	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/store"
	"github.com/ppiankov/sourcebrief/internal/validate"
)

// Analyzer turns a prompt into a validated analysis
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (*model.AnalysisResult, error)
}

// Service runs the research brief workflow
type Service struct {
	fetcher   SourceFetcher
	workers   int
	analyzer  Analyzer
	store     store.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewService wires the workflow. workers bounds the fetch fan-out; 0 is unbounded.
func NewService(fetcher SourceFetcher, workers int, analyzer Analyzer, st store.Store, log zerolog.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		workers:   workers,
		analyzer:  analyzer,
		store:     st,
		publisher: events.Nop{},
		log:       log.With().Str("component", "service").Logger(),
	}
}

// WithPublisher announces created briefs through p
func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithMetrics records brief outcomes
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// CreateBrief validates urls, fetches them concurrently, analyzes the
// successful ones and stores the resulting brief.
func (s *Service) CreateBrief(ctx context.Context, urls []string) (*model.ResearchBrief, error) {
	if res := validate.Validate(urls); !res.Valid {
		s.metrics.ObserveBrief("invalid_urls")
		return nil, &ValidationError{Messages: res.Errors}
	}

	results := FetchAll(ctx, s.fetcher, urls, s.workers)
	successful := model.Successful(results)
	s.log.Info().Int("urls", len(urls)).Int("fetched", len(successful)).Msg("sources fetched")

	if len(successful) == 0 {
		s.metrics.ObserveBrief("scrape_failure")
		return nil, ErrScrapeFailure
	}

	prompt, err := llm.BuildPrompt(successful)
	if err != nil {
		s.metrics.ObserveBrief("scrape_failure")
		return nil, ErrScrapeFailure
	}

	analysis, err := s.analyzer.Analyze(ctx, prompt)
	if err != nil {
		s.metrics.ObserveBrief("generation_failure")
		return nil, err
	}

	brief, err := s.store.Save(ctx, Assemble(urls, *analysis))
	if err != nil {
		s.metrics.ObserveBrief("store_failure")
		return nil, &StoreError{Op: "save", Err: err}
	}

	s.metrics.ObserveBrief("created")
	s.log.Info().Str("id", brief.ID).Int("citations", len(brief.Citations)).Msg("brief created")

	if err := s.publisher.BriefCreated(ctx, *brief); err != nil {
		s.log.Warn().Err(err).Str("id", brief.ID).Msg("brief.created event not published")
	}

	return brief, nil
}

// GetBrief returns a stored brief or store.ErrNotFound
func (s *Service) GetBrief(ctx context.Context, id string) (*model.ResearchBrief, error) {
	brief, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	return brief, nil
}

// ListRecent returns up to limit briefs, newest first. limit <= 0 uses the default.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.ResearchBrief, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	briefs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return briefs, nil
}
