package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/cache"
	"github.com/ppiankov/sourcebrief/internal/events"
	"github.com/ppiankov/sourcebrief/internal/llm"
	"github.com/ppiankov/sourcebrief/internal/logging"
	"github.com/ppiankov/sourcebrief/internal/metrics"
	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/pipeline"
	"github.com/ppiankov/sourcebrief/internal/status"
	"github.com/ppiankov/sourcebrief/internal/store"
	"github.com/ppiankov/sourcebrief/internal/store/memory"
	"github.com/ppiankov/sourcebrief/internal/store/postgres"
)

const statusProbeTimeout = 30 * time.Second

// app holds the wired components for one command invocation
type app struct {
	cfg       *model.Config
	log       zerolog.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	store     store.Store
	generator *llm.Generator
	genErr    error
	service   *pipeline.Service
	checker   *status.Checker
	publisher events.Publisher
	cache     cache.Cache
}

// newApp wires the store, fetcher, generator and service from cfg.
// A generator that cannot be built is recorded in genErr rather than
// failing, so read-only commands work without LLM credentials.
func newApp(ctx context.Context, cfg *model.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      logging.New(cfg.Log),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = st

	c, err := cache.New(cfg.Cache)
	if err != nil {
		_ = a.store.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	a.cache = c

	fetcher := pipeline.NewFetcher(cfg.HTTP, cfg.Extract, a.log).WithMetrics(a.metrics)
	if c != nil {
		fetcher = fetcher.WithCache(c, cfg.Cache.TTL)
	}

	var (
		analyzer pipeline.Analyzer
		tester   status.ConnectionTester
	)
	backend, err := llm.NewBackend(ctx, cfg.LLM)
	if err != nil {
		a.genErr = err
		analyzer = unavailableAnalyzer{provider: cfg.LLM.Provider, err: err}
		tester = unavailableGenerator{err: err}
		a.log.Debug().Err(err).Str("provider", cfg.LLM.Provider).Msg("generation backend unavailable")
	} else {
		a.generator = llm.NewGenerator(backend, cfg.LLM.Models, a.log).WithMetrics(a.metrics)
		analyzer = a.generator
		tester = a.generator
	}

	a.publisher = events.New(cfg.Events)
	a.service = pipeline.NewService(fetcher, cfg.Concurrency.FetchWorkers, analyzer, a.store, a.log).
		WithPublisher(a.publisher).
		WithMetrics(a.metrics)
	a.checker = status.NewChecker(a.store, tester, statusProbeTimeout)

	return a, nil
}

// Close releases the store, cache and event publisher
func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close publisher")
	}
	if closer, ok := a.cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
}

func openStore(ctx context.Context, cfg model.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), nil
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// unavailableAnalyzer fails every analysis with the backend construction error
type unavailableAnalyzer struct {
	provider string
	err      error
}

func (u unavailableAnalyzer) Analyze(context.Context, string) (*model.AnalysisResult, error) {
	return nil, &llm.GenerationError{Reason: llm.ReasonBackend, Model: u.provider, Err: u.err}
}

// unavailableGenerator reports the backend construction error as a failed probe
type unavailableGenerator struct {
	err error
}

func (u unavailableGenerator) TestConnection(context.Context) llm.ConnectionStatus {
	msg := "generation backend not configured"
	if u.err != nil {
		msg = u.err.Error()
	}
	return llm.ConnectionStatus{Message: msg}
}
