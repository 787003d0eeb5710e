package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes
const (
	FetchOK       = "ok"
	FetchError    = "error"
	FetchCacheHit = "cache_hit"
	FetchBlocked  = "robots_blocked"
)

// Generation attempt outcomes
const (
	AttemptOK       = "ok"
	AttemptNotFound = "not_found"
	AttemptFailed   = "failed"
	AttemptInvalid  = "invalid"
)

// Metrics holds the pipeline's collectors. A nil *Metrics records nothing.
type Metrics struct {
	fetches            *prometheus.CounterVec
	fetchDuration      prometheus.Histogram
	generationAttempts *prometheus.CounterVec
	briefs             *prometheus.CounterVec
	requests           *prometheus.CounterVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcebrief",
			Name:      "fetches_total",
			Help:      "Source fetches by outcome.",
		}, []string{"outcome"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sourcebrief",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of network fetches.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		generationAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcebrief",
			Name:      "generation_attempts_total",
			Help:      "Generation attempts per candidate model and outcome.",
		}, []string{"model", "outcome"}),
		briefs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcebrief",
			Name:      "briefs_total",
			Help:      "Brief creation requests by result.",
		}, []string{"result"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcebrief",
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveFetch(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	if outcome == FetchOK || outcome == FetchError {
		m.fetchDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) ObserveAttempt(model, outcome string) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(model, outcome).Inc()
}

// ObserveBrief counts a createBrief call; result is "created" or an error class
func (m *Metrics) ObserveBrief(result string) {
	if m == nil {
		return
	}
	m.briefs.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, code).Inc()
}
