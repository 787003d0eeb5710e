package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/metrics"
	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/pipeline"
	"github.com/ppiankov/sourcebrief/internal/status"
	"github.com/ppiankov/sourcebrief/internal/store"
	"github.com/ppiankov/sourcebrief/internal/worker"
)

// BriefService is satisfied by *pipeline.Service
type BriefService interface {
	CreateBrief(ctx context.Context, urls []string) (*model.ResearchBrief, error)
	GetBrief(ctx context.Context, id string) (*model.ResearchBrief, error)
	ListRecent(ctx context.Context, limit int) ([]model.ResearchBrief, error)
}

// StatusChecker is satisfied by *status.Checker
type StatusChecker interface {
	Check(ctx context.Context) status.Report
}

// Server exposes the brief workflow over HTTP
type Server struct {
	briefs   BriefService
	checker  StatusChecker
	limiter  *worker.Limiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      zerolog.Logger
}

// NewServer creates the API server. limiter may be nil.
func NewServer(briefs BriefService, checker StatusChecker, limiter *worker.Limiter, log zerolog.Logger) *Server {
	if limiter == nil {
		limiter = worker.NewLimiter(0, 0)
	}
	return &Server{
		briefs:  briefs,
		checker: checker,
		limiter: limiter,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// WithMetrics counts requests in m and serves g on /metrics
func (s *Server) WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) *Server {
	s.metrics = m
	s.gatherer = g
	return s
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.With(s.limiter.Middleware).Post("/research-briefs", s.createBrief)
		r.Get("/research-briefs", s.listBriefs)
		r.Get("/research-briefs/{id}", s.getBrief)
		r.Get("/status", s.status)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		s.metrics.ObserveRequest(route, strconv.Itoa(code))

		s.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", code).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

type createBriefRequest struct {
	URLs json.RawMessage `json:"urls"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) createBrief(w http.ResponseWriter, r *http.Request) {
	var req createBriefRequest
	var typeErr *json.UnmarshalTypeError
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.As(err, &typeErr) {
		s.log.Warn().Err(err).Msg("unreadable create request body")
		writeJSONStatus(w, errorResponse{Error: "Failed to process research brief", Message: err.Error()}, http.StatusInternalServerError)
		return
	}

	var urls []string
	if len(req.URLs) == 0 || string(req.URLs) == "null" || json.Unmarshal(req.URLs, &urls) != nil {
		writeJSONStatus(w, errorResponse{Error: "URLs array is required"}, http.StatusBadRequest)
		return
	}
	if urls == nil {
		urls = []string{}
	}

	// The brief is produced even if the client goes away mid-request.
	ctx := context.WithoutCancel(r.Context())

	brief, err := s.briefs.CreateBrief(ctx, urls)
	if err != nil {
		var vErr *pipeline.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeJSONStatus(w, errorResponse{Error: "Invalid URLs", Details: vErr.Messages}, http.StatusBadRequest)
		case errors.Is(err, pipeline.ErrScrapeFailure):
			writeJSONStatus(w, errorResponse{Error: "Could not scrape content from any of the provided URLs"}, http.StatusBadRequest)
		default:
			s.log.Error().Err(err).Int("urls", len(urls)).Msg("create brief failed")
			writeJSONStatus(w, errorResponse{Error: "Failed to process research brief", Message: err.Error()}, http.StatusInternalServerError)
		}
		return
	}

	writeJSONStatus(w, map[string]any{"brief": brief}, http.StatusCreated)
}

func (s *Server) listBriefs(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	briefs, err := s.briefs.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list briefs failed")
		writeJSONStatus(w, errorResponse{Error: "Failed to fetch research briefs"}, http.StatusInternalServerError)
		return
	}
	if briefs == nil {
		briefs = []model.ResearchBrief{}
	}

	writeJSONStatus(w, map[string]any{"briefs": briefs}, http.StatusOK)
}

func (s *Server) getBrief(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	brief, err := s.briefs.GetBrief(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONStatus(w, errorResponse{Error: "Research brief not found"}, http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("get brief failed")
		writeJSONStatus(w, errorResponse{Error: "Failed to fetch research brief", Message: err.Error()}, http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, map[string]any{"brief": brief}, http.StatusOK)
}

// status always answers 200; component failures are reported in the body
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, s.checker.Check(r.Context()), http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}
