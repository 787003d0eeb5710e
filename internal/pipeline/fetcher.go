package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/sourcebrief/internal/cache"
	"github.com/ppiankov/sourcebrief/internal/extract"
	"github.com/ppiankov/sourcebrief/internal/metrics"
	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/util"
)

const maxRedirects = 10

// Fetcher retrieves one source URL and reduces it to clean text
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	extractor  *extract.Extractor
	cache      cache.Cache
	cacheTTL   time.Duration
	robots     *util.RobotsChecker
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewFetcher creates a fetcher from the http and extract settings
func NewFetcher(httpCfg model.HTTPConfig, extractCfg model.ExtractConfig, log zerolog.Logger) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.ProxyFunc(httpCfg)

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   httpCfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: httpCfg.UserAgent,
		maxBytes:  httpCfg.MaxBodyBytes,
		extractor: extract.NewExtractor(extractCfg.Mode, httpCfg.MaxContentChars),
		log:       log.With().Str("component", "fetcher").Logger(),
	}
	if f.userAgent == "" {
		f.userAgent = model.DefaultUserAgent
	}
	if httpCfg.RespectRobots {
		f.robots = util.NewRobotsChecker(f.userAgent, httpCfg.Timeout)
	}
	return f
}

// WithCache serves and stores extracted text through c
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// WithMetrics records fetch outcomes
func (f *Fetcher) WithMetrics(m *metrics.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// Fetch retrieves rawURL once. Failures are reported in the result's Error
// field; Fetch itself never fails.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.FetchResult {
	if f.cache != nil {
		if text, ok := f.cache.Get(ctx, cache.Key(rawURL)); ok {
			f.metrics.ObserveFetch(metrics.FetchCacheHit, 0)
			return model.FetchResult{URL: rawURL, Content: string(text)}
		}
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		f.metrics.ObserveFetch(metrics.FetchBlocked, 0)
		return model.FetchResult{URL: rawURL, Error: "disallowed by robots.txt"}
	}

	start := time.Now()
	text, err := f.fetchText(ctx, rawURL)
	took := time.Since(start)

	if err != nil {
		f.metrics.ObserveFetch(metrics.FetchError, took)
		f.log.Warn().Err(err).Str("url", rawURL).Dur("took", took).Msg("fetch failed")
		return model.FetchResult{URL: rawURL, Error: err.Error()}
	}

	f.metrics.ObserveFetch(metrics.FetchOK, took)
	f.log.Debug().Str("url", rawURL).Int("chars", len(text)).Dur("took", took).Msg("fetched")

	if f.cache != nil && text != "" {
		if err := f.cache.Set(ctx, cache.Key(rawURL), []byte(text), f.cacheTTL); err != nil {
			f.log.Warn().Err(err).Str("url", rawURL).Msg("cache write failed")
		}
	}

	return model.FetchResult{URL: rawURL, Content: text}
}

func (f *Fetcher) fetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text, err := f.extractor.Extract(string(raw), resp.Request.URL.String())
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	return text, nil
}
