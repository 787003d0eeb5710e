package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/sourcebrief/internal/model"
)

func TestRobotsChecker_Allowed(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&hits, 1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRobotsChecker(model.DefaultUserAgent, time.Second)
	ctx := context.Background()

	if !rc.Allowed(ctx, srv.URL+"/public/page") {
		t.Error("expected /public/page to be allowed")
	}
	if rc.Allowed(ctx, srv.URL+"/private/page") {
		t.Error("expected /private/page to be disallowed")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestRobotsChecker_MissingFileAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker(model.DefaultUserAgent, time.Second)
	if !rc.Allowed(context.Background(), srv.URL+"/anything") {
		t.Error("missing robots.txt should allow everything")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	rc := NewRobotsChecker(model.DefaultUserAgent, 200*time.Millisecond)
	if !rc.Allowed(context.Background(), "http://127.0.0.1:1/page") {
		t.Error("unreachable host should be allowed")
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		model.DefaultUserAgent: "Mozilla",
		"sourcebrief/1.0":      "sourcebrief",
		"":                     "",
	}
	for in, want := range tests {
		if got := ProductToken(in); got != want {
			t.Errorf("ProductToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProxyFunc(t *testing.T) {
	cfg := model.HTTPConfig{HTTPProxy: "http://proxy:3128", HTTPSProxy: "http://secure-proxy:3128"}
	fn := ProxyFunc(cfg)

	req := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	u, err := fn(req)
	if err != nil || u.Host != "secure-proxy:3128" {
		t.Errorf("https proxy = %v, %v", u, err)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	u, err = fn(req)
	if err != nil || u.Host != "proxy:3128" {
		t.Errorf("http proxy = %v, %v", u, err)
	}
}
