package util

import (
	"net/http"
	"net/url"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// ProxyFunc returns the transport proxy selector for source fetches.
// Without explicit proxies it defers to HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
func ProxyFunc(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && cfg.HTTPSProxy != "":
			return url.Parse(cfg.HTTPSProxy)
		case cfg.HTTPProxy != "":
			return url.Parse(cfg.HTTPProxy)
		default:
			return http.ProxyFromEnvironment(req)
		}
	}
}
