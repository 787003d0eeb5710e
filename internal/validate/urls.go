package validate

import (
	"fmt"
	"net/url"
)

// Result is the outcome of validating a batch of candidate URLs
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// URL reports whether raw parses with both a scheme and a host.
// No normalization is applied.
func URL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}

// Validate checks a batch, producing one message per malformed entry in input order
func Validate(urls []string) Result {
	errs := []string{}

	if len(urls) == 0 {
		errs = append(errs, "At least one URL is required")
	}

	for i, u := range urls {
		if !URL(u) {
			errs = append(errs, fmt.Sprintf("Invalid URL at line %d: %s", i+1, u))
		}
	}

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}
