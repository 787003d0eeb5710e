package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScrapeFailure means no submitted URL produced usable content
var ErrScrapeFailure = errors.New("could not scrape content from any of the provided URLs")

// ValidationError lists every malformed input URL
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid URLs: " + strings.Join(e.Messages, "; ")
}

// StoreError wraps a persistence failure
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
