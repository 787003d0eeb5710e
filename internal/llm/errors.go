package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotFound marks an invocation failure caused by an unknown or unavailable model
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyInput is returned when there is no fetched content to build a prompt from
	ErrEmptyInput = errors.New("no content could be scraped from the provided URLs")
)

// Generation failure reasons
const (
	ReasonNoAvailableModel = "no available model"
	ReasonInvalidResponse  = "invalid response structure"
	ReasonBackend          = "backend failure"
)

// GenerationError describes why a brief analysis could not be produced
type GenerationError struct {
	Reason string
	Model  string // candidate that failed; empty when the list was exhausted
	Err    error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Reason == ReasonNoAvailableModel && e.Err != nil:
		return fmt.Sprintf("%s, last error: %v", e.Reason, e.Err)
	case e.Reason == ReasonNoAvailableModel:
		return e.Reason
	case e.Err != nil:
		return fmt.Sprintf("%s from %s: %v", e.Reason, e.Model, e.Err)
	default:
		return fmt.Sprintf("%s from %s", e.Reason, e.Model)
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// notFoundError tags a backend error as a missing model while keeping its text
type notFoundError struct {
	err error
}

func (e *notFoundError) Error() string { return e.err.Error() }

func (e *notFoundError) Unwrap() []error { return []error{ErrModelNotFound, e.err} }

func modelNotFound(err error) error {
	return &notFoundError{err: err}
}
