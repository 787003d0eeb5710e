package model

import "time"

// FetchResult is the outcome of retrieving one source URL.
// A failed fetch carries an Error and empty Content; it is never returned as a Go error.
type FetchResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Succeeded reports whether the fetch produced usable content
func (r FetchResult) Succeeded() bool {
	return r.Content != "" && r.Error == ""
}

// Successful filters a batch down to the results with usable content, preserving order
func Successful(results []FetchResult) []FetchResult {
	var out []FetchResult
	for _, r := range results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Citation ties a statement in the brief back to a source.
// Source is expected (not enforced) to be one of the input URLs.
type Citation struct {
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
	UsedFor string `json:"used_for"`
}

// AnalysisResult is the structured output of the generation backend
type AnalysisResult struct {
	Summary           string     `json:"summary"`
	KeyPoints         []string   `json:"key_points"`
	ConflictingClaims []string   `json:"conflicting_claims"`
	WhatToVerify      []string   `json:"what_to_verify"`
	Citations         []Citation `json:"citations"`
	TopicTags         []string   `json:"topic_tags"`
}

// BriefInput is the shape accepted by a brief store
type BriefInput struct {
	URLs []string `json:"urls"`
	AnalysisResult
}

// ResearchBrief is a persisted brief. It is created once and never updated.
type ResearchBrief struct {
	ID   string   `json:"id"`
	URLs []string `json:"urls"`
	AnalysisResult
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
