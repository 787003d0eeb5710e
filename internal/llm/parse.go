package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/sourcebrief/internal/model"
)

var (
	jsonFenceOpen = regexp.MustCompile("^```json\\s*")
	fenceOpen     = regexp.MustCompile("^```\\s*")
	fenceClose    = regexp.MustCompile("```\\s*$")
)

// StripFences removes a surrounding markdown code fence, if any
func StripFences(text string) string {
	s := strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(s, "```json"):
		s = fenceClose.ReplaceAllString(jsonFenceOpen.ReplaceAllString(s, ""), "")
	case strings.HasPrefix(s, "```"):
		s = fenceClose.ReplaceAllString(fenceOpen.ReplaceAllString(s, ""), "")
	}

	return strings.TrimSpace(s)
}

// analysisPayload keeps the list fields raw so their shape can be checked
// separately from their contents
type analysisPayload struct {
	Summary           string          `json:"summary"`
	KeyPoints         json.RawMessage `json:"key_points"`
	ConflictingClaims json.RawMessage `json:"conflicting_claims"`
	WhatToVerify      json.RawMessage `json:"what_to_verify"`
	Citations         json.RawMessage `json:"citations"`
	TopicTags         json.RawMessage `json:"topic_tags"`
}

// ParseAnalysis decodes and validates a model answer. The summary must be
// non-empty and key_points and citations must be arrays. The other lists
// are optional: anything that is not an array becomes empty.
func ParseAnalysis(text string) (*model.AnalysisResult, error) {
	var p analysisPayload
	if err := json.Unmarshal([]byte(StripFences(text)), &p); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if p.Summary == "" {
		return nil, errors.New("missing summary")
	}
	keyPoints, ok := rawArray(p.KeyPoints)
	if !ok {
		return nil, errors.New("key_points is not an array")
	}
	citations, ok := rawArray(p.Citations)
	if !ok {
		return nil, errors.New("citations is not an array")
	}

	return &model.AnalysisResult{
		Summary:           p.Summary,
		KeyPoints:         stringItems(keyPoints),
		ConflictingClaims: optionalStrings(p.ConflictingClaims),
		WhatToVerify:      optionalStrings(p.WhatToVerify),
		Citations:         citationItems(citations),
		TopicTags:         optionalStrings(p.TopicTags),
	}, nil
}

// rawArray splits a JSON array into its elements. ok is false for a
// missing, null or non-array value.
func rawArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil, false
	}
	return items, true
}

func optionalStrings(raw json.RawMessage) []string {
	items, _ := rawArray(raw)
	return stringItems(items)
}

// stringItems keeps string elements as they are and renders other scalars
// by their JSON text. Nulls are dropped.
func stringItems(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		if text := strings.TrimSpace(string(item)); text != "null" {
			out = append(out, text)
		}
	}
	return out
}

// citationItems drops elements that are not citation objects
func citationItems(items []json.RawMessage) []model.Citation {
	out := make([]model.Citation, 0, len(items))
	for _, item := range items {
		var c model.Citation
		if err := json.Unmarshal(item, &c); err == nil && strings.HasPrefix(strings.TrimSpace(string(item)), "{") {
			out = append(out, c)
		}
	}
	return out
}
