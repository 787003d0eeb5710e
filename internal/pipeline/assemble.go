package pipeline

import "github.com/ppiankov/sourcebrief/internal/model"

// Assemble merges the submitted URLs with an analysis into the store's input shape.
// URLs are kept exactly as submitted, including failed ones and duplicates.
func Assemble(urls []string, analysis model.AnalysisResult) model.BriefInput {
	return model.BriefInput{
		URLs: append([]string(nil), urls...),
		AnalysisResult: model.AnalysisResult{
			Summary:           analysis.Summary,
			KeyPoints:         orEmpty(analysis.KeyPoints),
			ConflictingClaims: orEmpty(analysis.ConflictingClaims),
			WhatToVerify:      orEmpty(analysis.WhatToVerify),
			Citations:         citationsOrEmpty(analysis.Citations),
			TopicTags:         orEmpty(analysis.TopicTags),
		},
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func citationsOrEmpty(c []model.Citation) []model.Citation {
	if c == nil {
		return []model.Citation{}
	}
	return c
}
