package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/sourcebrief/internal/model"
)

const sourceSeparator = "\n\n---\n\n"

const promptTemplate = `You are a research assistant. Analyze the following content from multiple sources and create a comprehensive research brief.

%s

You MUST respond with ONLY valid JSON in this exact format (no markdown, no code blocks, no additional text):

{
  "summary": "A comprehensive summary of the main topic and findings",
  "key_points": ["Array of key points extracted from the sources"],
  "conflicting_claims": ["Array of any conflicting information found between sources"],
  "what_to_verify": ["Array of claims or information that should be independently verified"],
  "citations": [
    {
      "source": "URL of the source",
      "snippet": "Relevant quote or information from the source",
      "used_for": "What this citation supports in the research"
    }
  ],
  "topic_tags": ["Array of relevant topic tags"]
}

Respond with ONLY the JSON object. Do not include any other text, markdown formatting, or code blocks.`

// BuildPrompt merges the successful fetch results, in order, into one analysis request
func BuildPrompt(results []model.FetchResult) (string, error) {
	sources := model.Successful(results)
	if len(sources) == 0 {
		return "", ErrEmptyInput
	}

	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("Source: %s\n\n%s", s.URL, s.Content)
	}

	return fmt.Sprintf(promptTemplate, strings.Join(blocks, sourceSeparator)), nil
}
