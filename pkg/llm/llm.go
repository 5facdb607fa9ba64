// Package llm defines the contract of a large-language-model backend
// and the tolerant JSON handling for its replies. Provider clients
// (Ollama, OpenAI, Anthropic) live in internal/iollm.
package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/gnames/gnfmt"
)

// Client sends one completion request to an LLM backend.
type Client interface {
	// Complete sends a system prompt and user content. A non-nil schema
	// asks the backend for structured JSON output. The reply is the raw
	// model text.
	Complete(
		ctx context.Context,
		systemPrompt, userContent string,
		schema map[string]any,
	) (string, error)
}

// ExtractorSchema describes the reply of the candidate extractor: a
// list of {name, context} objects.
func ExtractorSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"candidates": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":    map[string]any{"type": "string"},
						"context": map[string]any{"type": "string"},
					},
					"required": []string{"name", "context"},
				},
			},
		},
		"required": []string{"candidates"},
	}
}

// EnricherSchema describes the reply of the name enricher: three string
// lists with alternative names.
func EnricherSchema() map[string]any {
	strList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"common_names_loc": strList,
			"common_names_en":  strList,
			"latin_names":      strList,
		},
		"required": []string{
			"common_names_loc", "common_names_en", "latin_names",
		},
	}
}

var (
	fenceRe         = regexp.MustCompile("^```[a-zA-Z]*\n")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseJSON decodes a model reply into v, tolerating the two most
// common LLM formatting faults: Markdown code fences around the JSON
// and trailing commas before a closing bracket.
func ParseJSON(raw string, v any) error {
	enc := gnfmt.GNjson{}
	cleaned := StripFences(raw)
	err := enc.Decode([]byte(cleaned), v)
	if err == nil {
		return nil
	}
	repaired := trailingCommaRe.ReplaceAllString(cleaned, "$1")
	return enc.Decode([]byte(repaired), v)
}

// StripFences removes a Markdown code fence wrapping the reply.
func StripFences(text string) string {
	if strings.HasPrefix(text, "```") {
		text = fenceRe.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// Prompt substitutes the locale placeholder in a prompt template.
func Prompt(template, locale string) string {
	return strings.ReplaceAll(template, "{{locale}}", locale)
}

// Attempts converts a configured retry count into the number of tries.
// A zero or negative count falls back to 3 tries, two retries after the
// first attempt.
func Attempts(maxRetries int) int {
	if maxRetries <= 0 {
		return 3
	}
	return maxRetries + 1
}
