// Package templates provides embedded configuration and prompt templates.
package templates

import _ "embed"

// ConfigYAML contains the default taxfinder.yaml template for application
// configuration.
//
//go:embed taxfinder.yaml
var ConfigYAML string

// ExtractorPrompt is the default system prompt of the LLM candidate
// extractor. The literal {{locale}} is replaced with the configured
// locale before use.
//
//go:embed llm_extractor.txt
var ExtractorPrompt string

// EnricherPrompt is the default system prompt of the LLM name enricher.
//
//go:embed llm_enricher.txt
var EnricherPrompt string
