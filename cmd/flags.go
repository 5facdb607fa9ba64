package cmd

import (
	"github.com/gnames/taxfinder/internal/iofs"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/llm"
	"github.com/gnames/taxfinder/pkg/templates"
	"github.com/spf13/cobra"
)

// processFlags folds the flags of the process command into the loaded
// configuration. Flags win over environment and file values.
func processFlags(cmd *cobra.Command) {
	var opts []config.Option

	if cmd.Flags().Changed("confidence") {
		f, _ := cmd.Flags().GetFloat64("confidence")
		opts = append(opts, config.OptConfidence(f))
	}
	if cmd.Flags().Changed("degraded") {
		b, _ := cmd.Flags().GetBool("degraded")
		opts = append(opts, config.OptDegradedMode(b))
	}
	if cmd.Flags().Changed("no-cache") {
		b, _ := cmd.Flags().GetBool("no-cache")
		opts = append(opts, config.OptINaturalistCacheEnabled(!b))
	}

	cfg.Update(opts)
}

// loadPrompts reads the system prompts of the two LLM phases and
// substitutes the configured locale. A prompt_file setting overrides
// the default file written next to taxfinder.yaml.
func loadPrompts() (extractor, enricher string, err error) {
	extPath := iofs.ExtractorPromptPath(homeDir)
	if cfg.LlmExtractor != nil && cfg.LlmExtractor.PromptFile != "" {
		extPath = cfg.LlmExtractor.PromptFile
	}
	extractor, err = iofs.ReadPrompt(extPath, templates.ExtractorPrompt)
	if err != nil {
		return "", "", err
	}

	enrPath := iofs.EnricherPromptPath(homeDir)
	if cfg.LlmEnricher != nil && cfg.LlmEnricher.PromptFile != "" {
		enrPath = cfg.LlmEnricher.PromptFile
	}
	enricher, err = iofs.ReadPrompt(enrPath, templates.EnricherPrompt)
	if err != nil {
		return "", "", err
	}

	extractor = llm.Prompt(extractor, cfg.Locale)
	enricher = llm.Prompt(enricher, cfg.Locale)
	return extractor, enricher, nil
}
