package iopipeline

import (
	"github.com/gnames/taxfinder/internal/ioextract"
	"github.com/gnames/taxfinder/pkg/chunk"
	"github.com/gnames/taxfinder/pkg/events"
	"github.com/gnames/taxfinder/pkg/latin"
	"github.com/gnames/taxfinder/pkg/norm"
)

// Estimate runs the offline extractors and the chunker to predict the
// work of a real run. No network or LLM calls are made.
func (p *pipe) Estimate(text string) (events.Estimate, error) {
	var res events.Estimate
	sentences := norm.Sentences(text)

	gazCount := 0
	if p.store != nil {
		gazExt, err := ioextract.NewGazetteer(
			p.store, p.cfg.Locale, p.morph,
		)
		if err != nil {
			return res, err
		}
		gazCount = len(gazExt.Extract(text, sentences))
	}

	latinExt := latin.New(latin.OptMorph(p.morph))
	regexCount := len(latinExt.Extract(text, sentences))

	llmCalls := 0
	if p.cfg.LlmExtractor != nil && p.cfg.LlmExtractor.Enabled {
		chunks, err := chunk.Split(
			text,
			chunk.Strategy(p.cfg.LlmExtractor.ChunkStrategy),
			p.cfg.LlmExtractor.MinChunkWords,
			p.cfg.LlmExtractor.MaxChunkWords,
			func(t string) []string {
				spans := norm.Sentences(t)
				parts := make([]string, len(spans))
				for i, s := range spans {
					parts[i] = s.Text
				}
				return parts
			},
		)
		if err != nil {
			return res, err
		}
		llmCalls = len(chunks)
	}

	unique := gazCount + regexCount
	if unique < 1 {
		unique = 1
	}
	apiCalls := unique - gazCount
	if apiCalls < 0 {
		apiCalls = 0
	}

	res = events.Estimate{
		Candidates:     gazCount + regexCount,
		UniqueGroups:   unique,
		SkipResolution: gazCount,
		ApiCalls:       apiCalls,
		LlmCalls:       llmCalls,
		Seconds:        float64(apiCalls)*1.0 + float64(llmCalls)*2.0,
	}
	return res, nil
}
