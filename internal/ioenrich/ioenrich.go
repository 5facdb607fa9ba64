// Package ioenrich asks a language model for alternative names of a
// candidate the upstream search could not identify. The reply feeds
// another round of searches.
package ioenrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gnames/taxfinder/pkg/llm"
	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/taxon"
)

// Enricher produces alternative names for unresolved candidate groups.
type Enricher struct {
	client       llm.Client
	systemPrompt string
	attempts     int
}

// New creates an Enricher. The system prompt must already have its
// locale placeholder substituted; maxRetries of zero falls back to the
// default retry count.
func New(client llm.Client, systemPrompt string, maxRetries int) *Enricher {
	return &Enricher{
		client:       client,
		systemPrompt: systemPrompt,
		attempts:     llm.Attempts(maxRetries),
	}
}

// Enrich sends the candidate with its expanded sentence context to the
// model. A model that keeps failing yields an empty Enrichment, the
// group simply stays unidentified.
func (e *Enricher) Enrich(
	ctx context.Context,
	text string,
	group taxon.Group,
	sentences []norm.Span,
) taxon.Enrichment {
	candidate := group.Normalized
	needle := candidate
	var occ *taxon.Occurrence
	if len(group.Occurrences) > 0 {
		occ = &group.Occurrences[0]
		needle = occ.SourceText
	}
	start, end := findSpan(text, needle)

	expanded := expandedContext(text, start, end, sentences, occ)
	userContent := "Candidate: " + candidate + "\nContext: " + expanded

	reply := e.callLlm(ctx, userContent)
	return taxon.Enrichment{
		CommonNamesLoc: filterNames(reply.CommonNamesLoc, candidate),
		CommonNamesEn:  filterNames(reply.CommonNamesEn, ""),
		LatinNames:     filterNames(reply.LatinNames, ""),
	}
}

type enrichReply struct {
	CommonNamesLoc []string `json:"common_names_loc"`
	CommonNamesEn  []string `json:"common_names_en"`
	LatinNames     []string `json:"latin_names"`
}

func (e *Enricher) callLlm(ctx context.Context, userContent string) enrichReply {
	var lastErr error
	for attempt := range e.attempts {
		raw, err := e.client.Complete(
			ctx, e.systemPrompt, userContent, llm.EnricherSchema(),
		)
		if err == nil {
			var reply enrichReply
			if err = llm.ParseJSON(raw, &reply); err == nil {
				return reply
			}
		}
		lastErr = err
		slog.Warn(
			"LLM enricher reply not usable",
			"attempt", attempt+1, "error", err,
		)
	}
	slog.Warn("LLM enrichment skipped", "error", lastErr)
	return enrichReply{}
}

// filterNames trims, drops empties and duplicates, and removes names
// equal to the originating candidate's normalized form.
func filterNames(names []string, candidate string) []string {
	candidateNorm := ""
	if candidate != "" {
		candidateNorm = norm.Normalize(candidate)
	}

	var res []string
	seen := make(map[string]bool)
	for _, item := range names {
		name := strings.TrimSpace(item)
		if name == "" {
			continue
		}
		if candidateNorm != "" && norm.Normalize(name) == candidateNorm {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		res = append(res, name)
	}
	return res
}

// expandedContext concatenates the sentence holding the span with its
// neighbors. Without a locatable sentence, falls back to the
// occurrence's own context, then to the line.
func expandedContext(
	text string,
	start, end int,
	sentences []norm.Span,
	occ *taxon.Occurrence,
) string {
	if len(sentences) > 0 {
		idx := norm.SentenceIndex(sentences, start, end)
		if idx >= 0 {
			var parts []string
			for _, offset := range []int{-1, 0, 1} {
				i := idx + offset
				if i >= 0 && i < len(sentences) {
					parts = append(parts, sentences[i].Text)
				}
			}
			return strings.Join(parts, " ")
		}
	}

	if occ != nil && occ.SourceContext != "" {
		return occ.SourceContext
	}
	return norm.LineContext(text, start)
}

func findSpan(text, needle string) (int, int) {
	idx := strings.Index(text, needle)
	if idx == -1 {
		idx = strings.Index(
			strings.ToLower(text), strings.ToLower(needle),
		)
	}
	if idx == -1 {
		return 0, len(needle)
	}
	return idx, idx + len(needle)
}
