// Package ioextract finds taxon candidates in text. The gazetteer
// extractor matches token phrases against known common names, the LLM
// extractor asks a language model chunk by chunk.
package ioextract

import (
	"sort"
	"strings"

	"github.com/gnames/taxfinder/pkg/gazetteer"
	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/taxon"
)

// GazetteerExtractor finds candidates by matching token windows of the
// text against common-name patterns loaded from the gazetteer.
type GazetteerExtractor struct {
	mappings gazetteer.NameMappings
	morph    norm.MorphAnalyzer

	// patterns maps a lowercased token-joined phrase to its presence,
	// lengths holds the distinct token counts of all patterns.
	patterns map[string]struct{}
	lengths  []int
}

// NewGazetteer loads name mappings for the locale and compiles the
// phrase patterns.
func NewGazetteer(
	store gazetteer.Store,
	locale string,
	morph norm.MorphAnalyzer,
) (*GazetteerExtractor, error) {
	mappings, err := store.NameMappings(locale)
	if err != nil {
		return nil, err
	}

	res := &GazetteerExtractor{
		mappings: mappings,
		morph:    morph,
		patterns: make(map[string]struct{}),
	}

	seenLen := make(map[int]bool)
	for _, pattern := range mappings.Patterns() {
		tokens := norm.Tokens(pattern)
		if len(tokens) == 0 {
			continue
		}
		words := make([]string, len(tokens))
		for i, tok := range tokens {
			words[i] = strings.ToLower(tok.Text)
		}
		res.patterns[strings.Join(words, " ")] = struct{}{}
		if !seenLen[len(tokens)] {
			seenLen[len(tokens)] = true
			res.lengths = append(res.lengths, len(tokens))
		}
	}
	return res, nil
}

// Extract returns one candidate per matched span. When several
// patterns hit the same span their taxon IDs are merged and the higher
// confidence wins.
func (g *GazetteerExtractor) Extract(
	text string,
	sentences []norm.Span,
) []taxon.Candidate {
	tokens := norm.Tokens(text)
	lower := make([]string, len(tokens))
	for i, tok := range tokens {
		lower[i] = strings.ToLower(tok.Text)
	}

	type spanKey struct{ start, end int }
	bySpan := make(map[spanKey]*taxon.Candidate)
	var order []spanKey

	for i := range tokens {
		for _, n := range g.lengths {
			if i+n > len(tokens) {
				continue
			}
			phrase := strings.Join(lower[i:i+n], " ")
			if _, ok := g.patterns[phrase]; !ok {
				continue
			}

			start := tokens[i].Start
			end := tokens[i+n-1].End
			surface := text[start:end]
			normalized := norm.Normalize(surface)
			lemmatized := norm.Lemmatize(surface, g.morph)

			ids, exact := g.taxonIDs(normalized, lemmatized)
			if len(ids) == 0 {
				continue
			}

			cand := taxon.Candidate{
				SourceText:        surface,
				SourceContext:     norm.Context(sentences, text, start),
				LineNumber:        norm.LineNumber(text, start),
				StartChar:         start,
				EndChar:           end,
				Normalized:        normalized,
				Lemmatized:        lemmatized,
				Method:            taxon.MethodGazetteer,
				Confidence:        gazetteerConfidence(exact, len(ids)),
				GazetteerTaxonIDs: ids,
			}

			key := spanKey{start, end}
			existing, ok := bySpan[key]
			if !ok {
				bySpan[key] = &cand
				order = append(order, key)
				continue
			}
			merged := unionIDs(existing.GazetteerTaxonIDs, ids)
			if cand.Confidence > existing.Confidence {
				cand.GazetteerTaxonIDs = merged
				*existing = cand
			} else {
				existing.GazetteerTaxonIDs = merged
			}
		}
	}

	res := make([]taxon.Candidate, 0, len(order))
	for _, key := range order {
		res = append(res, *bySpan[key])
	}
	return res
}

// taxonIDs looks the span up by its normalized form first, then by the
// lemmatized one. The second return value reports an exact hit.
func (g *GazetteerExtractor) taxonIDs(
	normalized, lemmatized string,
) ([]int, bool) {
	if ids, ok := g.mappings.Normalized[normalized]; ok {
		return ids, true
	}
	if ids, ok := g.mappings.Lemmatized[lemmatized]; ok {
		return ids, false
	}
	return nil, false
}

func gazetteerConfidence(exact bool, taxonCount int) float64 {
	if exact {
		if taxonCount == 1 {
			return 1.0
		}
		return 0.8
	}
	if taxonCount == 1 {
		return 0.9
	}
	return 0.7
}

func unionIDs(a, b []int) []int {
	seen := make(map[int]bool)
	var res []int
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			res = append(res, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			res = append(res, id)
		}
	}
	sort.Ints(res)
	return res
}
