// Package latin finds Latin binomial and trinomial names in text with a
// regular expression and filters out look-alikes: common Latin phrases
// and capitalized words after person titles.
package latin

import (
	"regexp"
	"strings"

	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/taxon"
)

var pattern = regexp.MustCompile(
	`\b[A-Z][a-z]+ [a-z]{2,}(?: [a-z]{2,})?\b`,
)

// titleRe captures a word directly before the match when it is separated
// by periods or whitespace only.
var titleRe = regexp.MustCompile(`([A-Za-z]+)[.\s]+$`)

var titles = map[string]struct{}{
	"mr":   {},
	"dr":   {},
	"prof": {},
	"von":  {},
	"van":  {},
}

// stopPhrases are Latin figures of speech that match the binomial
// pattern but never name a taxon.
var stopPhrases = []string{
	"et cetera",
	"ad libitum",
	"in situ",
	"ex vivo",
	"de facto",
	"pro rata",
	"per se",
	"ab initio",
	"status quo",
	"modus operandi",
	"alma mater",
	"anno domini",
}

// Extractor finds binomial candidates. The zero value is not usable,
// create it with New.
type Extractor struct {
	morph   norm.MorphAnalyzer
	isKnown func(lower string) bool
	stop    map[string]struct{}
}

// Option modifies an Extractor during construction.
type Option func(*Extractor)

// OptMorph sets the morphological analyzer used for lemmatization.
func OptMorph(m norm.MorphAnalyzer) Option {
	return func(e *Extractor) {
		e.morph = m
	}
}

// OptKnownName sets a predicate that reports whether a lowercased
// binomial occurs among the gazetteer's Latin names. Known names get
// higher confidence.
func OptKnownName(fn func(lower string) bool) Option {
	return func(e *Extractor) {
		e.isKnown = fn
	}
}

// OptStopPhrases replaces the default stop-phrase set.
func OptStopPhrases(phrases []string) Option {
	return func(e *Extractor) {
		e.stop = make(map[string]struct{})
		for _, p := range phrases {
			e.stop[strings.ToLower(p)] = struct{}{}
		}
	}
}

// New creates an Extractor with the default stop phrases.
func New(opts ...Option) *Extractor {
	res := &Extractor{}
	OptStopPhrases(stopPhrases)(res)
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Extract returns binomial candidates found in text. The sentences slice
// supplies source contexts; when no sentence covers a match the full
// line is used instead.
func (e *Extractor) Extract(
	text string,
	sentences []norm.Span,
) []taxon.Candidate {
	var res []taxon.Candidate
	for _, idx := range pattern.FindAllStringIndex(text, -1) {
		start, end := idx[0], idx[1]
		srcText := text[start:end]
		lower := strings.ToLower(srcText)

		if !allWordsLong(srcText) {
			continue
		}
		if _, ok := e.stop[lower]; ok {
			continue
		}
		if hasPersonTitle(text, start) {
			continue
		}

		known := e.isKnown != nil && e.isKnown(lower)
		confidence := 0.7
		if known {
			confidence = 0.9
		}

		res = append(res, taxon.Candidate{
			SourceText:    srcText,
			SourceContext: norm.Context(sentences, text, start),
			LineNumber:    norm.LineNumber(text, start),
			StartChar:     start,
			EndChar:       end,
			Normalized:    norm.Normalize(srcText),
			Lemmatized:    norm.Lemmatize(srcText, e.morph),
			Method:        taxon.MethodLatinRegex,
			Confidence:    confidence,
		})
	}
	return res
}

// allWordsLong rejects matches with any word shorter than 3 letters.
func allWordsLong(s string) bool {
	for _, w := range strings.Fields(s) {
		if len(w) < 3 {
			return false
		}
	}
	return true
}

func hasPersonTitle(text string, start int) bool {
	m := titleRe.FindStringSubmatch(text[:start])
	if m == nil {
		return false
	}
	_, ok := titles[strings.ToLower(m[1])]
	return ok
}
