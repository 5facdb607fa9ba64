// Package format renders final results as JSON. Two shapes share one
// envelope: deduplicated (one entry per mention with a count) and full
// (one entry per occurrence).
package format

import (
	"github.com/gnames/gnfmt"
	"github.com/gnames/taxfinder/pkg/taxon"
)

// Version is the envelope format version.
const Version = "1.0"

type envelope struct {
	Version string `json:"version"`
	Results any    `json:"results"`
}

type dedupEntry struct {
	taxon.Result
	Count int `json:"count"`
}

type fullEntry struct {
	LineNumber           int               `json:"line_number"`
	SourceText           string            `json:"source_text"`
	SourceContext        string            `json:"source_context"`
	Identified           bool              `json:"identified"`
	ExtractionConfidence float64           `json:"extraction_confidence"`
	ExtractionMethod     taxon.Method      `json:"extraction_method"`
	Matches              []taxon.Match     `json:"matches"`
	CandidateNames       []string          `json:"candidate_names"`
	Reason               string            `json:"reason"`
	LlmResponse          *taxon.Enrichment `json:"llm_response"`
}

// Deduplicated renders one entry per mention, each carrying its
// occurrence count.
func Deduplicated(results []taxon.Result, pretty bool) ([]byte, error) {
	entries := make([]dedupEntry, len(results))
	for i, r := range results {
		entries[i] = dedupEntry{Result: withoutNils(r), Count: r.Count()}
	}
	return encode(entries, pretty)
}

// Full renders one entry per occurrence, repeating the identification
// data of the mention.
func Full(results []taxon.Result, pretty bool) ([]byte, error) {
	var entries []fullEntry
	for _, r := range results {
		r = withoutNils(r)
		for _, occ := range r.Occurrences {
			entries = append(entries, fullEntry{
				LineNumber:           occ.LineNumber,
				SourceText:           occ.SourceText,
				SourceContext:        occ.SourceContext,
				Identified:           r.Identified,
				ExtractionConfidence: r.ExtractionConfidence,
				ExtractionMethod:     r.ExtractionMethod,
				Matches:              r.Matches,
				CandidateNames:       r.CandidateNames,
				Reason:               r.Reason,
				LlmResponse:          r.LlmResponse,
			})
		}
	}
	if entries == nil {
		entries = []fullEntry{}
	}
	return encode(entries, pretty)
}

func encode(results any, pretty bool) ([]byte, error) {
	enc := gnfmt.GNjson{Pretty: pretty}
	return enc.Encode(envelope{Version: Version, Results: results})
}

// withoutNils replaces nil slices so empty lists marshal as [] and not
// null.
func withoutNils(r taxon.Result) taxon.Result {
	if r.Occurrences == nil {
		r.Occurrences = []taxon.Occurrence{}
	}
	if r.Matches == nil {
		r.Matches = []taxon.Match{}
	}
	if r.CandidateNames == nil {
		r.CandidateNames = []string{}
	}
	for i := range r.Matches {
		if r.Matches[i].Names == nil {
			r.Matches[i].Names = []string{}
		}
	}
	return r
}
