// Package taxon defines the data model of the extraction and resolution
// pipeline: mentions found in text (Candidate, Occurrence), merged mention
// groups, and identification results coming from the gazetteer or the
// upstream taxon API.
package taxon

// Method tags the extractor that produced a candidate.
type Method string

const (
	MethodGazetteer  Method = "gazetteer"
	MethodLatinRegex Method = "latin_regex"
	MethodLlm        Method = "llm"
)

// Priority returns the tie-breaking weight of the extraction method.
// Gazetteer beats the Latin regex which beats the LLM.
func (m Method) Priority() int {
	switch m {
	case MethodGazetteer:
		return 3
	case MethodLatinRegex:
		return 2
	case MethodLlm:
		return 1
	}
	return 0
}

// Candidate is a single mention found by one extractor. It is immutable
// after creation and consumed by the merger.
//
// Invariants: 0 <= StartChar < EndChar <= len(text) and LineNumber equals
// the count of newlines in text[0:StartChar] plus one.
type Candidate struct {
	SourceText        string  `json:"source_text"`
	SourceContext     string  `json:"source_context"`
	LineNumber        int     `json:"line_number"`
	StartChar         int     `json:"start_char"`
	EndChar           int     `json:"end_char"`
	Normalized        string  `json:"normalized"`
	Lemmatized        string  `json:"lemmatized"`
	Method            Method  `json:"method"`
	Confidence        float64 `json:"confidence"`
	GazetteerTaxonIDs []int   `json:"gazetteer_taxon_ids"`
}

// Occurrence returns the position-only view of the candidate.
func (c Candidate) Occurrence() Occurrence {
	return Occurrence{
		LineNumber:    c.LineNumber,
		SourceText:    c.SourceText,
		SourceContext: c.SourceContext,
	}
}

// Occurrence is one position of a mention in the input text.
type Occurrence struct {
	LineNumber    int    `json:"line_number"`
	SourceText    string `json:"source_text"`
	SourceContext string `json:"source_context"`
}

// Group is a set of candidates merged by lemma and compatible taxon IDs.
// All members share Lemmatized; Normalized, Method and Confidence come
// from the representative (best) member.
type Group struct {
	Normalized        string       `json:"normalized"`
	Lemmatized        string       `json:"lemmatized"`
	Method            Method       `json:"method"`
	Confidence        float64      `json:"confidence"`
	Occurrences       []Occurrence `json:"occurrences"`
	GazetteerTaxonIDs []int        `json:"gazetteer_taxon_ids"`

	// SkipResolution is true when the group can be resolved from the
	// gazetteer alone, bypassing the upstream API.
	SkipResolution bool `json:"skip_resolution"`
}

// Taxonomy carries the seven canonical rank names. A nil field means the
// rank is unknown. The class rank is spelled "class" on the wire.
type Taxonomy struct {
	Kingdom *string `json:"kingdom"`
	Phylum  *string `json:"phylum"`
	Class   *string `json:"class"`
	Order   *string `json:"order"`
	Family  *string `json:"family"`
	Genus   *string `json:"genus"`
	Species *string `json:"species"`
}

// SetRank assigns name to the rank field named by rank. Unknown ranks are
// ignored.
func (t *Taxonomy) SetRank(rank, name string) {
	if rank == "" || name == "" {
		return
	}
	switch rank {
	case "kingdom":
		t.Kingdom = &name
	case "phylum":
		t.Phylum = &name
	case "class":
		t.Class = &name
	case "order":
		t.Order = &name
	case "family":
		t.Family = &name
	case "genus":
		t.Genus = &name
	case "species":
		t.Species = &name
	}
}

// Match is one candidate identification, either parsed from the upstream
// search API or synthesized from a gazetteer record.
type Match struct {
	TaxonID int    `json:"taxon_id"`
	Name    string `json:"taxon_name"`
	Rank    string `json:"taxon_rank"`

	Taxonomy Taxonomy `json:"taxonomy"`

	CommonNameEn  *string `json:"taxon_common_name_en"`
	CommonNameLoc *string `json:"taxon_common_name_loc"`

	// MatchedName is the upstream name the query matched against.
	MatchedName string `json:"taxon_matched_name"`

	// URL points at the taxon page; when synthesized locally it ends
	// with "/taxa/{TaxonID}".
	URL string `json:"taxon_url"`

	Score float64 `json:"score"`

	// Names lists every name the upstream surfaced for this taxon,
	// preserved in upstream order.
	Names []string `json:"taxon_names"`
}

// Enrichment is the LLM response with alternative names for an unresolved
// group. All three lists are ordered, deduplicated, and never contain the
// originating candidate's normalized form or empty strings.
type Enrichment struct {
	CommonNamesLoc []string `json:"common_names_loc"`
	CommonNamesEn  []string `json:"common_names_en"`
	LatinNames     []string `json:"latin_names"`
}

// AllNames returns the three lists concatenated in order: locale common
// names, English common names, Latin names.
func (e Enrichment) AllNames() []string {
	res := make([]string, 0,
		len(e.CommonNamesLoc)+len(e.CommonNamesEn)+len(e.LatinNames))
	res = append(res, e.CommonNamesLoc...)
	res = append(res, e.CommonNamesEn...)
	res = append(res, e.LatinNames...)
	return res
}

// Resolved pairs a group with the outcome of its resolution.
type Resolved struct {
	Group   Group   `json:"group"`
	Matches []Match `json:"matches"`

	Identified bool `json:"identified"`

	// LlmResponse is set when the enricher ran for this group.
	LlmResponse *Enrichment `json:"llm_response"`

	// CandidateNames lists the names tried when the group stayed
	// unidentified.
	CandidateNames []string `json:"candidate_names"`

	// Reason explains an unidentified outcome; empty when Identified.
	Reason string `json:"reason"`
}

// Result is the public per-mention output of the pipeline.
type Result struct {
	SourceText           string       `json:"source_text"`
	Identified           bool         `json:"identified"`
	ExtractionConfidence float64      `json:"extraction_confidence"`
	ExtractionMethod     Method       `json:"extraction_method"`
	Occurrences          []Occurrence `json:"occurrences"`
	Matches              []Match      `json:"matches"`
	LlmResponse          *Enrichment  `json:"llm_response"`
	CandidateNames       []string     `json:"candidate_names"`
	Reason               string       `json:"reason"`
}

// Count is the number of occurrences of the mention.
func (r Result) Count() int {
	return len(r.Occurrences)
}
