// Package merge deduplicates candidates from all extractors into mention
// groups. Overlapping spans are resolved first, then candidates are
// grouped by lemma and compatible gazetteer taxon IDs.
package merge

import (
	"slices"
	"sort"

	"github.com/gnames/taxfinder/pkg/taxon"
)

// SkipCheck reports whether a candidate can be resolved from the
// gazetteer alone, letting its group bypass the upstream API.
type SkipCheck func(c taxon.Candidate) bool

// Candidates merges raw candidates into groups. Groups come out in the
// order their first member appears in the input after overlap
// resolution, which keeps the output deterministic.
func Candidates(cands []taxon.Candidate, skip SkipCheck) []taxon.Group {
	best := resolveOverlaps(cands)

	var order []*builder
	byLemma := make(map[string][]*builder)

	for _, c := range best {
		placed := false
		for _, b := range byLemma[c.Lemmatized] {
			if canMerge(c.GazetteerTaxonIDs, b.taxonIDs) {
				b.add(c)
				placed = true
				break
			}
		}
		if !placed {
			b := newBuilder(c)
			byLemma[c.Lemmatized] = append(byLemma[c.Lemmatized], b)
			order = append(order, b)
		}
	}

	res := make([]taxon.Group, len(order))
	for i, b := range order {
		skipRes := false
		if skip != nil {
			for _, m := range b.members {
				if skip(m) {
					skipRes = true
					break
				}
			}
		}
		res[i] = b.build(skipRes)
	}
	return res
}

// resolveOverlaps keeps one candidate per cluster of overlapping spans.
// Spans overlap when the next one starts before the current cluster
// ends; candidates that merely touch stay separate.
func resolveOverlaps(cands []taxon.Candidate) []taxon.Candidate {
	if len(cands) == 0 {
		return nil
	}

	ordered := make([]taxon.Candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartChar != ordered[j].StartChar {
			return ordered[i].StartChar < ordered[j].StartChar
		}
		return ordered[i].EndChar < ordered[j].EndChar
	})

	var res []taxon.Candidate
	cluster := []taxon.Candidate{ordered[0]}
	clusterEnd := ordered[0].EndChar

	for _, c := range ordered[1:] {
		if c.StartChar < clusterEnd {
			cluster = append(cluster, c)
			clusterEnd = max(clusterEnd, c.EndChar)
			continue
		}
		res = append(res, selectBest(cluster))
		cluster = []taxon.Candidate{c}
		clusterEnd = c.EndChar
	}
	res = append(res, selectBest(cluster))
	return res
}

// selectBest picks the winner by confidence, then method priority, then
// span length. Earlier candidates win ties.
func selectBest(cands []taxon.Candidate) taxon.Candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if beats(c, best) {
			best = c
		}
	}
	return best
}

func beats(a, b taxon.Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Method.Priority() != b.Method.Priority() {
		return a.Method.Priority() > b.Method.Priority()
	}
	return a.EndChar-a.StartChar > b.EndChar-b.StartChar
}

// canMerge is true when either side has no gazetteer IDs or the two
// sets intersect.
func canMerge(a, b []int) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, id := range a {
		if slices.Contains(b, id) {
			return true
		}
	}
	return false
}

type builder struct {
	lemmatized  string
	normalized  string
	method      taxon.Method
	confidence  float64
	taxonIDs    []int
	occurrences []taxon.Occurrence
	members     []taxon.Candidate
}

func newBuilder(c taxon.Candidate) *builder {
	return &builder{
		lemmatized:  c.Lemmatized,
		normalized:  c.Normalized,
		method:      c.Method,
		confidence:  c.Confidence,
		taxonIDs:    slices.Clone(c.GazetteerTaxonIDs),
		occurrences: []taxon.Occurrence{c.Occurrence()},
		members:     []taxon.Candidate{c},
	}
}

func (b *builder) add(c taxon.Candidate) {
	b.occurrences = append(b.occurrences, c.Occurrence())
	b.members = append(b.members, c)
	b.taxonIDs = mergeIDs(b.taxonIDs, c.GazetteerTaxonIDs)

	// the representative is replaced unless it strictly beats the
	// newcomer
	rep := taxon.Candidate{
		Normalized: b.normalized,
		Lemmatized: b.lemmatized,
		Method:     b.method,
		Confidence: b.confidence,
	}
	if !beats(rep, c) {
		b.normalized = c.Normalized
		b.method = c.Method
		b.confidence = c.Confidence
	}
}

func (b *builder) build(skipResolution bool) taxon.Group {
	return taxon.Group{
		Normalized:        b.normalized,
		Lemmatized:        b.lemmatized,
		Method:            b.method,
		Confidence:        b.confidence,
		Occurrences:       slices.Clone(b.occurrences),
		GazetteerTaxonIDs: slices.Clone(b.taxonIDs),
		SkipResolution:    skipResolution,
	}
}

func mergeIDs(a, b []int) []int {
	if len(a) == 0 {
		return slices.Clone(b)
	}
	if len(b) == 0 {
		return slices.Clone(a)
	}
	res := slices.Clone(a)
	for _, id := range b {
		if !slices.Contains(res, id) {
			res = append(res, id)
		}
	}
	slices.Sort(res)
	return res
}
