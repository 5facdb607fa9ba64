// Package identify decides whether upstream matches actually identify a
// mention group, and combines match lists from repeated searches.
package identify

import (
	"sort"

	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/taxon"
)

// Unidentified reasons shown to the user.
const (
	ReasonNoMatches  = "No matches in iNaturalist"
	ReasonAmbiguous  = "Multiple candidate taxa found"
	ReasonNotMatched = "Common name not matched"
)

// MaxMatches caps the number of matches kept per group.
const MaxMatches = 5

// Resolver decides identification for a group given its matches.
type Resolver interface {
	Resolve(group taxon.Group, matches []taxon.Match) (bool, string)
}

type resolver struct {
	morph norm.MorphAnalyzer
}

// New creates the default Resolver. The group is identified when its
// normalized or lemmatized form equals any name of a match after
// normalization or lemmatization.
func New(morph norm.MorphAnalyzer) Resolver {
	return &resolver{morph: morph}
}

// Resolve returns (true, "") on identification, otherwise false with a
// user-facing reason.
func (r *resolver) Resolve(
	group taxon.Group,
	matches []taxon.Match,
) (bool, string) {
	if len(matches) == 0 {
		return false, ReasonNoMatches
	}

	for _, m := range matches {
		if r.matchesName(group.Normalized, group.Lemmatized, m) {
			return true, ""
		}
	}

	if len(matches) > 1 {
		return false, ReasonAmbiguous
	}
	return false, ReasonNotMatched
}

func (r *resolver) matchesName(
	normalized, lemmatized string,
	m taxon.Match,
) bool {
	names := r.nameForms(m)
	_, okNorm := names[normalized]
	_, okLemma := names[lemmatized]
	return okNorm || okLemma
}

// nameForms collects every name of the match in normalized and
// lemmatized form.
func (r *resolver) nameForms(m taxon.Match) map[string]struct{} {
	values := []string{m.MatchedName, m.Name}
	if m.CommonNameEn != nil {
		values = append(values, *m.CommonNameEn)
	}
	if m.CommonNameLoc != nil {
		values = append(values, *m.CommonNameLoc)
	}
	values = append(values, m.Names...)

	res := make(map[string]struct{})
	for _, v := range values {
		if v == "" {
			continue
		}
		res[norm.Normalize(v)] = struct{}{}
		res[norm.Lemmatize(v, r.morph)] = struct{}{}
	}
	return res
}

// MergeMatches combines two match lists: duplicates by taxon ID are
// dropped keeping the first seen, the result is sorted by score
// descending (stable) and capped at MaxMatches.
func MergeMatches(existing, extra []taxon.Match) []taxon.Match {
	seen := make(map[int]struct{})
	var res []taxon.Match
	for _, list := range [][]taxon.Match{existing, extra} {
		for _, m := range list {
			if _, ok := seen[m.TaxonID]; ok {
				continue
			}
			seen[m.TaxonID] = struct{}{}
			res = append(res, m)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Score > res[j].Score
	})
	if len(res) > MaxMatches {
		res = res[:MaxMatches]
	}
	return res
}
