// Package gazetteer defines the contract of the prebuilt read-only
// database of taxa and their localized common names. The SQLite
// implementation lives in internal/iogazetteer.
package gazetteer

// NameMappings indexes common names of one locale by their normalized
// and lemmatized forms. Values are taxon IDs carrying the name.
type NameMappings struct {
	Normalized map[string][]int
	Lemmatized map[string][]int
}

// Patterns returns the sorted set of all name keys, normalized and
// lemmatized together. The phrase matcher registers them as patterns.
func (nm NameMappings) Patterns() []string {
	seen := make(map[string]struct{})
	for k := range nm.Normalized {
		seen[k] = struct{}{}
	}
	for k := range nm.Lemmatized {
		seen[k] = struct{}{}
	}
	res := make([]string, 0, len(seen))
	for k := range seen {
		res = append(res, k)
	}
	return res
}

// Record is one taxon with its preferred common names.
type Record struct {
	TaxonID int
	Name    string
	Rank    string

	// Ancestry is the upstream slash-separated list of ancestor taxon
	// IDs; empty when unknown.
	Ancestry string

	CommonNameEn  *string
	CommonNameLoc *string
}

// Store is read-only access to a gazetteer database.
type Store interface {
	// NameMappings loads all common names of a locale.
	NameMappings(locale string) (NameMappings, error)

	// TaxonIDs returns taxa carrying the normalized name in a locale.
	TaxonIDs(nameNormalized, locale string) ([]int, error)

	// FullRecord returns the taxon with its preferred common names, or
	// nil when the taxon is absent.
	FullRecord(taxonID int, locale string) (*Record, error)

	// LatinNames returns the lowercased scientific names of all taxa.
	LatinNames() (map[string]struct{}, error)

	Close() error
}
