// Package iogazetteer reads the prebuilt SQLite gazetteer of taxa and
// localized common names. The database is opened read-only and its
// schema version is validated against the expected PRAGMA user_version.
package iogazetteer

import (
	"database/sql"
	"os"
	"strings"

	"github.com/gnames/gnparser"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/gazetteer"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGo)
)

type store struct {
	db   *sql.DB
	path string
}

// New opens the gazetteer at path and validates its schema version.
func New(path string) (gazetteer.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, NewMissingGazetteerError(path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, NewOpenError(path, err)
	}

	var version int
	err = db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		db.Close()
		return nil, NewOpenError(path, err)
	}
	if version != config.GazetteerSchemaVersion {
		db.Close()
		return nil, NewSchemaMismatchError(
			path, config.GazetteerSchemaVersion, version,
		)
	}

	return &store{db: db, path: path}, nil
}

func (s *store) NameMappings(locale string) (gazetteer.NameMappings, error) {
	res := gazetteer.NameMappings{
		Normalized: make(map[string][]int),
		Lemmatized: make(map[string][]int),
	}

	q := `
SELECT taxon_id, name_normalized, name_lemmatized
FROM common_names
WHERE locale = ?`
	rows, err := s.db.Query(q, locale)
	if err != nil {
		return res, NewQueryError("common_names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taxonID int
		var normalized, lemmatized sql.NullString
		err = rows.Scan(&taxonID, &normalized, &lemmatized)
		if err != nil {
			return res, NewQueryError("common_names", err)
		}
		if normalized.String != "" {
			res.Normalized[normalized.String] = append(
				res.Normalized[normalized.String], taxonID,
			)
		}
		if lemmatized.String != "" {
			res.Lemmatized[lemmatized.String] = append(
				res.Lemmatized[lemmatized.String], taxonID,
			)
		}
	}
	if err = rows.Err(); err != nil {
		return res, NewQueryError("common_names", err)
	}
	return res, nil
}

func (s *store) TaxonIDs(nameNormalized, locale string) ([]int, error) {
	q := `
SELECT taxon_id
FROM common_names
WHERE name_normalized = ? AND locale = ?`
	rows, err := s.db.Query(q, nameNormalized, locale)
	if err != nil {
		return nil, NewQueryError("common_names", err)
	}
	defer rows.Close()

	var res []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, NewQueryError("common_names", err)
		}
		res = append(res, id)
	}
	if err = rows.Err(); err != nil {
		return nil, NewQueryError("common_names", err)
	}
	return res, nil
}

func (s *store) FullRecord(
	taxonID int,
	locale string,
) (*gazetteer.Record, error) {
	q := `
SELECT taxon_id, taxon_name, taxon_rank, ancestry
FROM taxa
WHERE taxon_id = ?`
	var res gazetteer.Record
	var ancestry sql.NullString
	err := s.db.QueryRow(q, taxonID).Scan(
		&res.TaxonID, &res.Name, &res.Rank, &ancestry,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewQueryError("taxa", err)
	}
	res.Ancestry = ancestry.String

	q = `
SELECT name, locale, is_preferred
FROM common_names
WHERE taxon_id = ? AND locale IN (?, 'en')`
	rows, err := s.db.Query(q, taxonID, locale)
	if err != nil {
		return nil, NewQueryError("common_names", err)
	}
	defer rows.Close()

	var names []commonName
	for rows.Next() {
		var cn commonName
		err = rows.Scan(&cn.name, &cn.locale, &cn.preferred)
		if err != nil {
			return nil, NewQueryError("common_names", err)
		}
		names = append(names, cn)
	}
	if err = rows.Err(); err != nil {
		return nil, NewQueryError("common_names", err)
	}

	res.CommonNameEn = preferredName(names, "en")
	res.CommonNameLoc = preferredName(names, locale)
	return &res, nil
}

// LatinNames collects lowercased scientific names of all taxa, both as
// stored and as canonical forms produced by gnparser, so authorship or
// rank markers in the gazetteer do not hide a match.
func (s *store) LatinNames() (map[string]struct{}, error) {
	rows, err := s.db.Query("SELECT taxon_name FROM taxa")
	if err != nil {
		return nil, NewQueryError("taxa", err)
	}
	defer rows.Close()

	prs := gnparser.New(gnparser.NewConfig())
	res := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, NewQueryError("taxa", err)
		}
		if name == "" {
			continue
		}
		res[strings.ToLower(name)] = struct{}{}

		parsed := prs.ParseName(name)
		if parsed.Parsed && parsed.Canonical != nil {
			res[strings.ToLower(parsed.Canonical.Simple)] = struct{}{}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, NewQueryError("taxa", err)
	}
	return res, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

type commonName struct {
	name      string
	locale    string
	preferred bool
}

// preferredName returns the preferred common name of a locale, falling
// back to the first name seen in that locale.
func preferredName(names []commonName, locale string) *string {
	var fallback *string
	for i := range names {
		if names[i].locale != locale {
			continue
		}
		if names[i].preferred {
			return &names[i].name
		}
		if fallback == nil {
			fallback = &names[i].name
		}
	}
	return fallback
}
