// Package iotesting provides shared test utilities: throwaway gazetteer
// databases, stub searchers and stub LLM clients. This is an internal
// package for test infrastructure only.
package iotesting

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gnames/taxfinder/pkg/search"
	"github.com/gnames/taxfinder/pkg/taxon"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGo)
)

// GazetteerRow describes one taxon with one common name for test
// databases built with NewGazetteerDB.
type GazetteerRow struct {
	TaxonID     int
	TaxonName   string
	TaxonRank   string
	Ancestry    string
	CommonName  string
	Locale      string
	IsPreferred bool
	Normalized  string
	Lemmatized  string
}

// NewGazetteerDB creates a gazetteer SQLite file in the test's temp
// directory with the given rows and schema version.
func NewGazetteerDB(
	t *testing.T,
	rows []GazetteerRow,
	schemaVersion int,
) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gazetteer.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	ddl := `
CREATE TABLE taxa (
  taxon_id INTEGER PRIMARY KEY,
  taxon_name TEXT NOT NULL,
  taxon_rank TEXT NOT NULL,
  ancestry TEXT
);
CREATE TABLE common_names (
  taxon_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  locale TEXT NOT NULL,
  is_preferred INTEGER NOT NULL DEFAULT 0,
  name_normalized TEXT,
  name_lemmatized TEXT
);`
	_, err = db.Exec(ddl)
	require.NoError(t, err)

	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	require.NoError(t, err)

	seenTaxa := make(map[int]bool)
	for _, r := range rows {
		if !seenTaxa[r.TaxonID] {
			seenTaxa[r.TaxonID] = true
			_, err = db.Exec(
				`INSERT INTO taxa (taxon_id, taxon_name, taxon_rank, ancestry)
				 VALUES (?, ?, ?, ?)`,
				r.TaxonID, r.TaxonName, r.TaxonRank, r.Ancestry,
			)
			require.NoError(t, err)
		}
		if r.CommonName == "" {
			continue
		}
		_, err = db.Exec(
			`INSERT INTO common_names
			 (taxon_id, name, locale, is_preferred, name_normalized, name_lemmatized)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.TaxonID, r.CommonName, r.Locale, r.IsPreferred,
			r.Normalized, r.Lemmatized,
		)
		require.NoError(t, err)
	}
	return path
}

// StubSearcher is a search.Searcher backed by a fixed response table.
// It records queries and is safe for concurrent use.
type StubSearcher struct {
	mu sync.Mutex

	// Responses maps "query|locale" to matches.
	Responses map[string][]taxon.Match

	// Queries records every Search call in order.
	Queries []string

	// Err, when set, is returned by every Search call.
	Err error
}

// NewStubSearcher creates a StubSearcher with an empty response table.
func NewStubSearcher() *StubSearcher {
	return &StubSearcher{Responses: make(map[string][]taxon.Match)}
}

// Respond registers matches for a query and locale.
func (s *StubSearcher) Respond(query, locale string, matches ...taxon.Match) {
	s.Responses[query+"|"+locale] = matches
}

func (s *StubSearcher) Search(
	_ context.Context,
	query, locale string,
) ([]taxon.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query+"|"+locale)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Responses[query+"|"+locale], nil
}

func (s *StubSearcher) Stats() search.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.Stats{ApiCalls: len(s.Queries)}
}

// StubLlm is an llm.Client returning canned replies in order. After the
// replies run out it repeats the last one.
type StubLlm struct {
	mu sync.Mutex

	// Replies are returned one per Complete call.
	Replies []string

	// Calls records {system, user} pairs.
	Calls [][2]string

	// Err, when set, is returned by every Complete call.
	Err error

	next int
}

func (s *StubLlm) Complete(
	_ context.Context,
	systemPrompt, userContent string,
	_ map[string]any,
) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, [2]string{systemPrompt, userContent})
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Replies) == 0 {
		return "", nil
	}
	idx := min(s.next, len(s.Replies)-1)
	s.next++
	return s.Replies[idx], nil
}
