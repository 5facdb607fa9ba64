// Package iocache stores upstream API responses in a local SQLite
// database keyed by query and locale. Entries expire after a TTL and
// are deleted lazily on read.
package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnames/taxfinder/pkg/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGo)
)

// Cache is a persistent response cache. Get returns the cached payload
// and true when a fresh entry exists.
type Cache interface {
	Get(query, locale string) (string, bool, error)
	Put(query, locale, payload string) error
	Close() error
}

type cache struct {
	mu  sync.Mutex
	db  *sql.DB
	ttl time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// New opens or creates a cache database at path. A version 0 database
// gets its schema created; any other version mismatch is an error.
func New(path string, ttlDays int) (Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewOpenError(path, err)
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

	switch version {
	case config.CacheSchemaVersion:
	case 0:
		if err = createSchema(db); err != nil {
			db.Close()
			return nil, err
		}
	default:
		db.Close()
		return nil, NewSchemaError(path, config.CacheSchemaVersion, version)
	}

	res := &cache{
		db:  db,
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
		now: time.Now,
	}
	return res, nil
}

func createSchema(db *sql.DB) error {
	q := `
CREATE TABLE IF NOT EXISTS api_cache (
  query TEXT NOT NULL,
  locale TEXT NOT NULL,
  response_json TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (query, locale)
)`
	if _, err := db.Exec(q); err != nil {
		return NewWriteError(err)
	}
	q = fmt.Sprintf("PRAGMA user_version = %d", config.CacheSchemaVersion)
	if _, err := db.Exec(q); err != nil {
		return NewWriteError(err)
	}
	return nil
}

func (c *cache) Get(query, locale string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := `
SELECT response_json, created_at
FROM api_cache
WHERE query = ? AND locale = ?`
	var payload string
	var createdAt int64
	err := c.db.QueryRow(q, query, locale).Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewReadError(err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(createdAt, 0)) > c.ttl {
		q = "DELETE FROM api_cache WHERE query = ? AND locale = ?"
		if _, err = c.db.Exec(q, query, locale); err != nil {
			return "", false, NewWriteError(err)
		}
		return "", false, nil
	}
	return payload, true, nil
}

func (c *cache) Put(query, locale, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := `
INSERT OR REPLACE INTO api_cache (query, locale, response_json, created_at)
VALUES (?, ?, ?, ?)`
	_, err := c.db.Exec(q, query, locale, payload, c.now().Unix())
	if err != nil {
		return NewWriteError(err)
	}
	return nil
}

func (c *cache) Close() error {
	return c.db.Close()
}
