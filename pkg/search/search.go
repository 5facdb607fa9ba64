// Package search defines the contract of the upstream taxon search API.
// The iNaturalist implementation with caching, rate limiting and
// retries lives in internal/iosearch.
package search

import (
	"context"

	"github.com/gnames/taxfinder/pkg/taxon"
)

// Stats counts the work a Searcher has done so far.
type Stats struct {
	// ApiCalls is the number of requests that reached the network.
	ApiCalls int

	// CacheHits is the number of queries served from the disk cache.
	CacheHits int
}

// Searcher finds candidate taxa for a query string.
type Searcher interface {
	// Search returns matches for the query in a locale. An empty result
	// with a nil error means the upstream knows nothing about the query.
	Search(ctx context.Context, query, locale string) ([]taxon.Match, error)

	// Stats reports cumulative counters for the run summary.
	Stats() Stats
}
