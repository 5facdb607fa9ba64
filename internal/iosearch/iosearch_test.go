package iosearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/taxfinder/internal/iocache"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const autocompleteJSON = `{
  "results": [
    {
      "id": 13094,
      "name": "Parus major",
      "rank": "species",
      "preferred_common_name": "Great Tit",
      "matched_term": "большая синица",
      "score": 9.5,
      "uri": "https://www.inaturalist.org/taxa/13094",
      "names": [
        {"name": "Great Tit", "locale": "en", "is_preferred": true},
        {"name": "большая синица", "locale": "ru"},
        {"name": "Kohlmeise", "locale": "de"}
      ],
      "ancestors": [
        {"name": "Animalia", "rank": "kingdom"},
        {"name": "Chordata", "rank": "phylum"},
        {"name": "Aves", "rank": "class"},
        {"name": "Passeriformes", "rank": "order"},
        {"name": "Paridae", "rank": "family"},
        {"name": "Parus", "rank": "genus"}
      ]
    },
    {
      "taxon_id": 99,
      "name": "Parus minor",
      "rank": "species",
      "score": 3.1
    }
  ]
}`

func newTestSearcher(
	baseURL string,
	opts ...Option,
) *searcher {
	cfg := config.INaturalistConfig{
		BaseURL:    baseURL,
		Timeout:    5,
		MaxRetries: 2,
	}
	s := New(cfg, "TaxFinder/test", ratelimit.Unlimited(), opts...)
	res := s.(*searcher)
	res.sleep = func(time.Duration) {}
	return res
}

func TestSearchParsesResponse(t *testing.T) {
	assert := assert.New(t)
	var gotUA, gotQuery, gotLocale string
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotQuery = r.URL.Query().Get("q")
			gotLocale = r.URL.Query().Get("locale")
			w.Write([]byte(autocompleteJSON))
		},
	))
	defer ts.Close()

	s := newTestSearcher(ts.URL)
	matches, err := s.Search(context.Background(), "большая синица", "ru")
	require.NoError(t, err)

	assert.Equal("TaxFinder/test", gotUA)
	assert.Equal("большая синица", gotQuery)
	assert.Equal("ru", gotLocale)

	require.Len(t, matches, 2)
	m := matches[0]
	assert.Equal(13094, m.TaxonID)
	assert.Equal("Parus major", m.Name)
	assert.Equal("species", m.Rank)
	assert.Equal("большая синица", m.MatchedName)
	assert.Equal("https://www.inaturalist.org/taxa/13094", m.URL)
	assert.InDelta(9.5, m.Score, 0.001)
	require.NotNil(t, m.CommonNameEn)
	assert.Equal("Great Tit", *m.CommonNameEn)
	require.NotNil(t, m.CommonNameLoc)
	assert.Equal("большая синица", *m.CommonNameLoc)
	assert.Equal(
		[]string{"Great Tit", "большая синица", "Kohlmeise"}, m.Names,
	)
	require.NotNil(t, m.Taxonomy.Kingdom)
	assert.Equal("Animalia", *m.Taxonomy.Kingdom)
	require.NotNil(t, m.Taxonomy.Class)
	assert.Equal("Aves", *m.Taxonomy.Class)
	require.NotNil(t, m.Taxonomy.Species)
	assert.Equal("Parus major", *m.Taxonomy.Species)

	// second result has no uri, names or matched term
	m = matches[1]
	assert.Equal(99, m.TaxonID)
	assert.Equal("https://www.inaturalist.org/taxa/99", m.URL)
	assert.Equal("большая синица", m.MatchedName)
	assert.Nil(m.CommonNameEn)
	assert.Nil(m.CommonNameLoc)

	stats := s.Stats()
	assert.Equal(1, stats.ApiCalls)
	assert.Equal(0, stats.CacheHits)
}

func TestSearchCapsResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"results":[
				{"id":1,"name":"a","rank":"species"},
				{"id":2,"name":"b","rank":"species"},
				{"id":3,"name":"c","rank":"species"},
				{"id":4,"name":"d","rank":"species"},
				{"id":5,"name":"e","rank":"species"},
				{"id":6,"name":"f","rank":"species"},
				{"id":7,"name":"g","rank":"species"}
			]}`))
		},
	))
	defer ts.Close()

	s := newTestSearcher(ts.URL)
	matches, err := s.Search(context.Background(), "q", "ru")
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestSearchRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"results":[]}`))
		},
	))
	defer ts.Close()

	s := newTestSearcher(ts.URL)
	matches, err := s.Search(context.Background(), "q", "ru")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, int32(3), calls.Load())
	// retries still count as one search
	assert.Equal(t, 1, s.Stats().ApiCalls)
}

func TestSearchRetriesExhausted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	))
	defer ts.Close()

	s := newTestSearcher(ts.URL)
	_, err := s.Search(context.Background(), "q", "ru")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}

func TestSearchFailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		},
	))
	defer ts.Close()

	s := newTestSearcher(ts.URL)
	_, err := s.Search(context.Background(), "q", "ru")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// failingCache errors on every operation, standing in for a corrupt
// cache database.
type failingCache struct{}

func (failingCache) Get(string, string) (string, bool, error) {
	return "", false, errors.New("cache broken")
}

func (failingCache) Put(string, string, string) error {
	return errors.New("cache broken")
}

func (failingCache) Close() error { return nil }

func TestSearchSurvivesBrokenCache(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Write([]byte(autocompleteJSON))
		},
	))
	defer ts.Close()

	s := newTestSearcher(ts.URL, OptCache(failingCache{}))
	matches, err := s.Search(context.Background(), "синица", "ru")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// both the failed read and the failed write fall back to upstream
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, s.Stats().CacheHits)
}

func TestSearchUsesCache(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Write([]byte(autocompleteJSON))
		},
	))
	defer ts.Close()

	cachePath := filepath.Join(t.TempDir(), "cache.db")
	c, err := iocache.New(cachePath, 7)
	require.NoError(t, err)
	defer c.Close()

	s := newTestSearcher(ts.URL, OptCache(c))

	for range 3 {
		matches, err := s.Search(context.Background(), "синица", "ru")
		require.NoError(t, err)
		require.Len(t, matches, 2)
	}

	assert.Equal(t, int32(1), calls.Load())
	stats := s.Stats()
	assert.Equal(t, 1, stats.ApiCalls)
	assert.Equal(t, 2, stats.CacheHits)
}
