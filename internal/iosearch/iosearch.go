// Package iosearch queries the iNaturalist taxa autocomplete API and
// maps upstream results to taxon matches. Responses are cached on disk
// and requests go through a shared rate limiter.
package iosearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/gnames/taxfinder/internal/iocache"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/ratelimit"
	"github.com/gnames/taxfinder/pkg/search"
	"github.com/gnames/taxfinder/pkg/taxon"
	"golang.org/x/sync/singleflight"
)

// maxResults caps how many upstream results become matches.
const maxResults = 5

type searcher struct {
	client    *http.Client
	cfg       config.INaturalistConfig
	userAgent string
	cache     iocache.Cache
	limiter   ratelimit.Limiter
	flight    singleflight.Group

	mu    sync.Mutex
	stats search.Stats

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// Option modifies the searcher during construction.
type Option func(*searcher)

// OptCache attaches a response cache. Without it every search goes
// upstream.
func OptCache(c iocache.Cache) Option {
	return func(s *searcher) {
		s.cache = c
	}
}

// OptClient overrides the HTTP client.
func OptClient(c *http.Client) Option {
	return func(s *searcher) {
		s.client = c
	}
}

// New creates an iNaturalist-backed search.Searcher.
func New(
	cfg config.INaturalistConfig,
	userAgent string,
	limiter ratelimit.Limiter,
	opts ...Option,
) search.Searcher {
	res := &searcher{
		cfg:       cfg,
		userAgent: userAgent,
		limiter:   limiter,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(res)
	}
	if res.client == nil {
		res.client = &http.Client{
			Timeout: time.Duration(cfg.Timeout * float64(time.Second)),
		}
	}
	return res
}

func (s *searcher) Search(
	ctx context.Context,
	query, locale string,
) ([]taxon.Match, error) {
	// a broken cache degrades to upstream-only search, never fails it
	if s.cache != nil {
		payload, ok, err := s.cache.Get(query, locale)
		if err != nil {
			slog.Warn("Cache read failed", "query", query, "error", err)
		} else if ok {
			s.mu.Lock()
			s.stats.CacheHits++
			s.mu.Unlock()
			return parseMatches([]byte(payload), locale, query)
		}
	}

	// concurrent identical queries share one upstream request
	key := query + "|" + locale
	payload, err, _ := s.flight.Do(key, func() (any, error) {
		return s.request(ctx, query, locale)
	})
	if err != nil {
		return nil, err
	}

	raw := payload.(string)
	if s.cache != nil {
		if err = s.cache.Put(query, locale, raw); err != nil {
			slog.Warn("Cache write failed", "query", query, "error", err)
		}
	}
	return parseMatches([]byte(raw), locale, query)
}

func (s *searcher) Stats() search.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *searcher) request(
	ctx context.Context,
	query, locale string,
) (string, error) {
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") +
		"/v1/taxa/autocomplete"
	params := url.Values{}
	params.Set("q", query)
	params.Set("locale", locale)
	fullURL := endpoint + "?" + params.Encode()

	s.mu.Lock()
	s.stats.ApiCalls++
	s.mu.Unlock()

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if err := s.limiter.Acquire(ctx); err != nil {
			return "", NewRequestError(fullURL, err)
		}

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet, fullURL, nil,
		)
		if err != nil {
			return "", NewRequestError(fullURL, err)
		}
		req.Header.Set("User-Agent", s.userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return "", NewRequestError(fullURL, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", NewRequestError(fullURL, err)
		}

		if resp.StatusCode == http.StatusOK {
			return string(body), nil
		}

		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= 500 {
			if attempt < s.cfg.MaxRetries {
				s.sleep(backoff(attempt))
				continue
			}
			return "", NewRetriesError(fullURL, s.cfg.MaxRetries, resp.StatusCode)
		}

		return "", NewStatusError(fullURL, resp.StatusCode)
	}
	return "", NewRetriesError(fullURL, s.cfg.MaxRetries, 0)
}

// backoff returns the delay before a retry, 3 * 2^attempt seconds with
// jitter in [0.5, 1.0).
func backoff(attempt int) time.Duration {
	base := 3 * float64(int(1)<<attempt)
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(base * jitter * float64(time.Second))
}

type apiResponse struct {
	Results []apiResult `json:"results"`
}

type apiResult struct {
	ID                  int           `json:"id"`
	TaxonID             int           `json:"taxon_id"`
	Name                string        `json:"name"`
	Rank                string        `json:"rank"`
	PreferredCommonName any           `json:"preferred_common_name"`
	Names               []apiName     `json:"names"`
	Ancestors           []apiAncestor `json:"ancestors"`
	URI                 string        `json:"uri"`
	MatchedName         string        `json:"matched_name"`
	MatchedTerm         string        `json:"matched_term"`
	Score               float64       `json:"score"`
}

type apiName struct {
	Name        string `json:"name"`
	Locale      string `json:"locale"`
	IsPreferred bool   `json:"is_preferred"`
}

type apiAncestor struct {
	Name string `json:"name"`
	Rank string `json:"rank"`
}

func parseMatches(
	payload []byte,
	locale, query string,
) ([]taxon.Match, error) {
	enc := gnfmt.GNjson{}
	var data apiResponse
	if err := enc.Decode(payload, &data); err != nil {
		return nil, NewParseError(err)
	}

	results := data.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var matches []taxon.Match
	for _, r := range results {
		taxonID := r.ID
		if taxonID == 0 {
			taxonID = r.TaxonID
		}
		matchedName := r.MatchedName
		if matchedName == "" {
			matchedName = r.MatchedTerm
		}
		if matchedName == "" {
			matchedName = query
		}
		taxonURL := r.URI
		if taxonURL == "" {
			taxonURL = fmt.Sprintf(
				"https://www.inaturalist.org/taxa/%d", taxonID,
			)
		}

		matches = append(matches, taxon.Match{
			TaxonID:       taxonID,
			Name:          r.Name,
			Rank:          r.Rank,
			Taxonomy:      taxonomyOf(r),
			CommonNameEn:  commonNameEn(r),
			CommonNameLoc: commonNameLoc(r, locale),
			MatchedName:   matchedName,
			URL:           taxonURL,
			Score:         r.Score,
			Names:         allNames(r.Names),
		})
	}
	return matches, nil
}

// commonNameEn prefers an explicitly preferred English name, then any
// English name, then the upstream preferred_common_name field.
func commonNameEn(r apiResult) *string {
	var fallback *string
	for i := range r.Names {
		if r.Names[i].Locale != "en" || r.Names[i].Name == "" {
			continue
		}
		if r.Names[i].IsPreferred {
			return &r.Names[i].Name
		}
		if fallback == nil {
			fallback = &r.Names[i].Name
		}
	}
	if fallback != nil {
		return fallback
	}
	return preferredCommonName(r.PreferredCommonName)
}

func commonNameLoc(r apiResult, locale string) *string {
	for i := range r.Names {
		if r.Names[i].Locale == locale && r.Names[i].Name != "" {
			return &r.Names[i].Name
		}
	}
	return preferredCommonName(r.PreferredCommonName)
}

// preferredCommonName accepts both upstream shapes of the field, a
// plain string or an object with a name key.
func preferredCommonName(value any) *string {
	switch v := value.(type) {
	case string:
		if v != "" {
			return &v
		}
	case map[string]any:
		if name, ok := v["name"].(string); ok && name != "" {
			return &name
		}
	}
	return nil
}

func allNames(names []apiName) []string {
	var res []string
	for _, n := range names {
		if n.Name != "" {
			res = append(res, n.Name)
		}
	}
	return res
}

// taxonomyOf walks the ancestors in order and finishes with the
// result's own rank, so the focal taxon overwrites an ancestor of the
// same rank.
func taxonomyOf(r apiResult) taxon.Taxonomy {
	var res taxon.Taxonomy
	for _, a := range r.Ancestors {
		res.SetRank(a.Rank, a.Name)
	}
	res.SetRank(r.Rank, r.Name)
	return res
}
