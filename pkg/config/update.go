package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for taxfinder.yaml.
// Excludes runtime-only fields (HomeDir).
// Used for round-tripping taxfinder.yaml ↔ Config conversions.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int
	var f float64

	f = c.Confidence
	if f > 0 {
		res = append(res, OptConfidence(f))
	}
	s = c.Locale
	if s != "" {
		res = append(res, OptLocale(s))
	}
	s = c.GazetteerPath
	if s != "" {
		res = append(res, OptGazetteerPath(s))
	}
	f = c.MaxFileSizeMB
	if f > 0 {
		res = append(res, OptMaxFileSizeMB(f))
	}
	res = append(res, OptDegradedMode(c.DegradedMode))
	s = c.UserAgent
	if s != "" {
		res = append(res, OptUserAgent(s))
	}

	s = c.INaturalist.BaseURL
	if s != "" {
		res = append(res, OptINaturalistBaseURL(s))
	}
	f = c.INaturalist.Timeout
	if f > 0 {
		res = append(res, OptINaturalistTimeout(f))
	}
	f = c.INaturalist.RateLimit
	if f > 0 {
		res = append(res, OptINaturalistRateLimit(f))
	}
	i = c.INaturalist.BurstLimit
	if i > 0 {
		res = append(res, OptINaturalistBurstLimit(i))
	}
	i = c.INaturalist.MaxRetries
	if i >= 0 {
		res = append(res, OptINaturalistMaxRetries(i))
	}
	res = append(res, OptINaturalistCacheEnabled(c.INaturalist.CacheEnabled))
	s = c.INaturalist.CachePath
	if s != "" {
		res = append(res, OptINaturalistCachePath(s))
	}
	i = c.INaturalist.CacheTTLDays
	if i > 0 {
		res = append(res, OptINaturalistCacheTTLDays(i))
	}

	if c.LlmExtractor != nil {
		lc := *c.LlmExtractor
		res = append(res, OptLlmExtractor(&lc))
	}
	if c.LlmEnricher != nil {
		lc := *c.LlmEnricher
		res = append(res, OptLlmEnricher(&lc))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidFloat(name string, f float64) bool {
	res := f > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive, ignoring %f", name, f)
	}
	return res
}

func isValidUnit(name string, f float64) bool {
	res := f >= 0 && f <= 1
	if !res {
		gn.Warn("<em>%s</em> has to be between 0 and 1, ignoring %f", name, f)
	}
	return res
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Log.Level":       {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":      {"json": s, "text": s},
		"Log.Destination": {"file": s, "stderr": s, "stdout": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
