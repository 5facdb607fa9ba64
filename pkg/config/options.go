package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptConfidence sets the minimal extraction confidence for results.
func OptConfidence(f float64) Option {
	return func(c *Config) {
		if isValidUnit("Confidence", f) {
			c.Confidence = f
		}
	}
}

// OptLocale sets the locale of common names in the input text.
func OptLocale(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidString("Locale", s) {
			c.Locale = s
		}
	}
}

// OptGazetteerPath sets the location of the gazetteer database.
func OptGazetteerPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Gazetteer Path", s) {
			c.GazetteerPath = s
		}
	}
}

// OptMaxFileSizeMB sets the input file size limit.
func OptMaxFileSizeMB(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Max File Size", f) {
			c.MaxFileSizeMB = f
		}
	}
}

// OptDegradedMode allows running without a gazetteer.
func OptDegradedMode(b bool) Option {
	return func(c *Config) {
		c.DegradedMode = b
	}
}

// OptUserAgent sets the User-Agent header for outbound HTTP requests.
func OptUserAgent(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("User Agent", s) {
			c.UserAgent = s
		}
	}
}

// OptINaturalistBaseURL sets the upstream taxon API base URL.
func OptINaturalistBaseURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("iNaturalist Base URL", s) {
			c.INaturalist.BaseURL = strings.TrimRight(s, "/")
		}
	}
}

// OptINaturalistTimeout sets the upstream request timeout in seconds.
func OptINaturalistTimeout(f float64) Option {
	return func(c *Config) {
		if isValidFloat("iNaturalist Timeout", f) {
			c.INaturalist.Timeout = f
		}
	}
}

// OptINaturalistRateLimit sets the sustained request rate per second.
func OptINaturalistRateLimit(f float64) Option {
	return func(c *Config) {
		if isValidFloat("iNaturalist Rate Limit", f) {
			c.INaturalist.RateLimit = f
		}
	}
}

// OptINaturalistBurstLimit sets the burst capacity of the rate limiter.
func OptINaturalistBurstLimit(i int) Option {
	return func(c *Config) {
		if isValidInt("iNaturalist Burst Limit", i) {
			c.INaturalist.BurstLimit = i
		}
	}
}

// OptINaturalistMaxRetries sets the retry budget for retryable statuses.
func OptINaturalistMaxRetries(i int) Option {
	return func(c *Config) {
		if i >= 0 {
			c.INaturalist.MaxRetries = i
		}
	}
}

// OptINaturalistCacheEnabled turns the disk cache on or off.
func OptINaturalistCacheEnabled(b bool) Option {
	return func(c *Config) {
		c.INaturalist.CacheEnabled = b
	}
}

// OptINaturalistCachePath sets the cache database location.
func OptINaturalistCachePath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Cache Path", s) {
			c.INaturalist.CachePath = s
		}
	}
}

// OptINaturalistCacheTTLDays sets the cache time-to-live in days.
func OptINaturalistCacheTTLDays(i int) Option {
	return func(c *Config) {
		if isValidInt("Cache TTL", i) {
			c.INaturalist.CacheTTLDays = i
		}
	}
}

// OptLlmExtractor sets the whole LLM extractor section.
// Runtime-only in the sense that nil keeps the extractor disabled.
func OptLlmExtractor(lc *LlmConfig) Option {
	return func(c *Config) {
		c.LlmExtractor = lc
	}
}

// OptLlmEnricher sets the whole LLM enricher section.
func OptLlmEnricher(lc *LlmConfig) Option {
	return func(c *Config) {
		c.LlmEnricher = lc
	}
}

// OptLogFormat sets the format of log entries.
// Valid values: "json", "text".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogLevel sets the minimal level of log entries.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogDestination sets where log entries go.
// Valid values: "file", "stdout", "stderr".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptHomeDir sets the home directory for config, cache and log paths.
// Runtime-only field, set once by the CLI during init.
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
