// Package config provides configuration management for TaxFinder.
//
// This package has no I/O dependencies (no file operations, no network
// calls). Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > taxfinder.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in taxfinder.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Environment Variables
//
// Use TAXFINDER_ prefix with underscores for nesting:
//
//	TAXFINDER_LOCALE=ru
//	TAXFINDER_CONFIDENCE=0.5
//	TAXFINDER_INATURALIST_RATE_LIMIT=1.0
//	TAXFINDER_LOG_LEVEL=info
package config

// Config represents the complete TaxFinder configuration.
type Config struct {
	// Confidence is the minimal extraction confidence a candidate group
	// needs to appear in the final results.
	Confidence float64 `mapstructure:"confidence" yaml:"confidence"`

	// Locale is the language of common names in the input text and the
	// gazetteer, e.g. "ru".
	Locale string `mapstructure:"locale" yaml:"locale"`

	// GazetteerPath points to the prebuilt read-only gazetteer database.
	GazetteerPath string `mapstructure:"gazetteer_path" yaml:"gazetteer_path"`

	// MaxFileSizeMB limits the size of input files.
	MaxFileSizeMB float64 `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`

	// DegradedMode allows the pipeline to run without a gazetteer.
	// Only the Latin regex and LLM extractors contribute candidates then.
	DegradedMode bool `mapstructure:"degraded_mode" yaml:"degraded_mode"`

	// UserAgent is sent with every outbound HTTP request.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// INaturalist contains settings of the taxon search API client.
	INaturalist INaturalistConfig `mapstructure:"inaturalist" yaml:"inaturalist"`

	// LlmExtractor configures the LLM-based candidate extractor.
	// A nil value disables the extractor entirely.
	LlmExtractor *LlmConfig `mapstructure:"llm_extractor" yaml:"llm_extractor"`

	// LlmEnricher configures the LLM-based enrichment of unresolved
	// candidates. A nil value disables enrichment.
	LlmEnricher *LlmConfig `mapstructure:"llm_enricher" yaml:"llm_enricher"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// INaturalistConfig contains the upstream taxon API client parameters.
type INaturalistConfig struct {
	// BaseURL of the taxon API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Timeout is the per-request HTTP timeout in seconds.
	Timeout float64 `mapstructure:"timeout" yaml:"timeout"`

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`

	// BurstLimit is the maximal number of requests that can be issued
	// without waiting for the rate limiter.
	BurstLimit int `mapstructure:"burst_limit" yaml:"burst_limit"`

	// MaxRetries is the number of retries after the first failed attempt
	// for retryable HTTP statuses (429 and 5xx).
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// CacheEnabled turns the on-disk response cache on or off.
	CacheEnabled bool `mapstructure:"cache_enabled" yaml:"cache_enabled"`

	// CachePath is the location of the cache database file.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`

	// CacheTTLDays is the time-to-live of cached responses in days.
	CacheTTLDays int `mapstructure:"cache_ttl_days" yaml:"cache_ttl_days"`
}

// LlmConfig contains settings of one LLM-backed phase. The chunking
// fields are used only by the extractor; the enricher ignores them.
type LlmConfig struct {
	// Enabled turns the phase on or off without removing its config.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Provider selects the LLM backend: "ollama", "openai" or "anthropic".
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model is the provider-specific model name.
	Model string `mapstructure:"model" yaml:"model"`

	// URL overrides the provider's default base URL.
	URL string `mapstructure:"url" yaml:"url"`

	// Timeout is the per-request timeout in seconds.
	Timeout float64 `mapstructure:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retries after a failed completion.
	// Zero or negative falls back to the default of 2 retries.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// PromptFile is the path of the system prompt template. The literal
	// "{{locale}}" in the template is replaced with Config.Locale.
	PromptFile string `mapstructure:"prompt_file" yaml:"prompt_file"`

	// ChunkStrategy is "paragraph" or "page".
	ChunkStrategy string `mapstructure:"chunk_strategy" yaml:"chunk_strategy"`

	// MinChunkWords is the minimal chunk size for paragraph merging.
	MinChunkWords int `mapstructure:"min_chunk_words" yaml:"min_chunk_words"`

	// MaxChunkWords is the maximal chunk size.
	MaxChunkWords int `mapstructure:"max_chunk_words" yaml:"max_chunk_words"`

	// AutoStart launches a local Ollama runtime if it is not reachable.
	AutoStart bool `mapstructure:"auto_start" yaml:"auto_start"`

	// AutoPullModel pulls the model into a local Ollama runtime when the
	// model is absent.
	AutoPullModel bool `mapstructure:"auto_pull_model" yaml:"auto_pull_model"`

	// StopAfterRun terminates a runtime this run started once the
	// pipeline finishes.
	StopAfterRun bool `mapstructure:"stop_after_run" yaml:"stop_after_run"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Confidence:    0.5,
		Locale:        "ru",
		GazetteerPath: "data/gazetteer.db",
		MaxFileSizeMB: 2.0,
		UserAgent:     "TaxFinder/" + "0.1.0",
		INaturalist: INaturalistConfig{
			BaseURL:      "https://api.inaturalist.org",
			Timeout:      30,
			RateLimit:    1.0,
			BurstLimit:   5,
			MaxRetries:   3,
			CacheEnabled: true,
			CachePath:    "cache/taxfinder.db",
			CacheTTLDays: 7,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
	}

	return res
}
