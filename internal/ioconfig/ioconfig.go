// Package ioconfig loads configuration from taxfinder.yaml and the
// environment. This is an impure package that handles file system and
// environment operations.
package ioconfig

import (
	"strings"

	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/templates"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the YAML file at path with TAXFINDER_*
// environment variables layered on top. The result holds the values as
// stored; the caller merges them into defaults via Config.ToOptions().
func Load(path string) (*config.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	initEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, NewReadError(path, err)
	}

	var res config.Config
	if err := v.Unmarshal(&res); err != nil {
		return nil, NewParseError(path, err)
	}
	return &res, nil
}

// FromTemplate parses the embedded taxfinder.yaml template. Tests use it
// to keep the template in sync with the built-in defaults.
func FromTemplate() (*config.Config, error) {
	var res config.Config
	err := yaml.Unmarshal([]byte(templates.ConfigYAML), &res)
	if err != nil {
		return nil, NewParseError("embedded template", err)
	}
	return &res, nil
}

// initEnvVars binds the allowed environment variables.
// They are bound manually so it is clear which variables exist; the list
// matches the fields of config.ToOptions().
func initEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("TAXFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// General configuration
	v.BindEnv("confidence", "TAXFINDER_CONFIDENCE")
	v.BindEnv("locale", "TAXFINDER_LOCALE")
	v.BindEnv("gazetteer_path", "TAXFINDER_GAZETTEER_PATH")
	v.BindEnv("max_file_size_mb", "TAXFINDER_MAX_FILE_SIZE_MB")
	v.BindEnv("degraded_mode", "TAXFINDER_DEGRADED_MODE")
	v.BindEnv("user_agent", "TAXFINDER_USER_AGENT")

	// Upstream API configuration
	v.BindEnv("inaturalist.base_url", "TAXFINDER_INATURALIST_BASE_URL")
	v.BindEnv("inaturalist.timeout", "TAXFINDER_INATURALIST_TIMEOUT")
	v.BindEnv("inaturalist.rate_limit", "TAXFINDER_INATURALIST_RATE_LIMIT")
	v.BindEnv("inaturalist.burst_limit", "TAXFINDER_INATURALIST_BURST_LIMIT")
	v.BindEnv("inaturalist.max_retries", "TAXFINDER_INATURALIST_MAX_RETRIES")
	v.BindEnv("inaturalist.cache_enabled", "TAXFINDER_INATURALIST_CACHE_ENABLED")
	v.BindEnv("inaturalist.cache_path", "TAXFINDER_INATURALIST_CACHE_PATH")
	v.BindEnv("inaturalist.cache_ttl_days", "TAXFINDER_INATURALIST_CACHE_TTL_DAYS")

	// Log configuration. LOG_FORMAT without the prefix is honored too.
	v.BindEnv("log.format", "TAXFINDER_LOG_FORMAT", "LOG_FORMAT")
	v.BindEnv("log.level", "TAXFINDER_LOG_LEVEL")
	v.BindEnv("log.destination", "TAXFINDER_LOG_DESTINATION")

	v.AutomaticEnv()
}
