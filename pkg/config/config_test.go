package config_test

import (
	"testing"

	"github.com/gnames/taxfinder/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	assert := assert.New(t)
	cfg := config.New()

	assert.InDelta(0.5, cfg.Confidence, 0.001)
	assert.Equal("ru", cfg.Locale)
	assert.Equal("https://api.inaturalist.org", cfg.INaturalist.BaseURL)
	assert.True(cfg.INaturalist.CacheEnabled)
	assert.Nil(cfg.LlmExtractor)
	assert.Nil(cfg.LlmEnricher)
	assert.Equal("json", cfg.Log.Format)
}

func TestUpdate(t *testing.T) {
	assert := assert.New(t)
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptConfidence(0.8),
		config.OptLocale("UK "),
		config.OptDegradedMode(true),
		config.OptINaturalistBaseURL("https://example.org/"),
	})

	assert.InDelta(0.8, cfg.Confidence, 0.001)
	assert.Equal("uk", cfg.Locale)
	assert.True(cfg.DegradedMode)
	// trailing slash is stripped
	assert.Equal("https://example.org", cfg.INaturalist.BaseURL)
}

func TestUpdateRejectsInvalid(t *testing.T) {
	assert := assert.New(t)
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptConfidence(1.5),
		config.OptLocale(""),
		config.OptINaturalistBurstLimit(-1),
		config.OptLogLevel("verbose"),
	})

	// invalid values leave the defaults in place
	assert.InDelta(0.5, cfg.Confidence, 0.001)
	assert.Equal("ru", cfg.Locale)
	assert.Equal(5, cfg.INaturalist.BurstLimit)
	assert.Equal("info", cfg.Log.Level)
}

func TestToOptionsRoundTrip(t *testing.T) {
	assert := assert.New(t)
	src := config.New()
	src.Update([]config.Option{
		config.OptConfidence(0.7),
		config.OptLocale("uk"),
		config.OptLlmEnricher(&config.LlmConfig{
			Enabled:  true,
			Provider: "ollama",
			Model:    "llama3.1",
		}),
	})

	dst := config.New()
	dst.Update(src.ToOptions())

	assert.Equal(src.Confidence, dst.Confidence)
	assert.Equal(src.Locale, dst.Locale)
	assert.Equal(src.INaturalist, dst.INaturalist)
	assert.Equal(src.LlmEnricher, dst.LlmEnricher)

	// HomeDir is runtime-only and never round-trips
	src.Update([]config.Option{config.OptHomeDir("/home/u")})
	dst = config.New()
	dst.Update(src.ToOptions())
	assert.Empty(dst.HomeDir)
}
