package ioconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/taxfinder/internal/ioconfig"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateMatchesDefaults(t *testing.T) {
	assert := assert.New(t)
	tmpl, err := ioconfig.FromTemplate()
	require.NoError(t, err)

	def := config.New()
	assert.Equal(def.Confidence, tmpl.Confidence)
	assert.Equal(def.Locale, tmpl.Locale)
	assert.Equal(def.GazetteerPath, tmpl.GazetteerPath)
	assert.Equal(def.MaxFileSizeMB, tmpl.MaxFileSizeMB)
	assert.Equal(def.UserAgent, tmpl.UserAgent)
	assert.Equal(def.INaturalist, tmpl.INaturalist)
	assert.Equal(def.Log, tmpl.Log)

	// both LLM phases ship disabled
	require.NotNil(t, tmpl.LlmExtractor)
	assert.False(tmpl.LlmExtractor.Enabled)
	require.NotNil(t, tmpl.LlmEnricher)
	assert.False(tmpl.LlmEnricher.Enabled)
}

func TestLoadReadsFile(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "taxfinder.yaml")
	content := `
locale: uk
confidence: 0.8
inaturalist:
  rate_limit: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := ioconfig.Load(path)
	require.NoError(t, err)
	assert.Equal("uk", cfg.Locale)
	assert.InDelta(0.8, cfg.Confidence, 0.001)
	assert.InDelta(0.5, cfg.INaturalist.RateLimit, 0.001)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locale: ru\n"), 0644))

	t.Setenv("TAXFINDER_LOCALE", "en")
	cfg, err := ioconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := ioconfig.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locale: [broken\n"), 0644))

	_, err := ioconfig.Load(path)
	assert.Error(t, err)
}
