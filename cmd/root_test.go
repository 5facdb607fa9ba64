package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	assert.Equal(t, "taxfinder", rootCmd.Use)

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["process"])
	assert.True(t, names["dry-run"])
	assert.True(t, names["build-gazetteer"])
}

func TestMorphForLocale(t *testing.T) {
	morph := morphForLocale("ru")
	require.NotNil(t, morph)

	// inflected forms collapse to one stem
	assert.Equal(t,
		morph.NormalForm("синица"),
		morph.NormalForm("синицы"),
	)

	assert.Nil(t, morphForLocale("ja"))
}

func TestMorphUnstemmableWord(t *testing.T) {
	morph := morphForLocale("ru")
	require.NotNil(t, morph)
	assert.NotEmpty(t, morph.NormalForm("и"))
}
