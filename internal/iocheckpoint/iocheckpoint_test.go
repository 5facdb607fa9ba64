package iocheckpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/taxfinder/internal/iocheckpoint"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runState struct {
	Phase   string   `json:"phase"`
	Queries []string `json:"queries"`
}

func TestKeyDeterministic(t *testing.T) {
	cfg := config.New()
	k1 := iocheckpoint.Key("текст", cfg)
	k2 := iocheckpoint.Key("текст", cfg)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
}

func TestKeyChangesWithInput(t *testing.T) {
	cfg := config.New()
	k1 := iocheckpoint.Key("текст", cfg)
	k2 := iocheckpoint.Key("другой текст", cfg)
	assert.NotEqual(t, k1, k2)

	other := config.New()
	other.Confidence = 0.9
	k3 := iocheckpoint.Key("текст", other)
	assert.NotEqual(t, k1, k3)
}

func TestSaveLoadClear(t *testing.T) {
	assert := assert.New(t)
	cp, err := iocheckpoint.New(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)

	key := iocheckpoint.Key("текст", config.New())

	var state runState
	ok, err := cp.Load(key, &state)
	require.NoError(t, err)
	assert.False(ok)

	saved := runState{Phase: "resolution", Queries: []string{"синица"}}
	require.NoError(t, cp.Save(key, saved))

	ok, err = cp.Load(key, &state)
	require.NoError(t, err)
	assert.True(ok)
	assert.Equal(saved, state)

	require.NoError(t, cp.Clear(key))
	ok, err = cp.Load(key, &state)
	require.NoError(t, err)
	assert.False(ok)

	// clearing twice is fine
	require.NoError(t, cp.Clear(key))
}

func TestSaveOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	cp, err := iocheckpoint.New(dir)
	require.NoError(t, err)

	require.NoError(t, cp.Save("key", runState{Phase: "one"}))
	require.NoError(t, cp.Save("key", runState{Phase: "two"}))

	var state runState
	ok, err := cp.Load("key", &state)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", state.Phase)

	// no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
