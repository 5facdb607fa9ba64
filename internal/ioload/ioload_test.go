package ioload_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/taxfinder/internal/ioload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestUTF8(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("В лесу кричала желна.\n"))
	text, err := ioload.Text(path, 2.0)
	require.NoError(t, err)
	assert.Equal(t, "В лесу кричала желна.\n", text)
}

func TestMissingFile(t *testing.T) {
	_, err := ioload.Text("/no/such/notes.txt", 2.0)
	require.Error(t, err)
}

func TestTooBig(t *testing.T) {
	data := make([]byte, 2048)
	path := writeFile(t, "big.txt", data)

	_, err := ioload.Text(path, 0.001)
	require.Error(t, err)
	var tooBig ioload.FileTooBigError
	assert.True(t, errors.As(err, &tooBig))
}

func TestCp1251Fallback(t *testing.T) {
	original := "Утром мы видели большую синицу."
	data, err := charmap.Windows1251.NewEncoder().Bytes([]byte(original))
	require.NoError(t, err)
	path := writeFile(t, "legacy.txt", data)

	text, err := ioload.Text(path, 2.0)
	require.NoError(t, err)
	assert.Equal(t, original, text)
}

func TestKoi8rFallback(t *testing.T) {
	original := "За окном синица."
	data, err := charmap.KOI8R.NewEncoder().Bytes([]byte(original))
	require.NoError(t, err)
	path := writeFile(t, "legacy.txt", data)

	text, err := ioload.Text(path, 2.0)
	require.NoError(t, err)
	assert.Equal(t, original, text)
}

func TestUndetectableEncoding(t *testing.T) {
	// invalid UTF-8 with no plausible Cyrillic interpretation is
	// rejected rather than silently mangled; 0xa0 is a non-letter in
	// every fallback charset
	data := []byte{0xa0, 0x01, 0xa0}
	path := writeFile(t, "binary.txt", data)

	_, err := ioload.Text(path, 2.0)
	require.Error(t, err)
	var encErr ioload.EncodingError
	assert.True(t, errors.As(err, &encErr))
}
