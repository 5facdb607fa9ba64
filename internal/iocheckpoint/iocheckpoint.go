// Package iocheckpoint persists partial pipeline progress so an
// abandoned run does not lose paid-for API and LLM work. One JSON file
// per key, written atomically.
package iocheckpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsys"
	"github.com/gnames/taxfinder/pkg/config"
)

// Checkpoint stores run state keyed by input text and configuration.
type Checkpoint struct {
	baseDir string
}

// New creates the checkpoint directory if needed.
func New(baseDir string) (*Checkpoint, error) {
	if err := gnsys.MakeDir(baseDir); err != nil {
		return nil, NewCheckpointError(baseDir, err)
	}
	return &Checkpoint{baseDir: baseDir}, nil
}

// Key derives the checkpoint key from the input text and the full
// configuration, so a config change never resumes a stale run.
func Key(text string, cfg *config.Config) string {
	enc := gnfmt.GNjson{}
	cfgJSON, err := enc.Encode(cfg)
	if err != nil {
		cfgJSON = nil
	}
	sum := sha256.Sum256([]byte(text + "\n" + string(cfgJSON)))
	return hex.EncodeToString(sum[:])
}

// Save writes data under key, atomically via a temp file rename.
func (c *Checkpoint) Save(key string, data any) error {
	enc := gnfmt.GNjson{}
	payload, err := enc.Encode(data)
	if err != nil {
		return NewCheckpointError(c.pathFor(key), err)
	}

	tmp, err := os.CreateTemp(c.baseDir, key+".*.tmp")
	if err != nil {
		return NewCheckpointError(c.pathFor(key), err)
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(payload)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return NewCheckpointError(c.pathFor(key), err)
	}

	if err = os.Rename(tmpName, c.pathFor(key)); err != nil {
		os.Remove(tmpName)
		return NewCheckpointError(c.pathFor(key), err)
	}
	return nil
}

// Load reads the state under key into v. The second return value is
// false when no checkpoint exists.
func (c *Checkpoint) Load(key string, v any) (bool, error) {
	payload, err := os.ReadFile(c.pathFor(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, NewCheckpointError(c.pathFor(key), err)
	}

	enc := gnfmt.GNjson{}
	if err = enc.Decode(payload, v); err != nil {
		return false, NewCheckpointError(c.pathFor(key), err)
	}
	return true, nil
}

// Clear removes the checkpoint under key if it exists.
func (c *Checkpoint) Clear(key string) error {
	err := os.Remove(c.pathFor(key))
	if err != nil && !os.IsNotExist(err) {
		return NewCheckpointError(c.pathFor(key), err)
	}
	return nil
}

func (c *Checkpoint) pathFor(key string) string {
	return filepath.Join(c.baseDir, key+".json")
}
