package iogazetteer

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnlib"
	"github.com/gnames/taxfinder/pkg/errcode"
)

// MissingGazetteerError is returned when the gazetteer file does not exist.
type MissingGazetteerError struct {
	error
	gnlib.MessageBase
}

// NewMissingGazetteerError creates a new missing gazetteer error.
func NewMissingGazetteerError(path string, err error) error {
	msgBase := gnlib.MessageBase{
		Msg: `<title>Gazetteer Not Found</title>
<warn>The gazetteer database <em>%s</em> does not exist.</warn>

<em>How to fix:</em>
  1. Point <em>gazetteer_path</em> in taxfinder.yaml to an existing database
  2. Or download a prebuilt gazetteer for your locale
  3. Or set <em>degraded_mode: true</em> to run without a gazetteer
     (only Latin-binomial and LLM extraction will be available)
`,
		Vars: []any{path},
	}

	return MissingGazetteerError{
		error:       fmt.Errorf("gazetteer not found: %s: %w", path, err),
		MessageBase: msgBase,
	}
}

// SchemaMismatchError is returned when PRAGMA user_version is not the
// expected gazetteer schema version.
type SchemaMismatchError struct {
	error
	gnlib.MessageBase
}

// NewSchemaMismatchError creates a new schema mismatch error.
func NewSchemaMismatchError(path string, want, got int) error {
	msgBase := gnlib.MessageBase{
		Msg: `<title>Gazetteer Schema Mismatch</title>
<warn>The gazetteer <em>%s</em> has schema version %d, expected %d.</warn>

<em>How to fix:</em>
  1. Download a gazetteer built for this version of taxfinder
  2. Or rebuild the gazetteer from source data
`,
		Vars: []any{path, got, want},
	}

	return SchemaMismatchError{
		error: fmt.Errorf(
			"gazetteer schema version mismatch: expected %d, got %d",
			want, got,
		),
		MessageBase: msgBase,
	}
}

func NewOpenError(path string, err error) error {
	return &gn.Error{
		Code: errcode.GazetteerOpenError,
		Msg:  "Cannot open gazetteer <em>%s</em>",
		Vars: []any{path},
		Err:  fmt.Errorf("cannot open gazetteer %s: %w", path, err),
	}
}

func NewQueryError(table string, err error) error {
	return &gn.Error{
		Code: errcode.GazetteerQueryError,
		Msg:  "Gazetteer query on <em>%s</em> failed",
		Vars: []any{table},
		Err:  fmt.Errorf("gazetteer query on %s failed: %w", table, err),
	}
}
