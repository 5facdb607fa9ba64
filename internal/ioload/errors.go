package ioload

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnlib"
	"github.com/gnames/taxfinder/pkg/errcode"
)

// FileTooBigError is returned when the input exceeds the configured
// size limit.
type FileTooBigError struct {
	error
	gnlib.MessageBase
}

// NewFileTooBigError creates a new file size error.
func NewFileTooBigError(path string, size int64, maxMB float64) error {
	sizeMB := float64(size) / (1024 * 1024)
	msgBase := gnlib.MessageBase{
		Msg: `<title>Input File Too Big</title>
<warn>The file <em>%s</em> is %.1f MB, the limit is %.1f MB.</warn>

<em>How to fix:</em>
  1. Split the input into smaller files
  2. Or raise <em>max_file_size_mb</em> in taxfinder.yaml
`,
		Vars: []any{path, sizeMB, maxMB},
	}

	return FileTooBigError{
		error: fmt.Errorf(
			"input file %s is %.1f MB, the limit is %.1f MB",
			path, sizeMB, maxMB,
		),
		MessageBase: msgBase,
	}
}

// EncodingError is returned when no known encoding produces plausible
// Cyrillic text.
type EncodingError struct {
	error
	gnlib.MessageBase
}

// NewEncodingError creates a new encoding detection error.
func NewEncodingError(path string) error {
	msgBase := gnlib.MessageBase{
		Msg: `<title>Unknown Input Encoding</title>
<warn>Cannot detect the encoding of <em>%s</em>.</warn>

<em>How to fix:</em>
  1. Convert the file to UTF-8, e.g. with
     <em>iconv -f CP1251 -t UTF-8 input.txt</em>
`,
		Vars: []any{path},
	}

	return EncodingError{
		error:       fmt.Errorf("cannot detect encoding of %s", path),
		MessageBase: msgBase,
	}
}

func NewMissingInputError(path string, err error) error {
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  "Input file <em>%s</em> does not exist",
		Vars: []any{path},
		Err:  fmt.Errorf("input file %s does not exist: %w", path, err),
	}
}

func NewReadError(path string, err error) error {
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  "Cannot read <em>%s</em>",
		Vars: []any{path},
		Err:  fmt.Errorf("cannot read %s: %w", path, err),
	}
}
