package ioconfig

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/pkg/errcode"
)

func NewReadError(path string, err error) error {
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  "Cannot read configuration <em>%s</em>",
		Vars: []any{path},
		Err: fmt.Errorf("from %s: cannot read config: %w",
			fn, err),
	}
}

func NewParseError(path string, err error) error {
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ConfigValidationError,
		Msg:  "Configuration <em>%s</em> is malformed",
		Vars: []any{path},
		Err: fmt.Errorf("from %s: cannot parse config: %w",
			fn, err),
	}
}
