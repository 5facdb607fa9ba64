package iocache

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/pkg/errcode"
)

func NewOpenError(path string, err error) error {
	return &gn.Error{
		Code: errcode.CacheOpenError,
		Msg:  "Cannot open cache <em>%s</em>",
		Vars: []any{path},
		Err:  fmt.Errorf("cannot open cache %s: %w", path, err),
	}
}

func NewSchemaError(path string, want, got int) error {
	return &gn.Error{
		Code: errcode.CacheSchemaError,
		Msg:  "Cache <em>%s</em> has schema version %d, expected %d",
		Vars: []any{path, got, want},
		Err: fmt.Errorf(
			"cache schema version mismatch: expected %d, got %d", want, got,
		),
	}
}

func NewReadError(err error) error {
	return &gn.Error{
		Code: errcode.CacheReadError,
		Msg:  "Cache read failed",
		Err:  fmt.Errorf("cache read failed: %w", err),
	}
}

func NewWriteError(err error) error {
	return &gn.Error{
		Code: errcode.CacheWriteError,
		Msg:  "Cache write failed",
		Err:  fmt.Errorf("cache write failed: %w", err),
	}
}
