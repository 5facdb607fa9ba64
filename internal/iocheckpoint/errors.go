package iocheckpoint

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/pkg/errcode"
)

func NewCheckpointError(path string, err error) error {
	return &gn.Error{
		Code: errcode.CheckpointError,
		Msg:  "Checkpoint operation on <em>%s</em> failed",
		Vars: []any{path},
		Err:  fmt.Errorf("checkpoint operation on %s failed: %w", path, err),
	}
}
