package chunk

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/pkg/errcode"
)

func errBadStrategy(strategy string) error {
	return &gn.Error{
		Code: errcode.BadChunkStrategyError,
		Msg:  fmt.Sprintf("Unknown chunk strategy '%s'", strategy),
		Err: fmt.Errorf(
			"chunk: unknown strategy %q, want 'paragraph' or 'page'",
			strategy,
		),
	}
}
