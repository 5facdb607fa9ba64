// Package pipeline defines the contract of the five-phase processing
// pipeline: extraction, merge, resolution, enrichment, assembly. The
// implementation lives in internal/iopipeline.
package pipeline

import (
	"context"

	"github.com/gnames/taxfinder/pkg/events"
)

// Pipeline processes localized prose into taxon results.
type Pipeline interface {
	// Process runs the five phases over text and streams progress and
	// results. The channel closes when the run finishes, fails, or ctx
	// is cancelled; check Err afterwards. Only one Process call may be
	// active at a time.
	Process(ctx context.Context, text string) <-chan events.Event

	// Err reports the failure of the last finished Process run, nil on
	// success.
	Err() error

	// Estimate reports the work a run over text would do, without any
	// network or LLM calls.
	Estimate(text string) (events.Estimate, error)

	// Close releases the gazetteer and cache handles.
	Close() error
}
