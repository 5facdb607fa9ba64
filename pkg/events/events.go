// Package events defines the progress stream a pipeline run emits and
// the summary produced at the end of a run. Consumers (the CLI, tests)
// receive events over a channel and never block the pipeline for long.
package events

import (
	"time"

	"github.com/gnames/taxfinder/pkg/taxon"
)

// Phase names one of the five pipeline stages.
type Phase string

const (
	PhaseExtraction Phase = "extraction"
	PhaseMerge      Phase = "merge"
	PhaseResolution Phase = "resolution"
	PhaseEnrichment Phase = "enrichment"
	PhaseAssembly   Phase = "assembly"
)

// Phases lists the stages in execution order.
func Phases() []Phase {
	return []Phase{
		PhaseExtraction,
		PhaseMerge,
		PhaseResolution,
		PhaseEnrichment,
		PhaseAssembly,
	}
}

// Event is one element of a run's progress stream. The concrete types
// are PhaseStarted, Progress, PhaseFinished, ResultReady, Note and
// Finished.
type Event interface {
	event()
}

// PhaseStarted opens a phase. Total is the number of work items the
// phase will process, 0 when unknown up front.
type PhaseStarted struct {
	Phase Phase
	Total int
}

// Progress reports that Done of Total items of a phase are complete.
// Done is monotonically non-decreasing within a phase. Detail carries
// an optional human-readable remark about the step.
type Progress struct {
	Phase  Phase
	Done   int
	Total  int
	Detail string
}

// PhaseFinished closes a phase.
type PhaseFinished struct {
	Phase    Phase
	Duration time.Duration
}

// Note is a user-facing remark tied to no particular item, for example
// a degraded-mode announcement.
type Note struct {
	Msg string
}

// ResultReady delivers one assembled result during the assembly phase.
type ResultReady struct {
	Result taxon.Result
}

// Finished is the last event of a successful run.
type Finished struct {
	Summary Summary
}

func (PhaseStarted) event()  {}
func (Progress) event()      {}
func (PhaseFinished) event() {}
func (Note) event()          {}
func (ResultReady) event()   {}
func (Finished) event()      {}

// Summary describes a completed run.
type Summary struct {
	// RunID is a fresh UUID minted at the start of the run.
	RunID string `json:"run_id"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// PhaseDurations holds wall-clock duration per executed phase.
	PhaseDurations map[Phase]time.Duration `json:"phase_durations"`

	// CandidatesFound counts raw candidates over all extractors.
	CandidatesFound int `json:"candidates_found"`

	// GroupsMerged counts unique mention groups after merge.
	GroupsMerged int `json:"groups_merged"`

	// Identified and Unidentified partition the final results.
	Identified   int `json:"identified"`
	Unidentified int `json:"unidentified"`

	// ApiCalls counts upstream search requests that went to the network.
	ApiCalls int `json:"api_calls"`

	// CacheHits counts search queries served from the disk cache.
	CacheHits int `json:"cache_hits"`

	// LlmCalls counts extractor and enricher completions together.
	LlmCalls int `json:"llm_calls"`

	// Skipped counts groups answered from the gazetteer without an
	// upstream search.
	Skipped int `json:"skipped"`
}

// Duration is the total wall-clock time of the run.
func (s Summary) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Estimate is the output of a dry run: the work a real run would do.
type Estimate struct {
	// Candidates counts raw candidates from the offline extractors
	// (gazetteer and Latin regex; the LLM extractor needs a live
	// runtime and is not consulted).
	Candidates int `json:"candidates"`

	// UniqueGroups is the number of merged mention groups, at least 1
	// when any candidate was found.
	UniqueGroups int `json:"unique_groups"`

	// SkipResolution counts groups answerable from the gazetteer alone.
	SkipResolution int `json:"skip_resolution"`

	// ApiCalls is the number of upstream searches a real run would
	// start with, before enrichment.
	ApiCalls int `json:"api_calls"`

	// LlmCalls is the upper bound of enrichment completions.
	LlmCalls int `json:"llm_calls"`

	// Seconds is a rough wall-clock estimate for the network and LLM
	// work.
	Seconds float64 `json:"estimated_seconds"`
}
