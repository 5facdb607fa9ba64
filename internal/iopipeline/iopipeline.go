// Package iopipeline wires the five processing phases together:
// extraction, merge, resolution, enrichment and assembly. It owns the
// run lifecycle, the event stream and all external handles.
package iopipeline

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gnames/taxfinder/internal/iocache"
	"github.com/gnames/taxfinder/internal/iocheckpoint"
	"github.com/gnames/taxfinder/internal/ioenrich"
	"github.com/gnames/taxfinder/internal/ioextract"
	"github.com/gnames/taxfinder/internal/iogazetteer"
	"github.com/gnames/taxfinder/internal/iollm"
	"github.com/gnames/taxfinder/internal/iosearch"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/events"
	"github.com/gnames/taxfinder/pkg/gazetteer"
	"github.com/gnames/taxfinder/pkg/identify"
	"github.com/gnames/taxfinder/pkg/latin"
	"github.com/gnames/taxfinder/pkg/llm"
	"github.com/gnames/taxfinder/pkg/merge"
	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/pipeline"
	"github.com/gnames/taxfinder/pkg/ratelimit"
	"github.com/gnames/taxfinder/pkg/search"
	"github.com/gnames/taxfinder/pkg/taxon"
)

type pipe struct {
	cfg *config.Config

	store    gazetteer.Store
	searcher search.Searcher
	resolver identify.Resolver
	morph    norm.MorphAnalyzer
	limiter  ratelimit.Limiter

	// llmClient, when injected, serves both the extractor and the
	// enricher; otherwise clients are built per run from the config.
	llmClient llm.Client

	extPrompt string
	enrPrompt string

	cache         iocache.Cache
	checkpointDir string
	degraded      bool

	running atomic.Bool
	runErr  error
}

// Option injects a dependency, mostly for tests.
type Option func(*pipe)

// OptStore injects a gazetteer store.
func OptStore(s gazetteer.Store) Option {
	return func(p *pipe) { p.store = s }
}

// OptSearcher injects a taxon searcher.
func OptSearcher(s search.Searcher) Option {
	return func(p *pipe) { p.searcher = s }
}

// OptResolver injects an identification resolver.
func OptResolver(r identify.Resolver) Option {
	return func(p *pipe) { p.resolver = r }
}

// OptMorph injects a morphological analyzer.
func OptMorph(m norm.MorphAnalyzer) Option {
	return func(p *pipe) { p.morph = m }
}

// OptLlmClient injects one LLM client for both LLM phases.
func OptLlmClient(c llm.Client) Option {
	return func(p *pipe) { p.llmClient = c }
}

// OptLimiter injects a rate limiter shared by upstream searches.
func OptLimiter(l ratelimit.Limiter) Option {
	return func(p *pipe) { p.limiter = l }
}

// OptCheckpointDir enables checkpointing of abandoned runs.
func OptCheckpointDir(dir string) Option {
	return func(p *pipe) { p.checkpointDir = dir }
}

// OptPrompts sets the system prompts of the LLM extractor and the
// enricher. They must already have the locale substituted.
func OptPrompts(extractor, enricher string) Option {
	return func(p *pipe) {
		p.extPrompt = extractor
		p.enrPrompt = enricher
	}
}

// New builds a Pipeline from the configuration. Dependencies left
// uninjected are created here: the gazetteer store, rate limiter,
// response cache, upstream searcher and identification resolver.
func New(cfg *config.Config, opts ...Option) (pipeline.Pipeline, error) {
	p := &pipe{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.store == nil {
		store, err := iogazetteer.New(cfg.GazetteerPath)
		if err != nil {
			if !cfg.DegradedMode {
				return nil, err
			}
			p.degraded = true
		} else {
			p.store = store
		}
	}

	if p.resolver == nil {
		p.resolver = identify.New(p.morph)
	}

	if p.searcher == nil {
		if p.limiter == nil {
			p.limiter = ratelimit.New(
				cfg.INaturalist.RateLimit, cfg.INaturalist.BurstLimit,
			)
		}
		var searchOpts []iosearch.Option
		if cfg.INaturalist.CacheEnabled {
			cache, err := iocache.New(
				cfg.INaturalist.CachePath, cfg.INaturalist.CacheTTLDays,
			)
			if err != nil {
				return nil, err
			}
			p.cache = cache
			searchOpts = append(searchOpts, iosearch.OptCache(cache))
		}
		p.searcher = iosearch.New(
			cfg.INaturalist, cfg.UserAgent, p.limiter, searchOpts...,
		)
	}

	return p, nil
}

func (p *pipe) Process(
	ctx context.Context,
	text string,
) <-chan events.Event {
	ch := make(chan events.Event)
	if !p.running.CompareAndSwap(false, true) {
		p.runErr = errProcessActive()
		close(ch)
		return ch
	}

	go func() {
		defer p.running.Store(false)
		defer close(ch)
		p.runErr = p.run(ctx, text, ch)
	}()
	return ch
}

func (p *pipe) Err() error {
	return p.runErr
}

func (p *pipe) Close() error {
	var err error
	if p.store != nil {
		err = p.store.Close()
	}
	if p.cache != nil {
		if cerr := p.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// checkpointState is the partial progress saved when a run is
// abandoned mid-flight.
type checkpointState struct {
	Phase    events.Phase     `json:"phase"`
	Resolved []taxon.Resolved `json:"resolved"`
}

// runState carries the mutable state of one Process call.
type runState struct {
	ch        chan<- events.Event
	text      string
	sentences []norm.Span

	candidates []taxon.Candidate
	groups     []taxon.Group
	resolved   []taxon.Resolved

	llmCalls int
	skipped  int
	phase    events.Phase

	durations map[events.Phase]time.Duration
	cleanups  []func()

	checkpoint *iocheckpoint.Checkpoint
	cpKey      string
}

func (p *pipe) run(
	ctx context.Context,
	text string,
	ch chan<- events.Event,
) error {
	rs := &runState{
		ch:        ch,
		text:      text,
		sentences: norm.Sentences(text),
		durations: make(map[events.Phase]time.Duration),
	}
	defer func() {
		for i := len(rs.cleanups) - 1; i >= 0; i-- {
			rs.cleanups[i]()
		}
	}()

	if p.checkpointDir != "" {
		cp, err := iocheckpoint.New(p.checkpointDir)
		if err != nil {
			return err
		}
		rs.checkpoint = cp
		rs.cpKey = iocheckpoint.Key(text, p.cfg)
	}

	start := time.Now()
	runID := uuid.NewString()

	if p.degraded {
		if !p.send(ctx, rs, events.Note{
			Msg: "Gazetteer unavailable, running in degraded mode",
		}) {
			return p.abandon(ctx, rs)
		}
	}

	phases := []func(context.Context, *runState) (bool, error){
		p.extraction,
		p.merge,
		p.resolution,
		p.enrichment,
	}
	for _, phase := range phases {
		ok, err := phase(ctx, rs)
		if err != nil {
			return err
		}
		if !ok {
			return p.abandon(ctx, rs)
		}
	}

	identified, unidentified, ok := p.assembly(ctx, rs)
	if !ok {
		return p.abandon(ctx, rs)
	}

	stats := p.searcher.Stats()
	summary := events.Summary{
		RunID:           runID,
		Start:           start,
		End:             time.Now(),
		PhaseDurations:  rs.durations,
		CandidatesFound: len(rs.candidates),
		GroupsMerged:    len(rs.groups),
		Identified:      identified,
		Unidentified:    unidentified,
		ApiCalls:        stats.ApiCalls,
		CacheHits:       stats.CacheHits,
		LlmCalls:        rs.llmCalls,
		Skipped:         rs.skipped,
	}
	if !p.send(ctx, rs, events.Finished{Summary: summary}) {
		return p.abandon(ctx, rs)
	}

	if rs.checkpoint != nil {
		if err := rs.checkpoint.Clear(rs.cpKey); err != nil {
			return err
		}
	}
	return nil
}

// send delivers one event, giving up when the context is cancelled.
func (p *pipe) send(
	ctx context.Context,
	rs *runState,
	ev events.Event,
) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case rs.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// abandon persists partial progress of a cancelled run.
func (p *pipe) abandon(ctx context.Context, rs *runState) error {
	if rs.checkpoint != nil {
		state := checkpointState{Phase: rs.phase, Resolved: rs.resolved}
		if err := rs.checkpoint.Save(rs.cpKey, state); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (p *pipe) extraction(
	ctx context.Context,
	rs *runState,
) (bool, error) {
	rs.phase = events.PhaseExtraction
	t0 := time.Now()
	defer func() { rs.durations[events.PhaseExtraction] = time.Since(t0) }()

	// Total is announced up front: the chunk count when the LLM
	// extractor runs, 0 otherwise. Chunking needs no client.
	extCfg := p.cfg.LlmExtractor
	llmOn := extCfg != nil && extCfg.Enabled
	var total int
	if llmOn {
		chunks, err := ioextract.
			NewLlm(*extCfg, nil, p.morph, p.extPrompt).
			Chunks(rs.text)
		if err != nil {
			return false, err
		}
		total = len(chunks)
	}

	if !p.send(ctx, rs, events.PhaseStarted{
		Phase: events.PhaseExtraction, Total: total,
	}) {
		return false, nil
	}

	if p.store != nil {
		gazExt, err := ioextract.NewGazetteer(
			p.store, p.cfg.Locale, p.morph,
		)
		if err != nil {
			return false, err
		}
		rs.candidates = append(
			rs.candidates, gazExt.Extract(rs.text, rs.sentences)...,
		)
	}

	latinOpts := []latin.Option{latin.OptMorph(p.morph)}
	if p.store != nil {
		known, err := p.store.LatinNames()
		if err != nil {
			return false, err
		}
		latinOpts = append(latinOpts, latin.OptKnownName(
			func(lower string) bool {
				_, ok := known[lower]
				return ok
			},
		))
	}
	latinExt := latin.New(latinOpts...)
	rs.candidates = append(
		rs.candidates, latinExt.Extract(rs.text, rs.sentences)...,
	)

	if !llmOn {
		return p.finishPhase(ctx, rs, events.PhaseExtraction, t0), nil
	}

	client, err := p.llmFor(rs, *extCfg)
	if err != nil {
		return false, err
	}
	ext := ioextract.NewLlm(*extCfg, client, p.morph, p.extPrompt)

	cancelled := false
	llmCands, err := ext.Extract(ctx, rs.text, func(done, total int) {
		rs.llmCalls++
		if !p.send(ctx, rs, events.Progress{
			Phase: events.PhaseExtraction, Done: done, Total: total,
		}) {
			cancelled = true
		}
	})
	if cancelled || ctx.Err() != nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	rs.candidates = append(rs.candidates, llmCands...)

	return p.finishPhase(ctx, rs, events.PhaseExtraction, t0), nil
}

func (p *pipe) merge(ctx context.Context, rs *runState) (bool, error) {
	rs.phase = events.PhaseMerge
	t0 := time.Now()
	defer func() { rs.durations[events.PhaseMerge] = time.Since(t0) }()

	total := len(rs.candidates)
	if !p.send(ctx, rs, events.PhaseStarted{
		Phase: events.PhaseMerge, Total: total,
	}) {
		return false, nil
	}

	rs.groups = merge.Candidates(rs.candidates, p.skipCheck)

	if !p.send(ctx, rs, events.Progress{
		Phase:  events.PhaseMerge,
		Done:   total,
		Total:  total,
		Detail: fmt.Sprintf("%d unique candidates", len(rs.groups)),
	}) {
		return false, nil
	}
	return p.finishPhase(ctx, rs, events.PhaseMerge, t0), nil
}

// skipCheck reports whether a candidate is answerable from the
// gazetteer alone: every referenced taxon has a full record with a
// name and a rank.
func (p *pipe) skipCheck(c taxon.Candidate) bool {
	if c.Method != taxon.MethodGazetteer ||
		len(c.GazetteerTaxonIDs) == 0 || p.store == nil {
		return false
	}
	for _, tid := range c.GazetteerTaxonIDs {
		rec, err := p.store.FullRecord(tid, p.cfg.Locale)
		if err != nil || rec == nil {
			return false
		}
		if rec.Name == "" || rec.Rank == "" {
			return false
		}
	}
	return true
}

func (p *pipe) resolution(
	ctx context.Context,
	rs *runState,
) (bool, error) {
	rs.phase = events.PhaseResolution
	t0 := time.Now()
	defer func() { rs.durations[events.PhaseResolution] = time.Since(t0) }()

	var toSkip, toResolve []taxon.Group
	for _, g := range rs.groups {
		if g.SkipResolution {
			toSkip = append(toSkip, g)
		} else {
			toResolve = append(toResolve, g)
		}
	}
	rs.skipped = len(toSkip)

	if !p.send(ctx, rs, events.PhaseStarted{
		Phase: events.PhaseResolution, Total: len(toResolve),
	}) {
		return false, nil
	}

	for _, g := range toSkip {
		matches, err := p.matchesFromGazetteer(g)
		if err != nil {
			return false, err
		}
		identified, reason := p.resolver.Resolve(g, matches)
		rs.resolved = append(rs.resolved, taxon.Resolved{
			Group:      g,
			Matches:    matches,
			Identified: identified,
			Reason:     reason,
		})
	}

	for i, g := range toResolve {
		variants := norm.SearchVariants(g.Normalized, p.morph)
		var matches []taxon.Match
		identified := false
		reason := identify.ReasonNoMatches

		for _, variant := range variants {
			newMatches, err := p.searcher.Search(ctx, variant, p.cfg.Locale)
			if err != nil {
				return false, err
			}
			matches = identify.MergeMatches(matches, newMatches)
			identified, reason = p.resolver.Resolve(g, matches)
			if identified {
				break
			}
		}

		var candidateNames []string
		if !identified {
			candidateNames = variants
		}
		rs.resolved = append(rs.resolved, taxon.Resolved{
			Group:          g,
			Matches:        matches,
			Identified:     identified,
			CandidateNames: candidateNames,
			Reason:         reason,
		})

		if !p.send(ctx, rs, events.Progress{
			Phase: events.PhaseResolution,
			Done:  i + 1,
			Total: len(toResolve),
		}) {
			return false, nil
		}
	}
	return p.finishPhase(ctx, rs, events.PhaseResolution, t0), nil
}

// matchesFromGazetteer synthesizes upstream-shaped matches for a group
// that skips resolution. The first taxon ID scores 1.0, the rest 0.5.
func (p *pipe) matchesFromGazetteer(
	g taxon.Group,
) ([]taxon.Match, error) {
	if p.store == nil {
		return nil, nil
	}

	var res []taxon.Match
	seen := make(map[int]bool)
	for _, tid := range g.GazetteerTaxonIDs {
		if seen[tid] {
			continue
		}
		seen[tid] = true

		rec, err := p.store.FullRecord(tid, p.cfg.Locale)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}

		// ancestry holds bare IDs, only the focal rank is resolvable
		var taxonomy taxon.Taxonomy
		taxonomy.SetRank(rec.Rank, rec.Name)

		score := 0.5
		if len(g.GazetteerTaxonIDs) > 0 && tid == g.GazetteerTaxonIDs[0] {
			score = 1.0
		}
		res = append(res, taxon.Match{
			TaxonID:       rec.TaxonID,
			Name:          rec.Name,
			Rank:          rec.Rank,
			Taxonomy:      taxonomy,
			CommonNameEn:  rec.CommonNameEn,
			CommonNameLoc: rec.CommonNameLoc,
			MatchedName:   g.Normalized,
			URL:           gazetteerTaxonURL(rec.TaxonID),
			Score:         score,
		})
	}
	return res, nil
}

func (p *pipe) enrichment(
	ctx context.Context,
	rs *runState,
) (bool, error) {
	rs.phase = events.PhaseEnrichment
	t0 := time.Now()
	defer func() { rs.durations[events.PhaseEnrichment] = time.Since(t0) }()

	var unresolved []int
	for i := range rs.resolved {
		if !rs.resolved[i].Identified {
			unresolved = append(unresolved, i)
		}
	}

	enrCfg := p.cfg.LlmEnricher
	if enrCfg == nil || !enrCfg.Enabled || len(unresolved) == 0 {
		if !p.send(ctx, rs, events.PhaseStarted{
			Phase: events.PhaseEnrichment, Total: 0,
		}) {
			return false, nil
		}
		return p.finishPhase(ctx, rs, events.PhaseEnrichment, t0), nil
	}

	client, err := p.llmFor(rs, *enrCfg)
	if err != nil {
		return false, err
	}
	enricher := ioenrich.New(client, p.enrPrompt, enrCfg.MaxRetries)

	if !p.send(ctx, rs, events.PhaseStarted{
		Phase: events.PhaseEnrichment, Total: len(unresolved),
	}) {
		return false, nil
	}

	for n, idx := range unresolved {
		rc := rs.resolved[idx]
		enrichment := enricher.Enrich(
			ctx, rs.text, rc.Group, rs.sentences,
		)
		rs.llmCalls++

		triedNames := append([]string{}, rc.CandidateNames...)
		var extra []taxon.Match
		for _, alt := range enrichment.AllNames() {
			normAlt := norm.Normalize(alt)
			if slices.Contains(triedNames, normAlt) {
				continue
			}
			triedNames = append(triedNames, normAlt)
			newMatches, err := p.searcher.Search(ctx, normAlt, p.cfg.Locale)
			if err != nil {
				return false, err
			}
			extra = append(extra, newMatches...)
		}

		combined := identify.MergeMatches(rc.Matches, extra)
		identified, reason := p.resolver.Resolve(rc.Group, combined)
		if identified {
			triedNames = nil
			reason = ""
		}

		resp := enrichment
		rs.resolved[idx] = taxon.Resolved{
			Group:          rc.Group,
			Matches:        combined,
			Identified:     identified,
			LlmResponse:    &resp,
			CandidateNames: triedNames,
			Reason:         reason,
		}

		if !p.send(ctx, rs, events.Progress{
			Phase: events.PhaseEnrichment,
			Done:  n + 1,
			Total: len(unresolved),
		}) {
			return false, nil
		}
	}
	return p.finishPhase(ctx, rs, events.PhaseEnrichment, t0), nil
}

func (p *pipe) assembly(
	ctx context.Context,
	rs *runState,
) (identified, unidentified int, ok bool) {
	rs.phase = events.PhaseAssembly
	t0 := time.Now()
	defer func() { rs.durations[events.PhaseAssembly] = time.Since(t0) }()

	if !p.send(ctx, rs, events.PhaseStarted{
		Phase: events.PhaseAssembly, Total: len(rs.resolved),
	}) {
		return 0, 0, false
	}

	var filtered []taxon.Resolved
	for _, rc := range rs.resolved {
		if rc.Group.Confidence >= p.cfg.Confidence {
			filtered = append(filtered, rc)
		}
	}

	for i, rc := range filtered {
		result := buildResult(rc)
		if result.Identified {
			identified++
		} else {
			unidentified++
		}
		if !p.send(ctx, rs, events.ResultReady{Result: result}) {
			return 0, 0, false
		}
		if !p.send(ctx, rs, events.Progress{
			Phase: events.PhaseAssembly,
			Done:  i + 1,
			Total: len(filtered),
		}) {
			return 0, 0, false
		}
	}

	if !p.finishPhase(ctx, rs, events.PhaseAssembly, t0) {
		return 0, 0, false
	}
	return identified, unidentified, true
}

func (p *pipe) finishPhase(
	ctx context.Context,
	rs *runState,
	phase events.Phase,
	t0 time.Time,
) bool {
	return p.send(ctx, rs, events.PhaseFinished{
		Phase:    phase,
		Duration: time.Since(t0),
	})
}

// llmFor returns the injected LLM client or builds one for the phase,
// registering the runtime cleanup when one was started.
func (p *pipe) llmFor(
	rs *runState,
	cfg config.LlmConfig,
) (llm.Client, error) {
	if p.llmClient != nil {
		return p.llmClient, nil
	}
	client, cleanup, err := iollm.New(cfg, p.cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		rs.cleanups = append(rs.cleanups, cleanup)
	}
	return client, nil
}

func buildResult(rc taxon.Resolved) taxon.Result {
	sourceText := rc.Group.Normalized
	if len(rc.Group.Occurrences) > 0 {
		sourceText = rc.Group.Occurrences[0].SourceText
	}
	matches := rc.Matches
	if len(matches) > identify.MaxMatches {
		matches = matches[:identify.MaxMatches]
	}
	return taxon.Result{
		SourceText:           sourceText,
		Identified:           rc.Identified,
		ExtractionConfidence: rc.Group.Confidence,
		ExtractionMethod:     rc.Group.Method,
		Occurrences:          rc.Group.Occurrences,
		Matches:              matches,
		LlmResponse:          rc.LlmResponse,
		CandidateNames:       rc.CandidateNames,
		Reason:               rc.Reason,
	}
}

func gazetteerTaxonURL(taxonID int) string {
	return "https://www.inaturalist.org/taxa/" + strconv.Itoa(taxonID)
}
