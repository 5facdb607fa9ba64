package iopipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/taxfinder/internal/iogazetteer"
	"github.com/gnames/taxfinder/internal/iopipeline"
	"github.com/gnames/taxfinder/internal/iotesting"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/events"
	"github.com/gnames/taxfinder/pkg/gazetteer"
	"github.com/gnames/taxfinder/pkg/pipeline"
	"github.com/gnames/taxfinder/pkg/taxon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.New()
	cfg.INaturalist.CacheEnabled = false
	return cfg
}

func openStore(t *testing.T, rows []iotesting.GazetteerRow) gazetteer.Store {
	t.Helper()
	path := iotesting.NewGazetteerDB(t, rows, config.GazetteerSchemaVersion)
	store, err := iogazetteer.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func collect(
	t *testing.T,
	p pipeline.Pipeline,
	text string,
) []events.Event {
	t.Helper()
	var res []events.Event
	for ev := range p.Process(context.Background(), text) {
		res = append(res, ev)
	}
	require.NoError(t, p.Err())
	return res
}

func results(evs []events.Event) []taxon.Result {
	var res []taxon.Result
	for _, ev := range evs {
		if rr, ok := ev.(events.ResultReady); ok {
			res = append(res, rr.Result)
		}
	}
	return res
}

func summary(t *testing.T, evs []events.Event) events.Summary {
	t.Helper()
	require.NotEmpty(t, evs)
	fin, ok := evs[len(evs)-1].(events.Finished)
	require.True(t, ok, "the last event must be Finished")
	return fin.Summary
}

func TestGazetteerHitSkipsUpstream(t *testing.T) {
	assert := assert.New(t)
	store := openStore(t, []iotesting.GazetteerRow{
		{
			TaxonID: 120100, TaxonName: "Dryocopus martius",
			TaxonRank: "species", Ancestry: "1/2/3",
			CommonName: "желна", Locale: "ru", IsPreferred: true,
			Normalized: "желна", Lemmatized: "желна",
		},
	})
	searcher := iotesting.NewStubSearcher()

	p, err := iopipeline.New(
		testConfig(),
		iopipeline.OptStore(store),
		iopipeline.OptSearcher(searcher),
	)
	require.NoError(t, err)

	evs := collect(t, p, "В лесу кричала желна.")
	res := results(evs)

	require.Len(t, res, 1)
	r := res[0]
	assert.True(r.Identified)
	assert.Equal("желна", r.SourceText)
	assert.Equal(taxon.MethodGazetteer, r.ExtractionMethod)
	assert.InDelta(1.0, r.ExtractionConfidence, 0.001)
	require.Len(t, r.Matches, 1)
	m := r.Matches[0]
	assert.Equal(120100, m.TaxonID)
	assert.Equal("Dryocopus martius", m.Name)
	assert.InDelta(1.0, m.Score, 0.001)
	assert.Equal("https://www.inaturalist.org/taxa/120100", m.URL)
	require.NotNil(t, m.Taxonomy.Species)
	assert.Equal("Dryocopus martius", *m.Taxonomy.Species)

	// resolved from the gazetteer alone
	assert.Empty(searcher.Queries)
	s := summary(t, evs)
	assert.Equal(0, s.ApiCalls)
	assert.Equal(1, s.Identified)
	assert.Equal(0, s.Unidentified)
	assert.Equal(1, s.GroupsMerged)
	assert.Equal(1, s.Skipped)
	assert.NotEmpty(s.RunID)

	// the merge step reports the group count
	var mergeDetail string
	for _, ev := range evs {
		if pr, ok := ev.(events.Progress); ok && pr.Phase == events.PhaseMerge {
			mergeDetail = pr.Detail
		}
	}
	assert.Equal("1 unique candidates", mergeDetail)
}

func TestLatinBinomialResolvedUpstream(t *testing.T) {
	assert := assert.New(t)
	cfg := testConfig()
	cfg.DegradedMode = true
	cfg.GazetteerPath = filepath.Join(t.TempDir(), "absent.db")

	searcher := iotesting.NewStubSearcher()
	searcher.Respond("quercus robur", "ru", taxon.Match{
		TaxonID: 56133, Name: "Quercus robur", Rank: "species",
		MatchedName: "Quercus robur", Score: 9.1,
	})

	p, err := iopipeline.New(cfg, iopipeline.OptSearcher(searcher))
	require.NoError(t, err)

	evs := collect(t, p, "Мы видели Quercus robur у реки.")
	res := results(evs)

	// degraded mode is announced
	require.NotEmpty(t, evs)
	note, ok := evs[0].(events.Note)
	require.True(t, ok)
	assert.Contains(note.Msg, "degraded")

	require.Len(t, res, 1)
	r := res[0]
	assert.True(r.Identified)
	assert.Equal("Quercus robur", r.SourceText)
	assert.Equal(taxon.MethodLatinRegex, r.ExtractionMethod)

	// all search variants of a Latin name collapse into one query
	assert.Equal([]string{"quercus robur|ru"}, searcher.Queries)
	s := summary(t, evs)
	assert.Equal(1, s.ApiCalls)
	assert.Equal(0, s.Skipped)
}

func TestEnrichmentRecovery(t *testing.T) {
	assert := assert.New(t)
	// the record has no rank, so the group cannot skip resolution
	store := openStore(t, []iotesting.GazetteerRow{
		{
			TaxonID: 120100, TaxonName: "Dryocopus martius", TaxonRank: "",
			CommonName: "желна", Locale: "ru",
			Normalized: "желна", Lemmatized: "желна",
		},
	})

	searcher := iotesting.NewStubSearcher()
	loc := "желна"
	searcher.Respond("dryocopus martius", "ru", taxon.Match{
		TaxonID: 120100, Name: "Dryocopus martius", Rank: "species",
		CommonNameLoc: &loc, MatchedName: "Dryocopus martius", Score: 8.0,
	})

	llmStub := &iotesting.StubLlm{
		Replies: []string{
			`{"common_names_loc":["черный дятел"],
			  "common_names_en":["Black Woodpecker"],
			  "latin_names":["Dryocopus martius"]}`,
		},
	}

	cfg := testConfig()
	cfg.LlmEnricher = &config.LlmConfig{Enabled: true, Provider: "ollama"}

	p, err := iopipeline.New(
		cfg,
		iopipeline.OptStore(store),
		iopipeline.OptSearcher(searcher),
		iopipeline.OptLlmClient(llmStub),
		iopipeline.OptPrompts("extractor prompt", "enricher prompt"),
	)
	require.NoError(t, err)

	evs := collect(t, p, "В лесу кричала желна.")
	res := results(evs)

	require.Len(t, res, 1)
	r := res[0]
	assert.True(r.Identified)
	assert.Empty(r.CandidateNames)
	assert.Empty(r.Reason)
	require.NotNil(t, r.LlmResponse)
	assert.Equal([]string{"Dryocopus martius"}, r.LlmResponse.LatinNames)

	// the direct search failed, every enrichment name was tried
	assert.Equal(
		[]string{
			"желна|ru",
			"черный дятел|ru",
			"black woodpecker|ru",
			"dryocopus martius|ru",
		},
		searcher.Queries,
	)
	s := summary(t, evs)
	assert.Equal(1, s.LlmCalls)
	assert.Equal(1, s.Identified)
}

func TestConfidenceFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Confidence = 0.8
	cfg.DegradedMode = true
	cfg.GazetteerPath = filepath.Join(t.TempDir(), "absent.db")

	searcher := iotesting.NewStubSearcher()

	p, err := iopipeline.New(cfg, iopipeline.OptSearcher(searcher))
	require.NoError(t, err)

	// an unknown Latin binomial scores 0.7, below the threshold
	evs := collect(t, p, "Мы видели Quercus robur у реки.")
	assert.Empty(t, results(evs))
	s := summary(t, evs)
	assert.Equal(t, 0, s.Identified)
	assert.Equal(t, 0, s.Unidentified)
}

func TestEventOrdering(t *testing.T) {
	assert := assert.New(t)
	store := openStore(t, []iotesting.GazetteerRow{
		{
			TaxonID: 120100, TaxonName: "Dryocopus martius",
			TaxonRank: "species",
			CommonName: "желна", Locale: "ru",
			Normalized: "желна", Lemmatized: "желна",
		},
	})
	p, err := iopipeline.New(
		testConfig(),
		iopipeline.OptStore(store),
		iopipeline.OptSearcher(iotesting.NewStubSearcher()),
	)
	require.NoError(t, err)

	evs := collect(t, p, "В лесу кричала желна.")

	var started []events.Phase
	var finished []events.Phase
	resultSeen := false
	for i, ev := range evs {
		switch e := ev.(type) {
		case events.PhaseStarted:
			started = append(started, e.Phase)
		case events.PhaseFinished:
			finished = append(finished, e.Phase)
		case events.ResultReady:
			resultSeen = true
			// results appear only inside the assembly phase
			assert.Equal(events.PhaseAssembly, started[len(started)-1])
		case events.Finished:
			assert.Equal(len(evs)-1, i, "Finished must be last")
		}
	}
	assert.Equal(events.Phases(), started)
	assert.Equal(events.Phases(), finished)
	assert.True(resultSeen)
}

// brokenStore fails on every read, standing in for a gazetteer that
// disappears mid-run.
type brokenStore struct{}

func (brokenStore) NameMappings(string) (gazetteer.NameMappings, error) {
	return gazetteer.NameMappings{}, errors.New("read failed")
}

func (brokenStore) TaxonIDs(string, string) ([]int, error) {
	return nil, errors.New("read failed")
}

func (brokenStore) FullRecord(int, string) (*gazetteer.Record, error) {
	return nil, errors.New("read failed")
}

func (brokenStore) LatinNames() (map[string]struct{}, error) {
	return nil, errors.New("read failed")
}

func (brokenStore) Close() error { return nil }

func TestExtractionOpensBeforeGazetteerRead(t *testing.T) {
	p, err := iopipeline.New(
		testConfig(),
		iopipeline.OptStore(brokenStore{}),
		iopipeline.OptSearcher(iotesting.NewStubSearcher()),
	)
	require.NoError(t, err)

	var evs []events.Event
	for ev := range p.Process(context.Background(), "В лесу кричала желна.") {
		evs = append(evs, ev)
	}
	require.Error(t, p.Err())

	// the phase opens before the first gazetteer read
	require.NotEmpty(t, evs)
	started, ok := evs[0].(events.PhaseStarted)
	require.True(t, ok)
	assert.Equal(t, events.PhaseExtraction, started.Phase)
	assert.Equal(t, 0, started.Total)
}

func TestExtractionAnnouncesChunkTotal(t *testing.T) {
	store := openStore(t, []iotesting.GazetteerRow{
		{
			TaxonID: 120100, TaxonName: "Dryocopus martius",
			TaxonRank: "species",
			CommonName: "желна", Locale: "ru",
			Normalized: "желна", Lemmatized: "желна",
		},
	})
	cfg := testConfig()
	cfg.LlmExtractor = &config.LlmConfig{
		Enabled:       true,
		Provider:      "ollama",
		ChunkStrategy: "paragraph",
		MinChunkWords: 1,
		MaxChunkWords: 200,
	}
	llmStub := &iotesting.StubLlm{Replies: []string{`{"candidates":[]}`}}

	p, err := iopipeline.New(
		cfg,
		iopipeline.OptStore(store),
		iopipeline.OptSearcher(iotesting.NewStubSearcher()),
		iopipeline.OptLlmClient(llmStub),
		iopipeline.OptPrompts("extractor prompt", "enricher prompt"),
	)
	require.NoError(t, err)

	evs := collect(
		t, p, "В лесу кричала желна.\n\nРядом было совсем тихо.",
	)

	// the chunk count is known up front, before any extractor runs
	require.NotEmpty(t, evs)
	started, ok := evs[0].(events.PhaseStarted)
	require.True(t, ok)
	assert.Equal(t, events.PhaseExtraction, started.Phase)
	assert.Equal(t, 2, started.Total)
}

func TestCheckpointClearedOnSuccess(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := openStore(t, []iotesting.GazetteerRow{
		{
			TaxonID: 120100, TaxonName: "Dryocopus martius",
			TaxonRank: "species",
			CommonName: "желна", Locale: "ru",
			Normalized: "желна", Lemmatized: "желна",
		},
	})
	p, err := iopipeline.New(
		testConfig(),
		iopipeline.OptStore(store),
		iopipeline.OptSearcher(iotesting.NewStubSearcher()),
		iopipeline.OptCheckpointDir(dir),
	)
	require.NoError(t, err)

	collect(t, p, "В лесу кричала желна.")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCancellationSavesCheckpoint(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	p, err := iopipeline.New(
		func() *config.Config {
			cfg := testConfig()
			cfg.DegradedMode = true
			cfg.GazetteerPath = filepath.Join(t.TempDir(), "absent.db")
			return cfg
		}(),
		iopipeline.OptSearcher(iotesting.NewStubSearcher()),
		iopipeline.OptCheckpointDir(dir),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for range p.Process(ctx, "Мы видели Quercus robur у реки.") {
	}
	assert.ErrorIs(t, p.Err(), context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMissingGazetteerFatalWithoutDegradedMode(t *testing.T) {
	cfg := testConfig()
	cfg.GazetteerPath = filepath.Join(t.TempDir(), "absent.db")

	_, err := iopipeline.New(cfg)
	require.Error(t, err)
	var missing iogazetteer.MissingGazetteerError
	assert.ErrorAs(t, err, &missing)
}

func TestEstimate(t *testing.T) {
	assert := assert.New(t)
	store := openStore(t, []iotesting.GazetteerRow{
		{
			TaxonID: 120100, TaxonName: "Dryocopus martius",
			TaxonRank: "species",
			CommonName: "желна", Locale: "ru",
			Normalized: "желна", Lemmatized: "желна",
		},
	})
	cfg := testConfig()
	cfg.LlmExtractor = &config.LlmConfig{
		Enabled:       true,
		Provider:      "ollama",
		ChunkStrategy: "paragraph",
		MinChunkWords: 1,
		MaxChunkWords: 200,
	}

	p, err := iopipeline.New(
		cfg,
		iopipeline.OptStore(store),
		iopipeline.OptSearcher(iotesting.NewStubSearcher()),
	)
	require.NoError(t, err)

	est, err := p.Estimate("В лесу кричала желна. Рядом рос Quercus robur.")
	require.NoError(t, err)

	assert.Equal(2, est.Candidates)
	assert.Equal(2, est.UniqueGroups)
	assert.Equal(1, est.SkipResolution)
	assert.Equal(1, est.ApiCalls)
	assert.Equal(1, est.LlmCalls)
	assert.InDelta(1.0*1+2.0*1, est.Seconds, 0.001)
}
