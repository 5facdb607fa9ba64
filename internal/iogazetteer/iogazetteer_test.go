package iogazetteer_test

import (
	"errors"
	"testing"

	"github.com/gnames/taxfinder/internal/iogazetteer"
	"github.com/gnames/taxfinder/internal/iotesting"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []iotesting.GazetteerRow {
	return []iotesting.GazetteerRow{
		{
			TaxonID: 13094, TaxonName: "Parus major", TaxonRank: "species",
			Ancestry:   "48460/1/2/355675/3",
			CommonName: "большая синица", Locale: "ru", IsPreferred: true,
			Normalized: "большая синица", Lemmatized: "большой синица",
		},
		{
			TaxonID: 13094, TaxonName: "Parus major", TaxonRank: "species",
			CommonName: "Great Tit", Locale: "en", IsPreferred: true,
			Normalized: "great tit", Lemmatized: "great tit",
		},
		{
			TaxonID: 13094, TaxonName: "Parus major", TaxonRank: "species",
			CommonName: "синица", Locale: "ru",
			Normalized: "синица", Lemmatized: "синица",
		},
		{
			TaxonID: 49005, TaxonName: "Lilium", TaxonRank: "genus",
			CommonName: "лилия", Locale: "ru", IsPreferred: true,
			Normalized: "лилия", Lemmatized: "лилия",
		},
	}
}

func TestMissingFile(t *testing.T) {
	_, err := iogazetteer.New("/no/such/gazetteer.db")
	require.Error(t, err)
	var missing iogazetteer.MissingGazetteerError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.MessageBase.Msg, "How to fix")
}

func TestSchemaMismatch(t *testing.T) {
	path := iotesting.NewGazetteerDB(t, sampleRows(), 99)
	_, err := iogazetteer.New(path)
	require.Error(t, err)
	var mismatch iogazetteer.SchemaMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Contains(t, err.Error(), "expected 1, got 99")
}

func TestNameMappings(t *testing.T) {
	assert := assert.New(t)
	path := iotesting.NewGazetteerDB(
		t, sampleRows(), config.GazetteerSchemaVersion,
	)
	store, err := iogazetteer.New(path)
	require.NoError(t, err)
	defer store.Close()

	nm, err := store.NameMappings("ru")
	require.NoError(t, err)
	assert.Equal([]int{13094}, nm.Normalized["большая синица"])
	assert.Equal([]int{13094}, nm.Normalized["синица"])
	assert.Equal([]int{49005}, nm.Lemmatized["лилия"])
	// English names are not part of the ru mappings
	assert.NotContains(nm.Normalized, "great tit")

	patterns := nm.Patterns()
	assert.Contains(patterns, "большая синица")
	assert.Contains(patterns, "большой синица")
}

func TestTaxonIDs(t *testing.T) {
	path := iotesting.NewGazetteerDB(
		t, sampleRows(), config.GazetteerSchemaVersion,
	)
	store, err := iogazetteer.New(path)
	require.NoError(t, err)
	defer store.Close()

	ids, err := store.TaxonIDs("синица", "ru")
	require.NoError(t, err)
	assert.Equal(t, []int{13094}, ids)

	ids, err = store.TaxonIDs("нет такого", "ru")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFullRecord(t *testing.T) {
	assert := assert.New(t)
	path := iotesting.NewGazetteerDB(
		t, sampleRows(), config.GazetteerSchemaVersion,
	)
	store, err := iogazetteer.New(path)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.FullRecord(13094, "ru")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal("Parus major", rec.Name)
	assert.Equal("species", rec.Rank)
	assert.Equal("48460/1/2/355675/3", rec.Ancestry)
	require.NotNil(t, rec.CommonNameEn)
	assert.Equal("Great Tit", *rec.CommonNameEn)
	require.NotNil(t, rec.CommonNameLoc)
	// the preferred ru name wins over the unpreferred one
	assert.Equal("большая синица", *rec.CommonNameLoc)

	rec, err = store.FullRecord(999999, "ru")
	require.NoError(t, err)
	assert.Nil(rec)
}

func TestFullRecordFallbackName(t *testing.T) {
	rows := []iotesting.GazetteerRow{
		{
			TaxonID: 5, TaxonName: "Dryocopus martius", TaxonRank: "species",
			CommonName: "желна", Locale: "ru",
			Normalized: "желна", Lemmatized: "желна",
		},
	}
	path := iotesting.NewGazetteerDB(t, rows, config.GazetteerSchemaVersion)
	store, err := iogazetteer.New(path)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.FullRecord(5, "ru")
	require.NoError(t, err)
	require.NotNil(t, rec)
	// no preferred flag set, the first ru name is the fallback
	require.NotNil(t, rec.CommonNameLoc)
	assert.Equal(t, "желна", *rec.CommonNameLoc)
	assert.Nil(t, rec.CommonNameEn)
}

func TestLatinNames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gnparser-backed test in short mode")
	}
	rows := []iotesting.GazetteerRow{
		{TaxonID: 1, TaxonName: "Parus major Linnaeus, 1758", TaxonRank: "species"},
		{TaxonID: 2, TaxonName: "Lilium", TaxonRank: "genus"},
	}
	path := iotesting.NewGazetteerDB(t, rows, config.GazetteerSchemaVersion)
	store, err := iogazetteer.New(path)
	require.NoError(t, err)
	defer store.Close()

	names, err := store.LatinNames()
	require.NoError(t, err)
	assert.Contains(t, names, "parus major linnaeus, 1758")
	// canonical form without authorship is also present
	assert.Contains(t, names, "parus major")
	assert.Contains(t, names, "lilium")
}
