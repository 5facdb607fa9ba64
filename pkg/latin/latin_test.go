package latin_test

import (
	"testing"

	"github.com/gnames/taxfinder/pkg/latin"
	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/gnames/taxfinder/pkg/taxon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBinomial(t *testing.T) {
	assert := assert.New(t)
	ext := latin.New()
	text := "Мы нашли Quercus robur в лесу."
	cands := ext.Extract(text, norm.Sentences(text))
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal("Quercus robur", c.SourceText)
	assert.Equal("quercus robur", c.Normalized)
	assert.Equal(taxon.MethodLatinRegex, c.Method)
	assert.InEpsilon(0.7, c.Confidence, 0.001)
	assert.Equal(1, c.LineNumber)
	assert.Equal("Мы нашли Quercus robur в лесу.", c.SourceContext)
	assert.Equal("Quercus robur", text[c.StartChar:c.EndChar])
}

func TestExtractTrinomial(t *testing.T) {
	ext := latin.New()
	text := "Отмечен Motacilla alba alba у ручья."
	cands := ext.Extract(text, nil)
	require.Len(t, cands, 1)
	assert.Equal(t, "Motacilla alba alba", cands[0].SourceText)
}

func TestKnownNameConfidence(t *testing.T) {
	known := func(lower string) bool { return lower == "parus major" }
	ext := latin.New(latin.OptKnownName(known))
	text := "Видели Parus major и Quercus robur."
	cands := ext.Extract(text, nil)
	require.Len(t, cands, 2)
	assert.InEpsilon(t, 0.9, cands[0].Confidence, 0.001)
	assert.InEpsilon(t, 0.7, cands[1].Confidence, 0.001)
}

func TestStopPhrases(t *testing.T) {
	ext := latin.New()
	tests := []struct {
		msg, text string
		count     int
	}{
		{"et cetera", "Птицы, звери Et cetera разные.", 0},
		{"de facto", "Это De facto заповедник.", 0},
		{"modus operandi", "Его Modus operandi известен.", 0},
		{"real name", "Вот Parus major на ветке.", 1},
	}

	for _, v := range tests {
		cands := ext.Extract(v.text, nil)
		assert.Len(t, cands, v.count, v.msg)
	}
}

func TestShortWordFilter(t *testing.T) {
	ext := latin.New()
	// "Ab" has only 2 letters
	cands := ext.Extract("Ab initio rerum.", nil)
	assert.Empty(t, cands)
}

func TestPersonTitles(t *testing.T) {
	ext := latin.New()
	tests := []struct {
		msg, text string
		count     int
	}{
		{"dotted title", "Встретили Dr. Parus major там.", 0},
		{"bare title", "Работа von Humboldt alexander важна.", 0},
		{"no title", "Встретили Parus major там.", 1},
	}

	for _, v := range tests {
		cands := ext.Extract(v.text, nil)
		assert.Len(t, cands, v.count, v.msg)
	}
}

func TestLineNumbers(t *testing.T) {
	ext := latin.New()
	text := "первая строка\nвторая строка\nздесь Parus major сидит"
	cands := ext.Extract(text, nil)
	require.Len(t, cands, 1)
	assert.Equal(t, 3, cands[0].LineNumber)
}
