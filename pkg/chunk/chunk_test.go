package chunk_test

import (
	"strings"
	"testing"

	"github.com/gnames/taxfinder/pkg/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int, w string) string {
	res := make([]string, n)
	for i := range res {
		res[i] = w
	}
	return strings.Join(res, " ")
}

func TestUnknownStrategy(t *testing.T) {
	_, err := chunk.Split("text", "sentence", 10, 100, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentence")
}

func TestParagraphMerge(t *testing.T) {
	assert := assert.New(t)
	// three small paragraphs merge until the buffer reaches minWords
	text := words(5, "раз") + "\n\n" + words(5, "два") + "\n\n" + words(5, "три")
	res, err := chunk.Split(text, chunk.StrategyParagraph, 8, 100, nil)
	assert.Nil(err)
	require.Len(t, res, 2)
	assert.Equal(words(5, "раз")+"\n\n"+words(5, "два"), res[0])
	assert.Equal(words(5, "три"), res[1])
}

func TestParagraphOversized(t *testing.T) {
	assert := assert.New(t)
	text := words(25, "слово")
	res, err := chunk.Split(text, chunk.StrategyParagraph, 1, 10, nil)
	assert.Nil(err)
	// 25 words cut into windows of 10
	require.Len(t, res, 3)
	assert.Equal(words(10, "слово"), res[0])
	assert.Equal(words(5, "слово"), res[2])
}

func TestParagraphOversizedWithSplitter(t *testing.T) {
	assert := assert.New(t)
	splitter := func(text string) []string {
		return []string{words(6, "один"), words(6, "два")}
	}
	text := words(12, "x")
	res, err := chunk.Split(text, chunk.StrategyParagraph, 1, 10, splitter)
	assert.Nil(err)
	// sentences of 6 words do not fit a 10-word chunk together
	require.Len(t, res, 2)
	assert.Equal(words(6, "один"), res[0])
	assert.Equal(words(6, "два"), res[1])
}

func TestPageByWords(t *testing.T) {
	assert := assert.New(t)
	res, err := chunk.Split(words(7, "w"), chunk.StrategyPage, 0, 3, nil)
	assert.Nil(err)
	require.Len(t, res, 3)
	assert.Equal(words(3, "w"), res[0])
	assert.Equal("w", res[2])
}

func TestPageBySentences(t *testing.T) {
	assert := assert.New(t)
	splitter := func(text string) []string {
		return []string{"Раз два три.", "Четыре пять.", "Шесть семь восемь девять."}
	}
	res, err := chunk.Split("ignored", chunk.StrategyPage, 0, 5, splitter)
	assert.Nil(err)
	require.Len(t, res, 2)
	assert.Equal("Раз два три. Четыре пять.", res[0])
	assert.Equal("Шесть семь восемь девять.", res[1])
}

func TestEmptyText(t *testing.T) {
	assert := assert.New(t)
	res, err := chunk.Split("", chunk.StrategyParagraph, 10, 100, nil)
	assert.Nil(err)
	assert.Empty(res)

	res, err = chunk.Split("   \n\n  ", chunk.StrategyPage, 10, 100, nil)
	assert.Nil(err)
	assert.Empty(res)
}
