// Package chunk splits text into pieces small enough for one LLM
// request. Two strategies exist: "paragraph" groups paragraphs into
// chunks of a target word count, "page" slices the whole text by
// sentences or words.
package chunk

import (
	"strings"
)

// Strategy names a chunking algorithm.
type Strategy string

const (
	StrategyParagraph Strategy = "paragraph"
	StrategyPage      Strategy = "page"
)

// Splitter breaks text into sentence strings. It is optional; without
// one oversized pieces are cut at word boundaries.
type Splitter func(text string) []string

// overlap in words between consecutive windows of an oversized sentence.
const windowOverlap = 50

// Split cuts text into chunks according to strategy. Paragraph chunks
// are merged up to minWords and split above maxWords; the page strategy
// packs sentences (or raw words) up to maxWords per chunk.
func Split(
	text string,
	strategy Strategy,
	minWords, maxWords int,
	splitter Splitter,
) ([]string, error) {
	switch strategy {
	case StrategyParagraph:
		return splitParagraphs(text, minWords, maxWords, splitter), nil
	case StrategyPage:
		if splitter != nil {
			return bySentences(splitter(text), maxWords), nil
		}
		return byWords(text, maxWords), nil
	}
	return nil, errBadStrategy(string(strategy))
}

func splitParagraphs(
	text string,
	minWords, maxWords int,
	splitter Splitter,
) []string {
	var res []string
	var buf []string
	var bufWords int

	flush := func() {
		if len(buf) > 0 {
			res = append(res, strings.Join(buf, "\n\n"))
			buf = nil
			bufWords = 0
		}
	}

	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		words := wordCount(p)

		if words > maxWords {
			flush()
			if splitter != nil {
				res = append(res, bySentences(splitter(p), maxWords)...)
			} else {
				res = append(res, byWords(p, maxWords)...)
			}
			continue
		}

		if bufWords < minWords {
			buf = append(buf, p)
			bufWords += words
			if bufWords >= minWords {
				flush()
			}
			continue
		}

		res = append(res, p)
	}
	flush()
	return res
}

func bySentences(sentences []string, maxWords int) []string {
	var res []string
	var buf []string
	var bufWords int

	for _, sent := range sentences {
		words := wordCount(sent)
		if words > maxWords {
			if len(buf) > 0 {
				res = append(res, strings.Join(buf, " "))
				buf = nil
				bufWords = 0
			}
			res = append(res, slidingWindow(sent, maxWords, windowOverlap)...)
			continue
		}
		if bufWords+words <= maxWords {
			buf = append(buf, sent)
			bufWords += words
			continue
		}
		res = append(res, strings.Join(buf, " "))
		buf = []string{sent}
		bufWords = words
	}
	if len(buf) > 0 {
		res = append(res, strings.Join(buf, " "))
	}
	return res
}

func byWords(text string, maxWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var res []string
	for start := 0; start < len(words); start += maxWords {
		end := min(start+maxWords, len(words))
		res = append(res, strings.Join(words[start:end], " "))
	}
	return res
}

// slidingWindow cuts an oversized sentence into overlapping word
// windows so a name near a cut point still appears whole in one chunk.
func slidingWindow(text string, maxWords, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := max(maxWords-overlap, 1)
	var res []string
	for start := 0; start < len(words); start += step {
		end := min(start+maxWords, len(words))
		res = append(res, strings.Join(words[start:end], " "))
		if start+maxWords >= len(words) {
			break
		}
	}
	return res
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
