// Package norm provides text normalization for Russian prose: casefolding
// with the ё/е merge, lemmatization via a pluggable morphological
// analyzer, and the ordered list of search variants for a mention.
//
// All positions in this package and its consumers are byte offsets into
// the original UTF-8 text.
package norm

import (
	"regexp"
	"strings"
)

// MorphAnalyzer reduces one word to its normal (dictionary) form. The
// word arrives in its original case; implementations fold case as
// needed. Implementations must be safe for concurrent use.
type MorphAnalyzer interface {
	NormalForm(word string) string
}

var (
	tokenRe    = regexp.MustCompile(`[A-Za-zА-Яа-яЁё]+`)
	cyrillicRe = regexp.MustCompile(`[А-Яа-яЁё]`)
)

// Normalize lowercases text and folds ё into е. The letter ё is optional
// in Russian orthography, so the folded form is the canonical lookup key.
func Normalize(text string) string {
	res := strings.ToLower(text)
	res = strings.ReplaceAll(res, "ё", "е")
	return res
}

// Lemmatize splits text into alphabetic tokens and joins their normal
// forms with single spaces. Cyrillic tokens go through morph when it is
// not nil; Latin tokens and tokens without an analyzer are lowercased
// as is.
func Lemmatize(text string, morph MorphAnalyzer) string {
	tokens := tokenRe.FindAllString(text, -1)
	lemmas := make([]string, len(tokens))
	for i, tok := range tokens {
		if morph != nil && cyrillicRe.MatchString(tok) {
			lemma := morph.NormalForm(tok)
			if lemma == "" {
				lemma = tok
			}
			lemmas[i] = Normalize(lemma)
		} else {
			lemmas[i] = strings.ToLower(tok)
		}
	}
	return strings.Join(lemmas, " ")
}

// SearchVariants returns the ordered, deduplicated list of query strings
// for a mention: lowercased original, normalized, lemmatized, and
// normalized lemmatized form. Empty variants are dropped.
func SearchVariants(text string, morph MorphAnalyzer) []string {
	lemmatized := Lemmatize(text, morph)
	forms := []string{
		strings.ToLower(text),
		Normalize(text),
		lemmatized,
		Normalize(lemmatized),
	}

	var res []string
	seen := make(map[string]struct{})
	for _, v := range forms {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	return res
}

// Token is one alphabetic token of the text with its byte offsets.
type Token struct {
	Start int
	End   int
	Text  string
}

// Tokens returns the alphabetic tokens of text in order.
func Tokens(text string) []Token {
	idxs := tokenRe.FindAllStringIndex(text, -1)
	res := make([]Token, len(idxs))
	for i, idx := range idxs {
		res[i] = Token{
			Start: idx[0],
			End:   idx[1],
			Text:  text[idx[0]:idx[1]],
		}
	}
	return res
}

// LineNumber returns the 1-based line of the byte offset start.
func LineNumber(text string, start int) int {
	if start > len(text) {
		start = len(text)
	}
	return strings.Count(text[:start], "\n") + 1
}

// LineContext returns the full line containing the byte offset start,
// without the newline characters.
func LineContext(text string, start int) string {
	if start > len(text) {
		start = len(text)
	}
	lineStart := strings.LastIndex(text[:start], "\n")
	lineStart++
	lineEnd := strings.Index(text[start:], "\n")
	if lineEnd == -1 {
		lineEnd = len(text)
	} else {
		lineEnd += start
	}
	return text[lineStart:lineEnd]
}
