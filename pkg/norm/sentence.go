package norm

import (
	"strings"
	"unicode/utf8"
)

// Span is a sentence of the text with its byte offsets. Text equals the
// slice text[Start:End] of the original input.
type Span struct {
	Start int
	End   int
	Text  string
}

// terminators end a sentence; closers may follow a terminator and stay
// inside the sentence.
const (
	terminators = ".!?…"
	closers     = `"'»)”’`
)

// Sentences splits text into sentence spans. A sentence ends after a run
// of terminator punctuation (plus closing quotes) followed by
// whitespace, or at a blank line. Offsets are byte positions; spans
// never overlap and carry no surrounding whitespace.
func Sentences(text string) []Span {
	var res []Span
	start := -1
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		// blank line always breaks a sentence
		if r == '\n' && strings.HasPrefix(text[i+size:], "\n") {
			if start >= 0 {
				res = appendSpan(res, text, start, i)
				start = -1
			}
			i += size
			continue
		}

		if start < 0 {
			if !isSpace(r) {
				start = i
			}
			i += size
			continue
		}

		if !strings.ContainsRune(terminators, r) {
			i += size
			continue
		}

		// consume the terminator run and trailing closers
		end := i
		for end < len(text) {
			r2, sz2 := utf8.DecodeRuneInString(text[end:])
			if !strings.ContainsRune(terminators, r2) &&
				!strings.ContainsRune(closers, r2) {
				break
			}
			end += sz2
		}
		next, _ := utf8.DecodeRuneInString(text[end:])
		if end >= len(text) || isSpace(next) {
			res = appendSpan(res, text, start, end)
			start = -1
		}
		i = end
	}
	if start >= 0 {
		res = appendSpan(res, text, start, len(text))
	}
	return res
}

// Context returns the sentence containing the byte offset start, falling
// back to the full line when no span covers it.
func Context(spans []Span, text string, start int) string {
	for _, s := range spans {
		if s.Start <= start && start < s.End {
			return s.Text
		}
	}
	return LineContext(text, start)
}

// SentenceIndex returns the index of the first span containing either
// edge of the byte range [start, end), or -1 when no span does.
func SentenceIndex(spans []Span, start, end int) int {
	for i, s := range spans {
		if (s.Start <= start && start < s.End) ||
			(s.Start < end && end <= s.End) {
			return i
		}
	}
	return -1
}

func appendSpan(res []Span, text string, start, end int) []Span {
	s := text[start:end]
	trimmed := strings.TrimRight(s, " \t\r\n")
	end = start + len(trimmed)
	if end <= start {
		return res
	}
	return append(res, Span{Start: start, End: end, Text: text[start:end]})
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', 0x85, 0xA0:
		return true
	}
	return false
}
