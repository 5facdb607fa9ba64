// Package ioload reads input text files. UTF-8 is expected; legacy
// Cyrillic encodings are tried as a fallback and the decode with the
// highest Cyrillic letter score wins.
package ioload

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// fallbacks are the legacy encodings tried when the input is not
// valid UTF-8.
var fallbacks = []struct {
	name string
	enc  encoding.Encoding
}{
	{"cp1251", charmap.Windows1251},
	{"koi8-r", charmap.KOI8R},
	{"iso8859-5", charmap.ISO8859_5},
	{"mac-cyrillic", charmap.MacintoshCyrillic},
}

// Text reads the file at path, enforcing the size limit and decoding
// legacy Cyrillic encodings when the content is not valid UTF-8.
func Text(path string, maxFileSizeMB float64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", NewMissingInputError(path, err)
	}

	maxBytes := int64(maxFileSizeMB * 1024 * 1024)
	if info.Size() > maxBytes {
		return "", NewFileTooBigError(path, info.Size(), maxFileSizeMB)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewReadError(path, err)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	return decodeFallback(path, data)
}

// decodeFallback decodes with every known legacy encoding and keeps
// the text scoring highest on Cyrillic letters.
func decodeFallback(path string, data []byte) (string, error) {
	var bestText string
	var bestScore int
	for _, fb := range fallbacks {
		decoded, err := fb.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(decoded)
		if score := cyrillicScore(text); score > bestScore {
			bestScore = score
			bestText = text
		}
	}

	if bestScore > 0 {
		return bestText, nil
	}
	return "", NewEncodingError(path)
}

// cyrillicScore weighs lowercase letters double, prose is mostly
// lowercase and a wrong decode tends to produce uppercase noise.
func cyrillicScore(text string) int {
	var lower, upper int
	for _, r := range text {
		switch {
		case (r >= 'а' && r <= 'я') || r == 'ё':
			lower++
		case (r >= 'А' && r <= 'Я') || r == 'Ё':
			upper++
		}
	}
	return lower*2 + upper
}
