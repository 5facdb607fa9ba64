package cmd

import (
	"github.com/gnames/taxfinder/pkg/norm"
	"github.com/kljensen/snowball"
)

// snowballLangs maps supported locales to Snowball language names.
var snowballLangs = map[string]string{
	"ru": "russian",
	"en": "english",
	"fr": "french",
	"es": "spanish",
	"de": "german",
}

// stemmer adapts the Snowball stemmer to the MorphAnalyzer contract.
// A stem is not a dictionary form, but gazetteer lemmatized keys are
// produced with the same stemmer, so lookups stay consistent.
type stemmer struct {
	lang string
}

func (s stemmer) NormalForm(word string) string {
	stem, err := snowball.Stem(word, s.lang, false)
	if err != nil {
		return word
	}
	return stem
}

// morphForLocale returns the analyzer for a locale, nil when the locale
// has no Snowball stemmer. A nil analyzer degrades lemmatization to
// lowercasing.
func morphForLocale(locale string) norm.MorphAnalyzer {
	lang, ok := snowballLangs[locale]
	if !ok {
		return nil
	}
	return stemmer{lang: lang}
}
