package language

import (
	"strings"
	"unicode"

	"github.com/blevesearch/snowballstem"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// StemFunc maps a case-folded word to its stem.
type StemFunc func(word string) string

// StopwordFunc reports whether a case-folded word is a stopword.
type StopwordFunc func(word string) bool

// FoldFunc lowercases a word using the language's casing rules.
type FoldFunc func(word string) string

type algorithm func(env *snowballstem.Env) bool

// snowball wraps a generated Snowball algorithm as a StemFunc.
func snowball(algo algorithm) StemFunc {
	return func(word string) string {
		env := snowballstem.NewEnv(word)
		algo(env)
		return env.Current()
	}
}

func identityStem(word string) string { return word }

// folder returns a FoldFunc for tag. A cases.Caser carries state, so a new
// one is built per call.
func folder(tag xlanguage.Tag) FoldFunc {
	return func(word string) string {
		return cases.Lower(tag).String(word)
	}
}

// PreserveCase copies the casing of original onto stemmed, rune by rune.
// Where an original rune folds to the stemmed rune it is copied verbatim, so
// language-specific capitals such as Turkish İ survive; other capitals are
// upper-cased with the Unicode default mapping. Runes of stemmed past the end
// of original keep the algorithm's output.
func PreserveCase(original, stemmed string, fold FoldFunc) string {
	if fold == nil {
		fold = strings.ToLower
	}
	orig := []rune(original)
	out := []rune(stemmed)
	for i := range out {
		if i >= len(orig) {
			break
		}
		if !unicode.IsUpper(orig[i]) && !unicode.IsTitle(orig[i]) {
			continue
		}
		if fold(string(orig[i])) == string(out[i]) {
			out[i] = orig[i]
		} else {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}
