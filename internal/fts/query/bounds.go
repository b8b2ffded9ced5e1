package query

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
)

// deriveBoundsTerms returns the terms index bounds are computed from. Index
// keys are always case-folded, so case-sensitive terms are folded with the
// query language's rules; negated terms never narrow a scan and are not
// considered.
func deriveBoundsTerms(positive []string, caseSensitive bool, fold language.FoldFunc) []string {
	if !caseSensitive {
		return slices.Clone(positive)
	}
	if fold == nil {
		fold = strings.ToLower
	}
	set := newTermSet()
	for _, t := range positive {
		set.add(fold(t))
	}
	return set.sorted()
}

// foldFor finds the case folder a stored query was parsed with.
func foldFor(version language.TextIndexVersion, lang string) language.FoldFunc {
	res, err := language.Resolve(version, lang)
	if err != nil {
		return strings.ToLower
	}
	return res.Fold
}
