// Package query parses a text-search query string into its structured form:
// positive and negated term sets, positive and negated phrase lists, and the
// terms an index scan should use for its bounds.
package query

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
)

// Query is the result of Parse. It is never modified after Parse returns
// and every accessor hands out a copy, so a *Query may be shared freely.
type Query struct {
	positiveTerms      []string
	negatedTerms       []string
	positivePhrases    []string
	negatedPhrases     []string
	termsForBounds     []string
	caseSensitive      bool
	diacriticSensitive bool
	language           string
	version            language.TextIndexVersion
}

// PositiveTerms returns the required terms in lexicographic order.
func (q *Query) PositiveTerms() []string { return slices.Clone(q.positiveTerms) }

// NegatedTerms returns the excluded terms in lexicographic order.
func (q *Query) NegatedTerms() []string { return slices.Clone(q.negatedTerms) }

// PositivePhrases returns the required phrases in query order.
func (q *Query) PositivePhrases() []string { return slices.Clone(q.positivePhrases) }

// NegatedPhrases returns the excluded phrases in query order.
func (q *Query) NegatedPhrases() []string { return slices.Clone(q.negatedPhrases) }

// TermsForBounds returns the lowercase terms used to compute index bounds.
func (q *Query) TermsForBounds() []string { return slices.Clone(q.termsForBounds) }

func (q *Query) CaseSensitive() bool                { return q.caseSensitive }
func (q *Query) DiacriticSensitive() bool           { return q.diacriticSensitive }
func (q *Query) Language() string                   { return q.language }
func (q *Query) Version() language.TextIndexVersion { return q.version }

// Empty reports whether the query has nothing to match or exclude.
func (q *Query) Empty() bool {
	return len(q.positiveTerms) == 0 && len(q.negatedTerms) == 0 &&
		len(q.positivePhrases) == 0 && len(q.negatedPhrases) == 0
}

// DebugString renders the four collections joined by "|" and separated by
// "||". It is meant for logs and test comparisons and cannot be parsed back.
func (q *Query) DebugString() string {
	var b strings.Builder
	b.WriteString(strings.Join(q.positiveTerms, "|"))
	b.WriteString("||")
	b.WriteString(strings.Join(q.negatedTerms, "|"))
	b.WriteString("||")
	b.WriteString(strings.Join(q.positivePhrases, "|"))
	b.WriteString("||")
	b.WriteString(strings.Join(q.negatedPhrases, "|"))
	return b.String()
}

func (q *Query) String() string {
	return q.DebugString()
}

type wireQuery struct {
	PositiveTerms      []string `json:"positive_terms"`
	NegatedTerms       []string `json:"negated_terms"`
	PositivePhrases    []string `json:"positive_phrases"`
	NegatedPhrases     []string `json:"negated_phrases"`
	TermsForBounds     []string `json:"terms_for_bounds"`
	CaseSensitive      bool     `json:"case_sensitive"`
	DiacriticSensitive bool     `json:"diacritic_sensitive"`
	Language           string   `json:"language"`
	Version            int      `json:"version"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireQuery{
		PositiveTerms:      nonNil(q.positiveTerms),
		NegatedTerms:       nonNil(q.negatedTerms),
		PositivePhrases:    nonNil(q.positivePhrases),
		NegatedPhrases:     nonNil(q.negatedPhrases),
		TermsForBounds:     nonNil(q.termsForBounds),
		CaseSensitive:      q.caseSensitive,
		DiacriticSensitive: q.diacriticSensitive,
		Language:           q.language,
		Version:            int(q.version),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Term sets are re-sorted and
// deduplicated and bounds terms are derived again rather than trusted.
func (q *Query) UnmarshalJSON(data []byte) error {
	var w wireQuery
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding query: %w", err)
	}
	version, err := language.ParseTextIndexVersion(w.Version)
	if err != nil {
		return fmt.Errorf("decoding query: %w", err)
	}
	pos := newTermSet()
	for _, t := range w.PositiveTerms {
		pos.add(t)
	}
	neg := newTermSet()
	for _, t := range w.NegatedTerms {
		neg.add(t)
	}
	*q = Query{
		positiveTerms:      pos.sorted(),
		negatedTerms:       neg.sorted(),
		positivePhrases:    slices.Clone(w.PositivePhrases),
		negatedPhrases:     slices.Clone(w.NegatedPhrases),
		caseSensitive:      w.CaseSensitive,
		diacriticSensitive: w.DiacriticSensitive,
		language:           w.Language,
		version:            version,
	}
	q.termsForBounds = deriveBoundsTerms(q.positiveTerms, q.caseSensitive, foldFor(version, w.Language))
	return nil
}
