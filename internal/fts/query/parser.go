package query

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/tokenizer"
)

// Parse turns a raw query into a Query. The language is resolved once under
// version; an unsupported language under a current-generation version fails
// with language.ErrLanguageNotSupported and no Query is returned.
//
// diacriticSensitive is recorded on the result but does not change how
// words are normalised.
func Parse(text, lang string, caseSensitive, diacriticSensitive bool, version language.TextIndexVersion) (*Query, error) {
	res, err := language.Resolve(version, lang)
	if err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}

	c := &classifier{
		res:           res,
		caseSensitive: caseSensitive,
		positive:      newTermSet(),
		negated:       newTermSet(),
	}
	lexer := tokenizer.NewLexer(text)
	for tok := range lexer.All() {
		c.consume(tok)
	}

	q := &Query{
		positiveTerms:      c.positive.sorted(),
		negatedTerms:       c.negated.sorted(),
		positivePhrases:    c.positivePhrases,
		negatedPhrases:     c.negatedPhrases,
		caseSensitive:      caseSensitive,
		diacriticSensitive: diacriticSensitive,
		language:           res.Name,
		version:            version,
	}
	q.termsForBounds = deriveBoundsTerms(q.positiveTerms, caseSensitive, res.Fold)
	return q, nil
}

// MustParse is Parse for queries known to be valid, such as fixtures.
func MustParse(text, lang string, caseSensitive bool, version language.TextIndexVersion) *Query {
	q, err := Parse(text, lang, caseSensitive, false, version)
	if err != nil {
		panic(err)
	}
	return q
}

type classifier struct {
	res             language.Resolution
	caseSensitive   bool
	positive        termSet
	negated         termSet
	positivePhrases []string
	negatedPhrases  []string
}

func (c *classifier) consume(tok tokenizer.Token) {
	switch tok.Kind {
	case tokenizer.KindWord:
		c.addWord(tok.Text, tok.Negated)
	case tokenizer.KindPhrase:
		if tok.Negated {
			// A negated phrase excludes by exact match only; its words add
			// no negated terms.
			c.negatedPhrases = append(c.negatedPhrases, tok.Text)
			return
		}
		c.positivePhrases = append(c.positivePhrases, tok.Text)
		for _, w := range tokenizer.Words(tok.Text) {
			c.addWord(w, false)
		}
	}
}

func (c *classifier) addWord(word string, negated bool) {
	folded := c.res.Fold(word)
	if c.res.IsStopword(folded) {
		return
	}
	term := c.res.Stem(folded)
	if c.caseSensitive {
		term = language.PreserveCase(word, term, c.res.Fold)
	}
	if negated {
		c.negated.add(term)
	} else {
		c.positive.add(term)
	}
}
