// Package tokenizer splits a raw text-search query into words and quoted
// phrases. Any rune that is not a letter or digit separates words; a double
// quote opens a phrase that runs to the next double quote or to the end of
// the input; a '-' at the start of a word or phrase negates it.
package tokenizer

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind distinguishes bare words from quoted phrases.
type Kind int

const (
	KindWord Kind = iota
	KindPhrase
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindPhrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a query. Phrase text is the verbatim content
// between the quotes with surrounding whitespace trimmed.
type Token struct {
	Kind    Kind
	Text    string
	Negated bool
	Offset  int
}

const (
	quote    = '"'
	negation = '-'
)

// IsWordRune reports whether r is part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Words splits text into words using the same rule the lexer applies
// outside of quotes. Negation marks carry no meaning here.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !IsWordRune(r)
	})
}

// Lexer produces tokens from a query left to right. It is single use.
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a Lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token, or false once the input is exhausted.
func (l *Lexer) Next() (Token, bool) {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		switch {
		case r == quote:
			if tok, ok := l.phrase(l.pos, false); ok {
				return tok, true
			}
		case r == negation && l.atBoundary():
			next, nextSize := utf8.DecodeRuneInString(l.input[l.pos+size:])
			switch {
			case next == quote:
				start := l.pos
				l.pos += size
				if tok, ok := l.phrase(start, true); ok {
					return tok, true
				}
			case nextSize > 0 && IsWordRune(next):
				start := l.pos
				l.pos += size
				tok := l.word()
				tok.Negated = true
				tok.Offset = start
				return tok, true
			default:
				l.pos += size
			}
		case IsWordRune(r):
			return l.word(), true
		default:
			l.pos += size
		}
	}
	return Token{}, false
}

// All yields the remaining tokens.
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok, ok := l.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Tokenize lexes the whole input.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	tokens := make([]Token, 0, len(input)/4)
	for tok := range l.All() {
		tokens = append(tokens, tok)
	}
	return tokens
}

// atBoundary reports whether the current rune starts the input or follows
// whitespace. Only there does '-' mean negation.
func (l *Lexer) atBoundary() bool {
	if l.pos == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(l.input[:l.pos])
	return unicode.IsSpace(prev)
}

func (l *Lexer) word() Token {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !IsWordRune(r) {
			break
		}
		l.pos += size
	}
	return Token{Kind: KindWord, Text: l.input[start:l.pos], Offset: start}
}

// phrase consumes from the opening quote at l.pos to the closing quote or
// end of input. A phrase with no content after trimming yields no token.
func (l *Lexer) phrase(offset int, negated bool) (Token, bool) {
	l.pos++
	body := l.input[l.pos:]
	end := strings.IndexRune(body, quote)
	if end < 0 {
		l.pos = len(l.input)
	} else {
		body = body[:end]
		l.pos += end + 1
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return Token{}, false
	}
	return Token{Kind: KindPhrase, Text: text, Negated: negated, Offset: offset}, true
}
