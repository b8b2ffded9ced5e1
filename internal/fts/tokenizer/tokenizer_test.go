package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func word(text string, negated bool, offset int) Token {
	return Token{Kind: KindWord, Text: text, Negated: negated, Offset: offset}
}

func phrase(text string, negated bool, offset int) Token {
	return Token{Kind: KindPhrase, Text: text, Negated: negated, Offset: offset}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{"empty", "", []Token{}},
		{"whitespace only", "  \t ", []Token{}},
		{"words", "this is fun", []Token{
			word("this", false, 0), word("is", false, 5), word("fun", false, 8),
		}},
		{"punctuation splits", "hello.world", []Token{
			word("hello", false, 0), word("world", false, 6),
		}},
		{"negated word", "this is -really fun", []Token{
			word("this", false, 0), word("is", false, 5), word("really", true, 8), word("fun", false, 16),
		}},
		{"phrase", `doing a "phrase test" for fun`, []Token{
			word("doing", false, 0), word("a", false, 6), phrase("phrase test", false, 8),
			word("for", false, 22), word("fun", false, 26),
		}},
		{"phrase keeps punctuation", `"phrase-test"`, []Token{phrase("phrase-test", false, 0)}},
		{"negated phrase", `foo -"bar"`, []Token{word("foo", false, 0), phrase("bar", true, 4)}},
		{"dash inside phrase is content", `foo "-bar"`, []Token{word("foo", false, 0), phrase("-bar", false, 4)}},
		{"phrase trimmed", `foo " -bar "`, []Token{word("foo", false, 0), phrase("-bar", false, 4)}},
		{"negated phrase with inner dash", `foo -" -bar"`, []Token{word("foo", false, 0), phrase("-bar", true, 4)}},
		{"unterminated phrase", `foo "bar baz`, []Token{word("foo", false, 0), phrase("bar baz", false, 4)}},
		{"empty phrase dropped", `foo "" "  " bar`, []Token{word("foo", false, 0), word("bar", false, 12)}},
		{"mid-word dash splits", "foo-bar", []Token{word("foo", false, 0), word("bar", false, 4)}},
		{"lone dash", "foo - bar -", []Token{word("foo", false, 0), word("bar", false, 6)}},
		{"double dash", "--foo", []Token{word("foo", false, 2)}},
		{"dash after punctuation", "(-foo)", []Token{word("foo", false, 2)}},
		{"negation covers one word", "-foo.bar", []Token{word("foo", true, 0), word("bar", false, 5)}},
		{"digits are words", "route 66", []Token{word("route", false, 0), word("66", false, 6)}},
		{"apostrophe splits", "don't", []Token{word("don", false, 0), word("t", false, 4)}},
		{"unicode letters", "café über", []Token{word("café", false, 0), word("über", false, 6)}},
		{"tab before dash negates", "a\t-b", []Token{word("a", false, 0), word("b", true, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestLexerIsSingleUse(t *testing.T) {
	l := NewLexer("a b")
	var got []string
	for tok := range l.All() {
		got = append(got, tok.Text)
	}
	assert.Equal(t, []string{"a", "b"}, got)

	_, ok := l.Next()
	assert.False(t, ok)
}

func TestAllStopsEarly(t *testing.T) {
	l := NewLexer("a b c")
	for tok := range l.All() {
		assert.Equal(t, "a", tok.Text)
		break
	}
	tok, ok := l.Next()
	assert.True(t, ok)
	assert.Equal(t, "b", tok.Text)
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"phrase", "test"}, Words("phrase-test"))
	assert.Equal(t, []string{"bar"}, Words(" -bar"))
	assert.Empty(t, Words("--- ..."))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "word", KindWord.String())
	assert.Equal(t, "phrase", KindPhrase.String())
}
