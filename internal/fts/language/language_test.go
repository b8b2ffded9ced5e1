package language

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCurrentGeneration(t *testing.T) {
	for _, id := range []string{"english", "en", "English", " EN "} {
		t.Run(id, func(t *testing.T) {
			r, err := Resolve(TextIndexVersion3, id)
			require.NoError(t, err)
			assert.Equal(t, "english", r.Name)
			assert.Equal(t, GenerationCurrent, r.Generation)
			assert.False(t, r.Fallback)
			assert.True(t, r.IsStopword("the"))
			assert.Equal(t, "run", r.Stem("running"))
		})
	}
}

func TestResolveCurrentRejectsUnknown(t *testing.T) {
	for _, v := range []TextIndexVersion{TextIndexVersion2, TextIndexVersion3} {
		_, err := Resolve(v, "klingon")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLanguageNotSupported)
		assert.Contains(t, err.Error(), "klingon")
	}
}

func TestResolveCurrentRejectsLegacyAlias(t *testing.T) {
	_, err := Resolve(TextIndexVersion2, "eng")
	assert.ErrorIs(t, err, ErrLanguageNotSupported)
}

func TestResolveLegacyFullName(t *testing.T) {
	r, err := Resolve(TextIndexVersion1, "english")
	require.NoError(t, err)
	assert.False(t, r.Fallback)
	assert.True(t, r.IsStopword("the"))
	assert.Equal(t, "run", r.Stem("running"))
}

func TestResolveLegacyShortFormDisablesStopwords(t *testing.T) {
	r, err := Resolve(TextIndexVersion1, "eng")
	require.NoError(t, err)
	assert.Equal(t, "english", r.Name)
	assert.False(t, r.Fallback)
	assert.False(t, r.IsStopword("the"))
	assert.Equal(t, "run", r.Stem("running"))
}

func TestResolveLegacyUnknownFallsBack(t *testing.T) {
	r, err := Resolve(TextIndexVersion1, "invalid-language-token")
	require.NoError(t, err)
	assert.True(t, r.Fallback)
	assert.Equal(t, "invalid-language-token", r.Name)
	assert.False(t, r.IsStopword("the"))
	assert.Equal(t, "running", r.Stem("running"))
}

func TestResolveLegacyISOCodeFallsBack(t *testing.T) {
	// Two-letter codes arrived with version 2.
	r, err := Resolve(TextIndexVersion1, "en")
	require.NoError(t, err)
	assert.True(t, r.Fallback)
}

func TestResolveNone(t *testing.T) {
	for _, v := range []TextIndexVersion{TextIndexVersion1, TextIndexVersion2, TextIndexVersion3} {
		r, err := Resolve(v, "none")
		require.NoError(t, err)
		assert.False(t, r.Fallback)
		assert.Equal(t, "running", r.Stem("running"))
		assert.False(t, r.IsStopword("the"))
	}
}

func TestResolveUnknownVersion(t *testing.T) {
	_, err := Resolve(TextIndexVersion(9), "english")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestEveryLanguageResolves(t *testing.T) {
	for _, def := range definitions {
		r, err := Resolve(TextIndexVersion3, def.name)
		require.NoError(t, err, def.name)
		assert.NotEmpty(t, def.stopwords, def.name)
		assert.NotEmpty(t, r.Stem("abcdef"), def.name)

		byCode, err := Resolve(TextIndexVersion3, def.iso6391)
		require.NoError(t, err, def.iso6391)
		assert.Equal(t, def.name, byCode.Name)

		for _, alias := range def.legacy {
			legacy, err := Resolve(TextIndexVersion1, alias)
			require.NoError(t, err, alias)
			assert.Equal(t, def.name, legacy.Name)
			assert.False(t, legacy.Fallback, alias)
		}
	}
}

func TestStemEnglish(t *testing.T) {
	r, err := Resolve(TextIndexVersion3, "english")
	require.NoError(t, err)
	cases := map[string]string{
		"really":     "realli",
		"positively": "posit",
		"negatively": "negat",
		"miserable":  "miser",
		"industry":   "industri",
		"melbourne":  "melbourn",
		"physics":    "physic",
		"phrase":     "phrase",
		"fun":        "fun",
	}
	for in, want := range cases {
		assert.Equal(t, want, r.Stem(in), in)
	}
}

func TestTurkishFold(t *testing.T) {
	tr, err := Resolve(TextIndexVersion3, "turkish")
	require.NoError(t, err)
	en, err := Resolve(TextIndexVersion3, "english")
	require.NoError(t, err)

	assert.Equal(t, "ıi", tr.Fold("Iİ"))
	assert.Equal(t, "hello", en.Fold("HeLLo"))
}

func TestPreserveCase(t *testing.T) {
	tests := []struct {
		original, stemmed, want string
	}{
		{"Positively", "posit", "Posit"},
		{"Negatively", "negat", "Negat"},
		{"miserable", "miser", "miser"},
		{"REALLY", "realli", "REALLI"},
		{"Go", "going", "Going"},
		{"", "x", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PreserveCase(tt.original, tt.stemmed, nil), tt.original)
	}
}

func TestPreserveCaseTurkish(t *testing.T) {
	tr, err := Resolve(TextIndexVersion3, "turkish")
	require.NoError(t, err)

	assert.Equal(t, "İstanbul", PreserveCase("İstanbul", "istanbul", tr.Fold))
	assert.Equal(t, "Irmak", PreserveCase("Irmak", "ırmak", tr.Fold))
	assert.Equal(t, "Istanbul", PreserveCase("İstanbul", "istanbul", nil))
}

func TestSupported(t *testing.T) {
	current := Supported(TextIndexVersion3)
	assert.Contains(t, current, "english")
	assert.Contains(t, current, "en")
	assert.NotContains(t, current, "eng")
	assert.IsNonDecreasing(t, current)

	legacy := Supported(TextIndexVersion1)
	assert.Contains(t, legacy, "eng")
	assert.NotContains(t, legacy, "en")
}

func TestParseTextIndexVersion(t *testing.T) {
	v, err := ParseTextIndexVersion(2)
	require.NoError(t, err)
	assert.Equal(t, TextIndexVersion2, v)
	assert.Equal(t, GenerationCurrent, v.Generation())
	assert.Equal(t, GenerationLegacy, TextIndexVersion1.Generation())

	_, err = ParseTextIndexVersion(0)
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestResolveConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := Resolve(TextIndexVersion3, "english")
			if !assert.NoError(t, err) {
				return
			}
			for j := 0; j < 100; j++ {
				assert.Equal(t, "run", r.Stem(r.Fold("RUNNING")))
			}
		}()
	}
	wg.Wait()
}
