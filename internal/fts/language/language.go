// Package language resolves a (text index version, language identifier) pair
// into the stemming, stopword and case-folding functions used to normalise
// query words. Tables are built once at init and only read afterwards, so
// Resolve is safe for concurrent use.
package language

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/snowballstem/danish"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/finnish"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/hungarian"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/norwegian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/romanian"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"github.com/blevesearch/snowballstem/turkish"
	xlanguage "golang.org/x/text/language"
)

var (
	ErrLanguageNotSupported = errors.New("language not supported")
	ErrUnknownVersion       = errors.New("unknown text index version")
)

// None disables stemming and stopword removal in every version.
const None = "none"

// Resolution is the outcome of resolving a language for one parse.
type Resolution struct {
	// Name is the canonical language name, or the identifier as given when
	// the legacy fallback was taken.
	Name       string
	Generation Generation
	// Fallback is set when a legacy identifier was unknown and resolution
	// fell back to LegacyFallback.
	Fallback   bool
	Stem       StemFunc
	IsStopword StopwordFunc
	Fold       FoldFunc
}

type definition struct {
	name      string
	iso6391   string
	legacy    []string
	algo      algorithm
	tag       xlanguage.Tag
	stopwords StopwordSet
}

var definitions = []*definition{
	{name: "danish", iso6391: "da", legacy: []string{"dan"}, algo: danish.Stem},
	{name: "dutch", iso6391: "nl", legacy: []string{"dut", "nld"}, algo: dutch.Stem},
	{name: "english", iso6391: "en", legacy: []string{"eng"}, algo: english.Stem},
	{name: "finnish", iso6391: "fi", legacy: []string{"fin"}, algo: finnish.Stem},
	{name: "french", iso6391: "fr", legacy: []string{"fre", "fra"}, algo: french.Stem},
	{name: "german", iso6391: "de", legacy: []string{"ger", "deu"}, algo: german.Stem},
	{name: "hungarian", iso6391: "hu", legacy: []string{"hun"}, algo: hungarian.Stem},
	{name: "italian", iso6391: "it", legacy: []string{"ita"}, algo: italian.Stem},
	{name: "norwegian", iso6391: "nb", legacy: []string{"nor"}, algo: norwegian.Stem},
	{name: "portuguese", iso6391: "pt", legacy: []string{"por"}, algo: portuguese.Stem},
	{name: "romanian", iso6391: "ro", legacy: []string{"rum", "ron"}, algo: romanian.Stem},
	{name: "russian", iso6391: "ru", legacy: []string{"rus"}, algo: russian.Stem},
	{name: "spanish", iso6391: "es", legacy: []string{"spa"}, algo: spanish.Stem},
	{name: "swedish", iso6391: "sv", legacy: []string{"swe"}, algo: swedish.Stem},
	{name: "turkish", iso6391: "tr", legacy: []string{"tur"}, algo: turkish.Stem, tag: xlanguage.Turkish},
}

var (
	byName    = make(map[string]*definition)
	byISO     = make(map[string]*definition)
	byLegacy  = make(map[string]*definition)
	undFolder = folder(xlanguage.Und)
)

func init() {
	for _, def := range definitions {
		stopwords, err := loadStopwords(def.name)
		if err != nil {
			panic(err)
		}
		def.stopwords = stopwords
		if def.tag == (xlanguage.Tag{}) {
			def.tag = xlanguage.Und
		}
		byName[def.name] = def
		byISO[def.iso6391] = def
		for _, alias := range def.legacy {
			byLegacy[alias] = def
		}
	}
}

// Resolve selects the stemmer, stopword predicate and case folder for a
// language under the given index version. Identifiers are matched without
// regard to case.
//
// Under the current generation an unknown identifier fails with
// ErrLanguageNotSupported. Under the legacy generation it never fails:
// three-letter aliases stem without stopwords and unknown identifiers
// resolve to LegacyFallback.
func Resolve(version TextIndexVersion, identifier string) (Resolution, error) {
	if _, err := ParseTextIndexVersion(int(version)); err != nil {
		return Resolution{}, err
	}
	gen := version.Generation()
	key := strings.ToLower(strings.TrimSpace(identifier))

	if key == None {
		return noneResolution(gen), nil
	}
	if def, ok := byName[key]; ok {
		return def.resolution(gen, true), nil
	}

	switch gen {
	case GenerationCurrent:
		if def, ok := byISO[key]; ok {
			return def.resolution(gen, true), nil
		}
		return Resolution{}, fmt.Errorf("%w: %q", ErrLanguageNotSupported, identifier)
	default:
		if def, ok := byLegacy[key]; ok {
			return def.resolution(gen, false), nil
		}
		return LegacyFallback(identifier), nil
	}
}

// LegacyFallback is what version 1 indexes used for a language they did not
// recognise: words pass through unstemmed and nothing is a stopword.
func LegacyFallback(identifier string) Resolution {
	return Resolution{
		Name:       identifier,
		Generation: GenerationLegacy,
		Fallback:   true,
		Stem:       identityStem,
		IsStopword: noStopwords,
		Fold:       undFolder,
	}
}

func noneResolution(gen Generation) Resolution {
	return Resolution{
		Name:       None,
		Generation: gen,
		Stem:       identityStem,
		IsStopword: noStopwords,
		Fold:       undFolder,
	}
}

func (d *definition) resolution(gen Generation, withStopwords bool) Resolution {
	r := Resolution{
		Name:       d.name,
		Generation: gen,
		Stem:       snowball(d.algo),
		IsStopword: noStopwords,
		Fold:       folder(d.tag),
	}
	if withStopwords {
		r.IsStopword = d.stopwords.Contains
	}
	return r
}

// Supported lists the identifiers Resolve accepts for version without
// falling back, sorted.
func Supported(version TextIndexVersion) []string {
	out := []string{None}
	for _, def := range definitions {
		out = append(out, def.name)
		if version.Generation() == GenerationCurrent {
			out = append(out, def.iso6391)
		} else {
			out = append(out, def.legacy...)
		}
	}
	sort.Strings(out)
	return out
}
