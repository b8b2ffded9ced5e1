package language

import "fmt"

// TextIndexVersion identifies the on-disk text index format a query is
// parsed against. Versions are ordered; later versions never lose support for
// a language an earlier one accepted, except for the legacy aliases.
type TextIndexVersion int

const (
	TextIndexVersion1 TextIndexVersion = 1
	TextIndexVersion2 TextIndexVersion = 2
	TextIndexVersion3 TextIndexVersion = 3

	// TextIndexVersionLatest is used when a caller does not name a version.
	TextIndexVersionLatest = TextIndexVersion3
)

// Generation groups index versions that share language resolution rules.
type Generation int

const (
	GenerationLegacy Generation = iota
	GenerationCurrent
)

func (g Generation) String() string {
	switch g {
	case GenerationLegacy:
		return "legacy"
	case GenerationCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// ParseTextIndexVersion validates a numeric version.
func ParseTextIndexVersion(v int) (TextIndexVersion, error) {
	switch TextIndexVersion(v) {
	case TextIndexVersion1, TextIndexVersion2, TextIndexVersion3:
		return TextIndexVersion(v), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownVersion, v)
}

// Generation reports which resolution rules apply to v.
func (v TextIndexVersion) Generation() Generation {
	if v <= TextIndexVersion1 {
		return GenerationLegacy
	}
	return GenerationCurrent
}

func (v TextIndexVersion) String() string {
	return fmt.Sprintf("v%d", int(v))
}
