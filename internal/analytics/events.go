package analytics

import "time"

type EventType string

const (
	EventParse      EventType = "parse"
	EventParseError EventType = "parse_error"
)

// Source names the surface a parse came through.
type Source string

const (
	SourceHTTP Source = "http"
	SourceRPC  Source = "rpc"
	SourceCLI  Source = "cli"
)

// ParseEvent describes one parse request. Counts are recorded instead of
// the terms themselves so events stay small.
type ParseEvent struct {
	Type               EventType `json:"type"`
	Source             Source    `json:"source"`
	Query              string    `json:"query"`
	Language           string    `json:"language"`
	Version            int       `json:"version"`
	CaseSensitive      bool      `json:"case_sensitive"`
	DiacriticSensitive bool      `json:"diacritic_sensitive"`
	PositiveTerms      int       `json:"positive_terms"`
	NegatedTerms       int       `json:"negated_terms"`
	PositivePhrases    int       `json:"positive_phrases"`
	NegatedPhrases     int       `json:"negated_phrases"`
	ErrorCode          string    `json:"error_code,omitempty"`
	LatencyUs          int64     `json:"latency_us"`
	CacheHit           bool      `json:"cache_hit"`
	Timestamp          time.Time `json:"timestamp"`
	RequestID          string    `json:"request_id,omitempty"`
}

// Empty reports whether the parse produced nothing to match or exclude.
func (e ParseEvent) Empty() bool {
	return e.Type == EventParse &&
		e.PositiveTerms == 0 && e.NegatedTerms == 0 &&
		e.PositivePhrases == 0 && e.NegatedPhrases == 0
}
