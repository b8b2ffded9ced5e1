// Package proto defines the message types exchanged over the JSON-over-TCP
// RPC layer (see pkg/grpc) and reused as HTTP response bodies.
package proto

// ParseRequest is the input to QueryService.Parse. Zero-valued Language and
// Version select the server's configured defaults.
type ParseRequest struct {
	Query              string `json:"query"`
	Language           string `json:"language,omitempty"`
	CaseSensitive      bool   `json:"case_sensitive"`
	DiacriticSensitive bool   `json:"diacritic_sensitive"`
	Version            int    `json:"version,omitempty"`
	RequestID          string `json:"request_id,omitempty"`
}

// ParsedQuery is the wire form of a parsed full-text query. Terms are
// sorted and unique; phrases keep query order.
type ParsedQuery struct {
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

// ParseResponse is the output of QueryService.Parse and GET /api/v1/parse.
type ParseResponse struct {
	ParsedQuery
	Debug     string  `json:"debug"`
	CacheHit  bool    `json:"cache_hit"`
	LatencyMs float64 `json:"latency_ms"`
}

// LanguagesRequest is the input to QueryService.Languages.
type LanguagesRequest struct {
	Version int `json:"version,omitempty"`
}

// LanguagesResponse lists the language identifiers a version accepts.
type LanguagesResponse struct {
	Version    int      `json:"version"`
	Generation string   `json:"generation"`
	Languages  []string `json:"languages"`
}

// CacheStatsResponse reports parsed-query cache effectiveness.
type CacheStatsResponse struct {
	Enabled      bool    `json:"enabled"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	BreakerState string  `json:"breaker_state"`
}

// InvalidateResponse confirms a cache flush.
type InvalidateResponse struct {
	Deleted int64 `json:"deleted"`
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
