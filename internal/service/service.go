// Package service is the parse pipeline shared by the HTTP and RPC
// surfaces: request validation and defaults, the parsed-query cache,
// metrics, tracing and analytics events around query.Parse.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/query"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/querycache"
	apperrors "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/tracing"
)

// Cache is the parsed-query cache surface the service uses.
type Cache interface {
	GetOrCompute(ctx context.Context, k querycache.Key, compute func() (*query.Query, error)) (*query.Query, bool, error)
	Invalidate(ctx context.Context) (int64, error)
	Stats() querycache.Stats
}

// Tracker receives one analytics event per parse.
type Tracker interface {
	Track(event analytics.ParseEvent)
}

// Config holds the defaults applied to requests that omit them.
type Config struct {
	DefaultLanguage string
	DefaultVersion  language.TextIndexVersion
	MaxQueryLength  int
}

// Service parses queries. Cache, Tracker and Metrics are optional.
type Service struct {
	cfg     Config
	cache   Cache
	tracker Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }
func WithTracker(t Tracker) Option { return func(s *Service) { s.tracker = t } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func New(cfg Config, opts ...Option) *Service {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "english"
	}
	if cfg.DefaultVersion == 0 {
		cfg.DefaultVersion = language.TextIndexVersionLatest
	}
	s := &Service{
		cfg:    cfg,
		logger: logger.WithComponent("query-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is a successful parse.
type Result struct {
	Query    *query.Query
	CacheHit bool
	Latency  time.Duration
}

// Response renders r in wire form.
func (r *Result) Response() *proto.ParseResponse {
	return &proto.ParseResponse{
		ParsedQuery: ToProto(r.Query),
		Debug:       r.Query.DebugString(),
		CacheHit:    r.CacheHit,
		LatencyMs:   float64(r.Latency.Microseconds()) / 1000,
	}
}

// Parse validates req, applies defaults and parses it, consulting the cache
// when one is configured.
func (s *Service) Parse(ctx context.Context, req proto.ParseRequest, source analytics.Source) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "query.parse")
	defer span.End()

	key, err := s.key(req)
	if err != nil {
		s.observe(ctx, req, key, source, nil, false, time.Since(start), err)
		return nil, err
	}
	span.SetAttr("language", key.Language)
	span.SetAttr("version", key.Version.String())

	compute := func() (*query.Query, error) {
		parseStart := time.Now()
		q, err := query.Parse(key.Text, key.Language, key.CaseSensitive, key.DiacriticSensitive, key.Version)
		if s.metrics != nil {
			s.metrics.ParseDuration.WithLabelValues(key.Version.String()).Observe(time.Since(parseStart).Seconds())
		}
		return q, err
	}

	var (
		q   *query.Query
		hit bool
	)
	if s.cache != nil {
		q, hit, err = s.cache.GetOrCompute(ctx, key, compute)
	} else {
		q, err = compute()
	}
	span.SetAttr("cache_hit", hit)

	latency := time.Since(start)
	s.observe(ctx, req, key, source, q, hit, latency, err)
	if err != nil {
		return nil, err
	}
	return &Result{Query: q, CacheHit: hit, Latency: latency}, nil
}

// Languages lists the identifiers accepted under version; zero selects the
// default version.
func (s *Service) Languages(version int) (*proto.LanguagesResponse, error) {
	v := s.cfg.DefaultVersion
	if version != 0 {
		var err error
		if v, err = language.ParseTextIndexVersion(version); err != nil {
			return nil, err
		}
	}
	return &proto.LanguagesResponse{
		Version:    int(v),
		Generation: v.Generation().String(),
		Languages:  language.Supported(v),
	}, nil
}

// InvalidateCache flushes the cache. Without a cache it fails with
// ErrUnavailable.
func (s *Service) InvalidateCache(ctx context.Context) (int64, error) {
	if s.cache == nil {
		return 0, fmt.Errorf("%w: query cache is disabled", apperrors.ErrUnavailable)
	}
	n, err := s.cache.Invalidate(ctx)
	if err != nil {
		return n, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	return n, nil
}

// CacheStats reports cache counters. ok is false when caching is disabled.
func (s *Service) CacheStats() (stats querycache.Stats, ok bool) {
	if s.cache == nil {
		return querycache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// MaxQueryLength is the longest accepted query, in runes.
func (s *Service) MaxQueryLength() int { return s.cfg.MaxQueryLength }

func (s *Service) key(req proto.ParseRequest) (querycache.Key, error) {
	key := querycache.Key{
		Text:               req.Query,
		Language:           req.Language,
		CaseSensitive:      req.CaseSensitive,
		DiacriticSensitive: req.DiacriticSensitive,
		Version:            s.cfg.DefaultVersion,
	}
	if key.Language == "" {
		key.Language = s.cfg.DefaultLanguage
	}
	if req.Version != 0 {
		v, err := language.ParseTextIndexVersion(req.Version)
		if err != nil {
			key.Version = language.TextIndexVersion(req.Version)
			return key, err
		}
		key.Version = v
	}
	if limit := s.cfg.MaxQueryLength; limit > 0 {
		if n := utf8.RuneCountInString(req.Query); n > limit {
			return key, apperrors.Newf(apperrors.ErrQueryTooLong, apperrors.HTTPStatusCode(apperrors.ErrQueryTooLong),
				"query has %d characters, limit is %d", n, limit)
		}
	}
	return key, nil
}

func (s *Service) observe(ctx context.Context, req proto.ParseRequest, key querycache.Key, source analytics.Source, q *query.Query, hit bool, latency time.Duration, err error) {
	code := apperrors.Code(err)
	log := s.logger
	if id := logger.RequestID(ctx); id != "" {
		log = log.With("request_id", id)
	}
	if err != nil {
		level := slog.LevelInfo
		if apperrors.HTTPStatusCode(err) >= 500 {
			level = slog.LevelError
		}
		log.Log(ctx, level, "parse rejected",
			"language", key.Language,
			"version", int(key.Version),
			"code", code,
			"error", err,
		)
	} else {
		log.Debug("parse completed",
			"language", q.Language(),
			"version", int(key.Version),
			"debug", q.DebugString(),
			"cache_hit", hit,
			"latency_us", latency.Microseconds(),
		)
	}

	if s.metrics != nil {
		s.metrics.ParseTotal.WithLabelValues(metricLanguage(key, err), metricVersion(key.Version), code).Inc()
		if q != nil {
			s.metrics.ParseTerms.WithLabelValues("positive_terms").Observe(float64(len(q.PositiveTerms())))
			s.metrics.ParseTerms.WithLabelValues("negated_terms").Observe(float64(len(q.NegatedTerms())))
			s.metrics.ParseTerms.WithLabelValues("phrases").Observe(float64(len(q.PositivePhrases()) + len(q.NegatedPhrases())))
			if res, rerr := language.Resolve(key.Version, key.Language); rerr == nil && res.Fallback {
				s.metrics.LegacyFallbacksTotal.Inc()
			}
		}
	}

	if s.tracker != nil {
		ev := analytics.ParseEvent{
			Type:               analytics.EventParse,
			Source:             source,
			Query:              req.Query,
			Language:           key.Language,
			Version:            int(key.Version),
			CaseSensitive:      key.CaseSensitive,
			DiacriticSensitive: key.DiacriticSensitive,
			LatencyUs:          latency.Microseconds(),
			CacheHit:           hit,
			Timestamp:          time.Now().UTC(),
			RequestID:          logger.RequestID(ctx),
		}
		if err != nil {
			ev.Type = analytics.EventParseError
			ev.ErrorCode = code
		} else {
			ev.Language = q.Language()
			ev.PositiveTerms = len(q.PositiveTerms())
			ev.NegatedTerms = len(q.NegatedTerms())
			ev.PositivePhrases = len(q.PositivePhrases())
			ev.NegatedPhrases = len(q.NegatedPhrases())
		}
		s.tracker.Track(ev)
	}
}

// metricLanguage keeps the language label bounded: unresolvable and legacy
// fallback identifiers collapse to fixed values. A request rejected for its
// version never had its language resolved and is labelled "unknown".
func metricLanguage(key querycache.Key, err error) string {
	switch {
	case errors.Is(err, language.ErrUnknownVersion):
		return "unknown"
	case errors.Is(err, language.ErrLanguageNotSupported):
		return "unsupported"
	}
	res, rerr := language.Resolve(key.Version, key.Language)
	switch {
	case errors.Is(rerr, language.ErrUnknownVersion):
		return "unknown"
	case rerr != nil:
		return "unsupported"
	case res.Fallback:
		return "fallback"
	default:
		return res.Name
	}
}

func metricVersion(v language.TextIndexVersion) string {
	if _, err := language.ParseTextIndexVersion(int(v)); err != nil {
		return "invalid"
	}
	return v.String()
}

// ToProto converts q to its wire form.
func ToProto(q *query.Query) proto.ParsedQuery {
	return proto.ParsedQuery{
		PositiveTerms:      nonNil(q.PositiveTerms()),
		NegatedTerms:       nonNil(q.NegatedTerms()),
		PositivePhrases:    nonNil(q.PositivePhrases()),
		NegatedPhrases:     nonNil(q.NegatedPhrases()),
		TermsForBounds:     nonNil(q.TermsForBounds()),
		CaseSensitive:      q.CaseSensitive(),
		DiacriticSensitive: q.DiacriticSensitive(),
		Language:           q.Language(),
		Version:            int(q.Version()),
	}
}

// nonNil keeps empty collections as [] rather than null on the wire.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
