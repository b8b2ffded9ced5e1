// Package querycache stores parsed queries in Redis so repeated queries skip
// tokenizing and stemming. Concurrent misses for the same key are collapsed
// with singleflight, and a circuit breaker keeps a failing Redis from adding
// latency to every parse.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/query"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/resilience"
)

// keyPrefix is bumped whenever the cached encoding or parse semantics
// change, so stale entries are never decoded.
const keyPrefix = "fts:q1:"

const defaultOpTimeout = 50 * time.Millisecond

// Store is the subset of pkg/redis.Client the cache needs. Get must return
// pkgredis.ErrMiss for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies a parse by every input that affects its result.
type Key struct {
	Text               string
	Language           string
	CaseSensitive      bool
	DiacriticSensitive bool
	Version            language.TextIndexVersion
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits         int64
	Misses       int64
	BreakerState resilience.State
}

// HitRate returns hits as a fraction of all lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithMetrics reports hits, misses and breaker state to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) { c.metrics = m }
}

// WithOpTimeout bounds every Redis call.
func WithOpTimeout(d time.Duration) Option {
	return func(c *QueryCache) { c.opTimeout = d }
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *QueryCache) { c.breakerCfg = cfg }
}

type QueryCache struct {
	store      Store
	ttl        time.Duration
	opTimeout  time.Duration
	breakerCfg resilience.CircuitBreakerConfig
	breaker    *resilience.CircuitBreaker
	metrics    *metrics.Metrics
	group      singleflight.Group
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(store Store, ttl time.Duration, opts ...Option) *QueryCache {
	c := &QueryCache{
		store:     store,
		ttl:       ttl,
		opTimeout: defaultOpTimeout,
		logger:    slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	cfg := c.breakerCfg
	userHook := cfg.OnStateChange
	cfg.OnStateChange = func(name string, from, to resilience.State) {
		if c.metrics != nil {
			c.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
		if userHook != nil {
			userHook(name, from, to)
		}
	}
	c.breaker = resilience.NewCircuitBreaker("redis-query-cache", cfg)
	return c
}

// Get returns the cached parse for k. Every failure, including an open
// breaker, is reported as a miss.
func (c *QueryCache) Get(ctx context.Context, k Key) (*query.Query, bool) {
	key := buildKey(k)
	var data []byte
	err := c.call(ctx, "cache get", func(ctx context.Context) error {
		var err error
		data, err = c.store.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrMiss) {
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	if data == nil {
		c.recordMiss()
		return nil, false
	}
	var q query.Query
	if err := json.Unmarshal(data, &q); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "key", key)
	return &q, true
}

// Set stores q under k. Failures are logged, never returned.
func (c *QueryCache) Set(ctx context.Context, k Key, q *query.Query) {
	key := buildKey(k)
	data, err := json.Marshal(q)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.call(ctx, "cache set", func(ctx context.Context) error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached parse for k or runs compute, caching a
// successful result. Errors from compute are returned and never cached. The
// bool reports a cache hit.
func (c *QueryCache) GetOrCompute(ctx context.Context, k Key, compute func() (*query.Query, error)) (*query.Query, bool, error) {
	if q, ok := c.Get(ctx, k); ok {
		return q, true, nil
	}
	val, err, _ := c.group.Do(buildKey(k), func() (any, error) {
		q, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, k, q)
		return q, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*query.Query), false, nil
}

// Invalidate deletes every cached parse and returns the number removed.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = c.store.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		BreakerState: c.breaker.State(),
	}
}

func (c *QueryCache) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.WithTimeout(ctx, c.opTimeout, name, fn)
	})
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes k with length-prefixed fields so no two distinct keys
// share an encoding.
func buildKey(k Key) string {
	h := sha256.New()
	var flags [3]byte
	if k.CaseSensitive {
		flags[0] = 1
	}
	if k.DiacriticSensitive {
		flags[1] = 1
	}
	flags[2] = byte(k.Version)
	h.Write(flags[:])
	for _, s := range []string{k.Language, k.Text} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
