package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/query"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/resilience"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
	gets atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

func (s *memStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

var englishKey = Key{Text: "cats -dogs \"big fish\"", Language: "english", Version: language.TextIndexVersion3}

func parse(k Key) func() (*query.Query, error) {
	return func() (*query.Query, error) {
		return query.Parse(k.Text, k.Language, k.CaseSensitive, k.DiacriticSensitive, k.Version)
	}
}

func TestGetOrComputeCachesParse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := New(newMemStore(), time.Minute, WithMetrics(m))
	ctx := context.Background()

	first, hit, err := c.GetOrCompute(ctx, englishKey, parse(englishKey))
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.GetOrCompute(ctx, englishKey, func() (*query.Query, error) {
		t.Fatal("compute called on a cached key")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.DebugString(), second.DebugString())
	assert.Equal(t, first.TermsForBounds(), second.TermsForBounds())
	assert.Equal(t, first.Language(), second.Language())

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestErrorsAreNotCached(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute)
	k := Key{Text: "cats", Language: "klingon", Version: language.TextIndexVersion3}

	_, _, err := c.GetOrCompute(context.Background(), k, parse(k))
	assert.ErrorIs(t, err, language.ErrLanguageNotSupported)
	assert.Empty(t, store.data)
}

func TestKeysSeparateEveryInput(t *testing.T) {
	base := Key{Text: "Running", Language: "english", Version: language.TextIndexVersion3}
	variants := []Key{
		{Text: "running", Language: "english", Version: language.TextIndexVersion3},
		{Text: "Running", Language: "en", Version: language.TextIndexVersion3},
		{Text: "Running", Language: "english", CaseSensitive: true, Version: language.TextIndexVersion3},
		{Text: "Running", Language: "english", DiacriticSensitive: true, Version: language.TextIndexVersion3},
		{Text: "Running", Language: "english", Version: language.TextIndexVersion1},
		{Text: "englishRunning", Language: "", Version: language.TextIndexVersion3},
	}
	seen := map[string]bool{buildKey(base): true}
	for _, v := range variants {
		key := buildKey(v)
		assert.False(t, seen[key], "collision for %+v", v)
		seen[key] = true
		assert.True(t, strings.HasPrefix(key, keyPrefix))
	}
	assert.Equal(t, buildKey(base), buildKey(base))
}

func TestStoreFailureDegradesToMiss(t *testing.T) {
	store := newMemStore()
	store.fail(errors.New("connection refused"))
	c := New(store, time.Minute, WithBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour}))
	ctx := context.Background()

	for range 2 {
		q, hit, err := c.GetOrCompute(ctx, englishKey, parse(englishKey))
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Contains(t, q.PositiveTerms(), "cat")
	}
	assert.Equal(t, resilience.StateOpen, c.Stats().BreakerState)

	calls := store.gets.Load()
	_, hit := c.Get(ctx, englishKey)
	assert.False(t, hit)
	assert.Equal(t, calls, store.gets.Load(), "open breaker must not reach the store")
}

func TestSingleflightCollapsesConcurrentMisses(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	var computes atomic.Int64
	release := make(chan struct{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), englishKey, func() (*query.Query, error) {
				computes.Add(1)
				<-release
				return parse(englishKey)()
			})
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, computes.Load(), int64(8))
	assert.GreaterOrEqual(t, computes.Load(), int64(1))
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["unrelated"] = []byte("x")
	c := New(store, time.Minute)
	ctx := context.Background()

	_, _, err := c.GetOrCompute(ctx, englishKey, parse(englishKey))
	require.NoError(t, err)

	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Contains(t, store.data, "unrelated")

	_, hit := c.Get(ctx, englishKey)
	assert.False(t, hit)
}

func TestInvalidationListener(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute)
	ctx := context.Background()
	_, _, err := c.GetOrCompute(ctx, englishKey, parse(englishKey))
	require.NoError(t, err)

	l := NewInvalidationListener(c)
	require.NoError(t, l.HandleMessage(ctx, nil, []byte(`{"reason":"stopwords updated","source":"deploy"}`)))
	assert.Empty(t, store.data)

	assert.Error(t, l.HandleMessage(ctx, nil, []byte(`{`)))
}
