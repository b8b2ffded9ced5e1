package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

const topLimit = 10

// AggregatedStats summarises parse traffic since the aggregator started
// (plus any seeded snapshot totals).
type AggregatedStats struct {
	TotalParses      int64            `json:"total_parses"`
	FailedParses     int64            `json:"failed_parses"`
	EmptyParses      int64            `json:"empty_parses"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	ByLanguage       map[string]int64 `json:"by_language"`
	ByVersion        map[string]int64 `json:"by_version"`
	BySource         map[string]int64 `json:"by_source"`
	ErrorsByCode     map[string]int64 `json:"errors_by_code"`
	CaseSensitive    int64            `json:"case_sensitive"`
	AvgLatencyUs     float64          `json:"avg_latency_us"`
	P50LatencyUs     int64            `json:"p50_latency_us"`
	P95LatencyUs     int64            `json:"p95_latency_us"`
	P99LatencyUs     int64            `json:"p99_latency_us"`
	TopQueries       []QueryCount     `json:"top_queries"`
	TopRejected      []QueryCount     `json:"top_rejected_languages"`
	QueriesPerMinute float64          `json:"queries_per_minute"`
	CapturedAt       time.Time        `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds ParseEvents into running statistics. It is safe for
// concurrent use.
type Aggregator struct {
	mu            sync.RWMutex
	totalParses   int64
	failedParses  int64
	emptyParses   int64
	cacheHits     int64
	cacheMisses   int64
	caseSensitive int64
	byLanguage    map[string]int64
	byVersion     map[string]int64
	bySource      map[string]int64
	errorsByCode  map[string]int64
	queryCounts   map[string]int64
	rejectedLangs map[string]int64
	latencies     []int64
	next          int
	startTime     time.Time
	now           func() time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byLanguage:    make(map[string]int64),
		byVersion:     make(map[string]int64),
		bySource:      make(map[string]int64),
		errorsByCode:  make(map[string]int64),
		queryCounts:   make(map[string]int64),
		rejectedLangs: make(map[string]int64),
		latencies:     make([]int64, 0, maxLatencySamples),
		startTime:     time.Now(),
		now:           time.Now,
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a Kafka message handler. Undecodable
// messages are reported as poison so the consumer skips them.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ParseEvent](value)
		if err != nil {
			agg.logger.Warn("failed to decode parse event", "error", err)
			return err
		}
		agg.Record(event)
		return nil
	}
}

// Record folds one event into the statistics.
func (a *Aggregator) Record(event ParseEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalParses++
	a.bySource[string(event.Source)]++
	a.byVersion["v"+strconv.Itoa(event.Version)]++

	if event.Type == EventParseError {
		a.failedParses++
		a.errorsByCode[event.ErrorCode]++
		if event.ErrorCode == "language_not_supported" {
			a.rejectedLangs[event.Language]++
		}
		return
	}

	a.byLanguage[event.Language]++
	a.queryCounts[event.Query]++
	if event.CaseSensitive {
		a.caseSensitive++
	}
	if event.Empty() {
		a.emptyParses++
	}
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyUs)
	} else {
		a.latencies[a.next] = event.LatencyUs
		a.next = (a.next + 1) % maxLatencySamples
	}
}

// Seed adds the counters of a previous snapshot, so totals survive restarts.
// Latency samples and top lists are not restored.
func (a *Aggregator) Seed(prev AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalParses += prev.TotalParses
	a.failedParses += prev.FailedParses
	a.emptyParses += prev.EmptyParses
	a.cacheHits += prev.CacheHits
	a.cacheMisses += prev.CacheMisses
	a.caseSensitive += prev.CaseSensitive
	addCounts(a.byLanguage, prev.ByLanguage)
	addCounts(a.byVersion, prev.ByVersion)
	addCounts(a.bySource, prev.BySource)
	addCounts(a.errorsByCode, prev.ErrorsByCode)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalParses:   a.totalParses,
		FailedParses:  a.failedParses,
		EmptyParses:   a.emptyParses,
		CacheHits:     a.cacheHits,
		CacheMisses:   a.cacheMisses,
		CaseSensitive: a.caseSensitive,
		ByLanguage:    maps.Clone(a.byLanguage),
		ByVersion:     maps.Clone(a.byVersion),
		BySource:      maps.Clone(a.bySource),
		ErrorsByCode:  maps.Clone(a.errorsByCode),
		TopQueries:    topN(a.queryCounts, topLimit),
		TopRejected:   topN(a.rejectedLangs, topLimit),
		CapturedAt:    a.now().UTC(),
	}
	if len(a.latencies) > 0 {
		sorted := slices.Clone(a.latencies)
		slices.Sort(sorted)

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyUs = float64(sum) / float64(len(sorted))
		stats.P50LatencyUs = percentile(sorted, 50)
		stats.P95LatencyUs = percentile(sorted, 95)
		stats.P99LatencyUs = percentile(sorted, 99)
	}
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalParses) / elapsed
	}
	return stats
}

func addCounts(dst, src map[string]int64) {
	for k, v := range src {
		dst[k] += v
	}
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, breaking ties by key so output is stable.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	slices.SortFunc(result, func(a, b QueryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Query, b.Query)
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
