package main

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
)

func TestParseURL(t *testing.T) {
	raw := parseURL("http://localhost:8080", proto.ParseRequest{
		Query:         `"exact phrase" -x`,
		Language:      "fr",
		CaseSensitive: true,
		Version:       2,
	})
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/parse", u.Path)
	assert.Equal(t, `"exact phrase" -x`, u.Query().Get("q"))
	assert.Equal(t, "fr", u.Query().Get("language"))
	assert.Equal(t, "true", u.Query().Get("caseSensitive"))
	assert.Empty(t, u.Query().Get("diacriticSensitive"))
	assert.Equal(t, "2", u.Query().Get("version"))
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	assert.Equal(t, 50*time.Millisecond, percentile(sorted, 50))
	assert.Equal(t, 99*time.Millisecond, percentile(sorted, 99))
	assert.Equal(t, 1*time.Millisecond, percentile(sorted, 0))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestRecordRequest(t *testing.T) {
	s := NewStats()
	s.RecordRequest(time.Millisecond, 200, true, nil)
	s.RecordRequest(time.Millisecond, 400, false, nil)
	s.RecordRequest(0, 0, false, assert.AnError)

	assert.Equal(t, int64(3), s.totalRequests.Load())
	assert.Equal(t, int64(1), s.successCount.Load())
	assert.Equal(t, int64(2), s.errorCount.Load())
	assert.Equal(t, int64(1), s.cacheHits.Load())
	assert.Len(t, s.latencies, 2)
}
