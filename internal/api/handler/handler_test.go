package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/service"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/tracing"
)

func newTestRouter(t *testing.T, opts ...service.Option) (http.Handler, *metrics.Metrics, *analytics.Aggregator) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	agg := analytics.NewAggregator()
	svc := service.New(service.Config{MaxQueryLength: 64}, append(opts, service.WithMetrics(m))...)
	router := NewRouter(New(svc, tracing.New(true, nil)), RouterConfig{
		Analytics: analytics.NewHandler(agg, nil),
		Health:    health.NewChecker(),
		Metrics:   m,
	})
	return router, m, agg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestParseEndpoint(t *testing.T) {
	router, m, _ := newTestRouter(t)

	rec := get(t, router, `/api/v1/parse?q=`+url.QueryEscape(`Positively -negatively "Phrase test"`)+`&caseSensitive=true`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	var resp proto.ParseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"Phrase", "Posit", "test"}, resp.PositiveTerms)
	assert.Equal(t, []string{"negat"}, resp.NegatedTerms)
	assert.Equal(t, []string{"Phrase test"}, resp.PositivePhrases)
	assert.Equal(t, []string{"phrase", "posit", "test"}, resp.TermsForBounds)
	assert.True(t, resp.CaseSensitive)
	assert.Equal(t, "english", resp.Language)
	assert.Equal(t, 3, resp.Version)
	assert.Equal(t, "Phrase|Posit|test||negat||Phrase test||", resp.Debug)
	assert.False(t, resp.CacheHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseTotal.WithLabelValues("english", "v3", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/parse", "200")))
}

func TestParseEndpointErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unsupported language", "/api/v1/parse?q=cats&language=klingon", http.StatusBadRequest, "language_not_supported"},
		{"unknown version", "/api/v1/parse?q=cats&version=5", http.StatusBadRequest, "unknown_version"},
		{"bad version", "/api/v1/parse?q=cats&version=three", http.StatusBadRequest, "invalid_input"},
		{"bad flag", "/api/v1/parse?q=cats&caseSensitive=maybe", http.StatusBadRequest, "invalid_input"},
		{"too long", "/api/v1/parse?q=" + strings.Repeat("a", 65), http.StatusRequestEntityTooLarge, "query_too_long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			var body proto.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestParseEndpointEmptyQuery(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := get(t, router, "/api/v1/parse")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp proto.ParseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "||||||", resp.Debug)
	assert.Equal(t, []string{}, resp.PositiveTerms)
}

func TestLanguagesEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := get(t, router, "/api/v1/languages?version=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp proto.LanguagesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "legacy", resp.Generation)
	assert.Contains(t, resp.Languages, "english")
	assert.Contains(t, resp.Languages, "none")

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/v1/languages?version=0x").Code)
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := get(t, router, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false,"hits":0,"misses":0,"hit_rate":0,"breaker_state":""}`, rec.Body.String())

	inv := httptest.NewRecorder()
	router.ServeHTTP(inv, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, inv.Code)

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, router, "/api/v1/cache/invalidate").Code)
}

func TestAnalyticsAndHealthMounted(t *testing.T) {
	router, _, agg := newTestRouter(t)
	agg.Record(analytics.ParseEvent{Type: analytics.EventParse, Language: "english", Query: "cats", PositiveTerms: 1})

	rec := get(t, router, "/api/v1/analytics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_parses":1`)

	assert.Equal(t, http.StatusOK, get(t, router, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/health/ready").Code)
}

func TestRouterRateLimitAndCORS(t *testing.T) {
	cors := middleware.DefaultCORSConfig("https://ui.example")
	router := NewRouter(New(service.New(service.Config{}), nil), RouterConfig{
		RateLimiter: ratelimit.New(2, time.Minute),
		CORS:        &cors,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parse?q=cats", nil)
	req.Header.Set("Origin", "https://ui.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusOK, get(t, router, "/api/v1/parse?q=dogs").Code)
	limited := get(t, router, "/api/v1/parse?q=birds")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get(middleware.RequestIDHeader))
}
