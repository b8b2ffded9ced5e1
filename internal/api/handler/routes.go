package handler

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/ratelimit"
)

// RouterConfig collects what NewRouter mounts. Every pointer may be nil and
// RequestTimeout of zero disables the timeout.
type RouterConfig struct {
	Analytics      *analytics.Handler
	Health         *health.Checker
	Metrics        *metrics.Metrics
	RateLimiter    *ratelimit.Limiter
	CORS           *middleware.CORSConfig
	RequestTimeout time.Duration
}

// NewRouter mounts the API on a ServeMux and wraps it in the standard
// middleware chain.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/parse", h.Parse)
	mux.HandleFunc("GET /api/v1/languages", h.Languages)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if cfg.Analytics != nil {
		mux.HandleFunc("GET /api/v1/analytics", cfg.Analytics.Stats)
		mux.HandleFunc("GET /api/v1/analytics/snapshots", cfg.Analytics.Snapshots)
	}
	if cfg.Health != nil {
		mux.HandleFunc("GET /health/live", cfg.Health.LiveHandler())
		mux.HandleFunc("GET /health/ready", cfg.Health.ReadyHandler())
	}

	// Recover stays innermost: Timeout runs the handler on its own goroutine.
	mws := []func(http.Handler) http.Handler{middleware.RequestID}
	if cfg.CORS != nil {
		mws = append(mws, middleware.CORS(*cfg.CORS))
	}
	if cfg.Metrics != nil {
		mws = append(mws, middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		mws = append(mws, middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.RequestTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.RequestTimeout))
	}
	mws = append(mws, middleware.Recover)
	return middleware.Chain(mux, mws...)
}
