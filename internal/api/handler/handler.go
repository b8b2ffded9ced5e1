// Package handler serves the query service's HTTP API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/tracing"
)

type Handler struct {
	svc    *service.Service
	tracer *tracing.Tracer
	logger *slog.Logger
}

// New builds a Handler. tracer may be nil.
func New(svc *service.Service, tracer *tracing.Tracer) *Handler {
	return &Handler{
		svc:    svc,
		tracer: tracer,
		logger: slog.Default().With("component", "api-handler"),
	}
}

// Parse serves GET /api/v1/parse?q=&language=&caseSensitive=&diacriticSensitive=&version=.
// A missing q parses the empty query.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.StartSpan(r.Context(), "http.parse")
	defer span.End()

	params := r.URL.Query()
	req := proto.ParseRequest{
		Query:     params.Get("q"),
		Language:  params.Get("language"),
		RequestID: logger.RequestID(ctx),
	}
	var err error
	if req.CaseSensitive, err = boolParam(params.Get("caseSensitive"), "caseSensitive"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.DiacriticSensitive, err = boolParam(params.Get("diacriticSensitive"), "diacriticSensitive"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Version, err = intParam(params.Get("version"), "version"); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.svc.Parse(ctx, req, analytics.SourceHTTP)
	if err != nil {
		span.SetAttr("error", apperrors.Code(err))
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res.Response())
}

// Languages serves GET /api/v1/languages?version=.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	version, err := intParam(r.URL.Query().Get("version"), "version")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.svc.Languages(version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheStats serves GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.svc.CacheStats()
	if !ok {
		h.writeJSON(w, http.StatusOK, proto.CacheStatsResponse{Enabled: false})
		return
	}
	h.writeJSON(w, http.StatusOK, proto.CacheStatsResponse{
		Enabled:      true,
		Hits:         stats.Hits,
		Misses:       stats.Misses,
		HitRate:      stats.HitRate(),
		BreakerState: stats.BreakerState.String(),
	})
}

// CacheInvalidate serves POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.InvalidateCache(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, proto.InvalidateResponse{Deleted: deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), proto.ErrorResponse{
		Error:     err.Error(),
		Code:      apperrors.Code(err),
		RequestID: logger.RequestID(r.Context()),
	})
}

func boolParam(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be a boolean", name)
	}
	return b, nil
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be an integer", name)
	}
	return n, nil
}
