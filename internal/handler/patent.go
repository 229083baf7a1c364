package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/patlas/patlas/internal/metrics"
	"github.com/patlas/patlas/internal/platform"
	"github.com/patlas/patlas/internal/service"
)

// PatentHandler serves patent lookups and the search proxy.
type PatentHandler struct {
	svc      *service.PatentService
	platform *platform.Client
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewPatentHandler creates a PatentHandler.
func NewPatentHandler(svc *service.PatentService, p *platform.Client, logger *slog.Logger, rec metrics.Recorder) *PatentHandler {
	return &PatentHandler{
		svc:      svc,
		platform: p,
		logger:   logger,
		metrics:  rec,
	}
}

// Search handles POST /api/v1/patents/search.
// Pass-through proxy: upstream status and content-type survive intact.
func (h *PatentHandler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.platform.ProxySearch(w, r)
	h.metrics.ObserveSearchDuration(time.Since(start))
}

// Get handles GET /api/v1/patents/{id}.
// Serves the cached record when younger than the TTL, refreshing the
// cache from upstream otherwise.
func (h *PatentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Patent ID is required")
		return
	}

	record, fromCache, err := h.svc.GetPatent(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPatentNotFound) {
			writeError(w, http.StatusNotFound, "PATENT_NOT_FOUND", "Patent not found")
			return
		}
		h.metrics.IncUpstreamFailure("platform")
		h.logger.Error("patent lookup failed", "patent_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Patent lookup failed")
		return
	}

	if fromCache {
		h.metrics.IncPatentCacheHit()
	} else {
		h.metrics.IncPatentCacheMiss()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(record.Payload)
}
