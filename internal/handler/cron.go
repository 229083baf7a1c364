package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patlas/patlas/internal/repository"
)

// CronHandler serves scheduler-invoked maintenance endpoints.
type CronHandler struct {
	repo   *repository.Repository
	secret string
	logger *slog.Logger
}

// NewCronHandler creates a CronHandler guarded by the shared secret.
func NewCronHandler(repo *repository.Repository, secret string, logger *slog.Logger) *CronHandler {
	return &CronHandler{
		repo:   repo,
		secret: secret,
		logger: logger,
	}
}

// cleanupResponse is the sweep report returned to the scheduler.
type cleanupResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deletedCount"`
	Timestamp    string `json:"timestamp"`
	DurationMs   int64  `json:"durationMs"`
}

// Cleanup handles GET /api/v1/cron/cleanup.
// Deletes every patent cache row past its TTL in one statement.
// Re-running is safe.
func (h *CronHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("cron secret not configured")
		writeError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "Cleanup is not configured")
		return
	}

	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid cron secret")
		return
	}

	start := time.Now()
	deleted, err := h.repo.SweepExpiredPatents(r.Context(), start)
	if err != nil {
		h.logger.Error("patent cache sweep failed", "error", err)
		writeError(w, http.StatusInternalServerError, "SWEEP_FAILED", "Cleanup failed")
		return
	}

	duration := time.Since(start)
	h.logger.Info("patent_cache_swept",
		"deleted", deleted,
		"duration_ms", duration.Milliseconds(),
	)

	writeJSON(w, http.StatusOK, cleanupResponse{
		Success:      true,
		DeletedCount: deleted,
		Timestamp:    start.UTC().Format(time.RFC3339),
		DurationMs:   duration.Milliseconds(),
	})
}

// authorized checks the bearer secret in constant time.
func (h *CronHandler) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	presented := strings.TrimPrefix(header, "Bearer ")

	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.secret)) == 1
}
