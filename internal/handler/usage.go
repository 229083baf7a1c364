package handler

import (
	"log/slog"
	"net/http"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/middleware"
	"github.com/patlas/patlas/internal/service"
)

// UsageHandler exposes the daily usage ledger.
type UsageHandler struct {
	svc          *service.UsageService
	secureCookie bool
	logger       *slog.Logger
}

// NewUsageHandler creates a UsageHandler.
func NewUsageHandler(svc *service.UsageService, secureCookie bool, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		svc:          svc,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Get handles GET /api/v1/usage.
// Reports the caller's quota state without charging it.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	report, err := h.svc.Peek(r.Context(), identity)
	if err != nil {
		h.logger.Error("usage peek failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Transfer handles POST /api/v1/usage/transfer.
// Merges the anonymous ledger behind the anon cookie into the caller's
// ledger and expires the cookie. Replays are no-ops; the cookie is
// cleared either way.
func (h *UsageHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	cookie, err := r.Cookie(middleware.AnonCookieName)
	if err != nil || cookie.Value == "" {
		// Nothing to transfer.
		middleware.ClearAnonCookie(w, h.secureCookie)
		writeJSON(w, http.StatusOK, service.TransferReport{})
		return
	}

	report, err := h.svc.Transfer(r.Context(), identity, cookie.Value)
	if err != nil {
		h.logger.Error("usage transfer failed",
			"user_id", identity.ID,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if report.Transferred {
		h.logger.Info("usage_transferred",
			"user_id", identity.ID,
			"count", report.Count,
		)
	}

	middleware.ClearAnonCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, report)
}
