package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/handler/dto"
	"github.com/patlas/patlas/internal/metrics"
	"github.com/patlas/patlas/internal/service"
)

// AuthHandler handles magic-link verification and session lifecycle.
type AuthHandler struct {
	svc     *service.AuthService
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, rec metrics.Recorder) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		logger:  logger,
		metrics: rec,
	}
}

// Verify handles POST /api/v1/auth/verify.
// Redeems a magic-link token hash for an access/refresh pair. The hash
// is single-use: a second redemption fails.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.TokenHash == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "token_hash is required")
		return
	}

	tokens, err := h.svc.Verify(r.Context(), req.TokenHash)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.metrics.IncMagicLinkRedeemed()
	h.logger.Info("session_verified", "user_id", tokens.User.ID)

	writeJSON(w, http.StatusOK,
		dto.ToSessionResponse(tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn, tokens.User))
}

// Refresh handles POST /api/v1/auth/refresh.
// Rotates the refresh token; the old one is unusable afterwards.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "refresh_token is required")
		return
	}

	tokens, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK,
		dto.ToSessionResponse(tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn, tokens.User))
}

// SignOut handles POST /api/v1/auth/signout.
// Revokes the caller's refresh session. Requires authentication.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "refresh_token is required")
		return
	}

	if err := h.svc.SignOut(r.Context(), identity.ID, req.RefreshToken); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("session_revoked", "user_id", identity.ID)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps auth service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "The token is invalid or has expired")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
