package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/patlas/patlas/internal/handler/dto"
	"github.com/patlas/patlas/internal/metrics"
	"github.com/patlas/patlas/internal/provider"
	"github.com/patlas/patlas/internal/service"
)

// OAuthHandler handles the token exchange and session bridge routes.
// Both speak the OAuth error dialect ({error, error_description}).
type OAuthHandler struct {
	provider    provider.AuthProvider
	auth        *service.AuthService
	allowedURIs map[string]bool
	configured  bool
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// NewOAuthHandler creates an OAuthHandler. allowedRedirectURIs is the
// exact-match allowlist; configured reports whether the confidential
// client credentials are present.
func NewOAuthHandler(p provider.AuthProvider, auth *service.AuthService, allowedRedirectURIs []string, configured bool, logger *slog.Logger, rec metrics.Recorder) *OAuthHandler {
	allowed := make(map[string]bool, len(allowedRedirectURIs))
	for _, uri := range allowedRedirectURIs {
		allowed[uri] = true
	}
	return &OAuthHandler{
		provider:    p,
		auth:        auth,
		allowedURIs: allowed,
		configured:  configured,
		logger:      logger,
		metrics:     rec,
	}
}

// Exchange handles POST /api/v1/oauth/token.
// The redirect URI must exactly match an allowlist entry before the
// upstream is contacted. All upstream failures come back as 400 with a
// sanitized description.
func (h *OAuthHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}

	if req.Code == "" || req.RedirectURI == "" || req.CodeVerifier == "" {
		writeOAuthError(w, http.StatusBadRequest, "missing_parameters",
			"code, redirect_uri and code_verifier are required")
		return
	}

	if !h.allowedURIs[req.RedirectURI] {
		h.logger.Warn("redirect uri rejected",
			"redirect_uri", req.RedirectURI,
		)
		writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri",
			"The redirect URI is not allowed")
		return
	}

	if !h.configured {
		h.logger.Error("oauth client credentials not configured")
		writeOAuthError(w, http.StatusInternalServerError, "server_error",
			"Sign-in is not available right now")
		return
	}

	payload, err := h.provider.ExchangeCode(r.Context(), req.Code, req.RedirectURI, req.CodeVerifier)
	if err != nil {
		h.metrics.IncUpstreamFailure("provider")

		var exchErr *provider.ExchangeError
		if errors.As(err, &exchErr) {
			writeOAuthError(w, http.StatusBadRequest, exchErr.Code, exchErr.Description)
			return
		}

		h.logger.Error("token exchange failed", "error", err)
		writeOAuthError(w, http.StatusBadRequest, "exchange_failed",
			"Sign-in failed. Please try again.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// Bridge handles POST /api/v1/oauth/session.
// Exchanges a provider access token for a one-time magic-link token
// hash, provisioning the local user on first sign-in.
func (h *OAuthHandler) Bridge(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionBridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}

	if req.ValyuAccessToken == "" {
		writeOAuthError(w, http.StatusBadRequest, "missing_parameters",
			"valyu_access_token is required")
		return
	}

	result, err := h.auth.Bridge(r.Context(), req.ValyuAccessToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingEmail):
			writeOAuthError(w, http.StatusBadRequest, "missing_email",
				"The provider profile has no email address")
		case errors.Is(err, service.ErrUserinfoFailed):
			h.metrics.IncUpstreamFailure("provider")
			writeOAuthError(w, http.StatusUnauthorized, "userinfo_failed",
				"The access token was rejected by the identity provider")
		default:
			h.logger.Error("session bridge failed", "error", err)
			writeOAuthError(w, http.StatusInternalServerError, "bridge_failed",
				"Sign-in could not be completed")
		}
		return
	}

	h.metrics.IncSessionBridged()
	h.logger.Info("session_bridged",
		"user_id", result.UserID,
		"created", result.Created,
	)

	writeJSON(w, http.StatusOK, dto.SessionBridgeResponse{
		UserID:    result.UserID,
		Email:     result.Email,
		TokenHash: result.TokenHash,
		ValyuUser: result.Profile,
	})
}
