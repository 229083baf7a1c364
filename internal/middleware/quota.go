package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/service"
)

// QuotaConfig holds configuration for the daily quota middleware.
type QuotaConfig struct {
	Logger *slog.Logger
	Usage  *service.UsageService
}

// Quota charges one unit of the identity's daily allowance before the
// handler runs. Requests over the allowance get 429 with reset info.
// Ledger errors fail open so a Redis outage does not take search down.
func Quota(cfg QuotaConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			if identity == nil {
				// Identity middleware was not applied; let the
				// handler's own checks decide.
				next.ServeHTTP(w, r)
				return
			}

			report, err := cfg.Usage.Consume(r.Context(), identity)
			if err != nil {
				var rle *service.RateLimitError
				if errors.As(err, &rle) {
					setQuotaHeaders(w, rle.Limit, 0, rle.ResetAt)
					writeQuotaExceeded(w, rle)
					return
				}

				cfg.Logger.Warn("usage ledger unavailable, allowing request",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("identity", identity.LedgerKey()),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if report.Limit > 0 && report.ResetAt != nil {
				setQuotaHeaders(w, report.Limit, report.Remaining, *report.ResetAt)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setQuotaHeaders sets standard rate limit headers.
func setQuotaHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// writeQuotaExceeded writes a 429 response with reset information.
func writeQuotaExceeded(w http.ResponseWriter, rle *service.RateLimitError) {
	retryAfter := int(time.Until(rle.ResetAt).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	resp := map[string]any{
		"error": map[string]any{
			"code":    "RATE_LIMITED",
			"message": fmt.Sprintf("Daily limit of %d searches reached", rle.Limit),
			"details": map[string]any{
				"limit":    rle.Limit,
				"reset_at": rle.ResetAt.UTC().Format(time.RFC3339),
			},
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
