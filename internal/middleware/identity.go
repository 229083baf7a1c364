package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/model"
)

const (
	// AnonCookieName holds the anonymous identity token.
	AnonCookieName = "patlas_anon"
	// anonCookieTTL is the lifetime of the anonymous identity cookie.
	anonCookieTTL = 30 * 24 * time.Hour
)

// IdentityConfig holds configuration for the identity middleware.
type IdentityConfig struct {
	Logger *slog.Logger
	Issuer *auth.TokenIssuer
	// Secure controls the cookie Secure flag; off in development so
	// plain-HTTP localhost keeps its identity.
	Secure bool
}

// Identity resolves the request identity and injects it into context.
// A valid bearer access token yields a user identity carrying the
// token's tier; everything else gets an anonymous identity from the
// anon cookie, minting the cookie on first contact.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractBearerToken(r); token != "" {
				claims, err := cfg.Issuer.Verify(token)
				if err == nil {
					identity := &model.Identity{
						Kind:  model.IdentityUser,
						ID:    claims.Subject,
						Email: claims.Email,
						Tier:  claims.Tier,
					}
					ctx := auth.ContextWithIdentity(r.Context(), identity)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}

				cfg.Logger.Warn("invalid access token",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
				)
				// Fall through to anonymous: routes that require auth
				// reject via RequireUser.
			}

			identity := &model.Identity{
				Kind: model.IdentityAnonymous,
				ID:   anonToken(w, r, cfg.Secure),
				Tier: model.TierAnonymous,
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose identity is not an authenticated
// user. Must be applied after Identity.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			if identity == nil || !identity.IsAuthenticated() {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// anonToken returns the anonymous token from the cookie, minting and
// setting a fresh one when absent.
func anonToken(w http.ResponseWriter, r *http.Request, secure bool) string {
	if cookie, err := r.Cookie(AnonCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(anonCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	return token
}

// ClearAnonCookie expires the anonymous identity cookie.
// Called once anonymous usage has been transferred to a user.
func ClearAnonCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeUnauthorized writes a 401 response.
// Uses the same message for all auth failures to prevent enumeration.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`))
}
