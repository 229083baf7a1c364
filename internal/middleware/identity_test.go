package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/model"
)

func newTestIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	return auth.NewTokenIssuer("test-secret-at-least-32-chars-long!!", time.Hour)
}

func identityHandler(t *testing.T, got **model.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentity_MintsAnonCookie(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	mw := Identity(IdentityConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuer: newTestIssuer(t),
	})
	handler := mw(identityHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/v1/usage", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("no identity in context")
	}
	if got.Kind != model.IdentityAnonymous {
		t.Errorf("Kind = %q, want %q", got.Kind, model.IdentityAnonymous)
	}
	if got.ID == "" {
		t.Error("anonymous identity has empty ID")
	}
	if got.Tier != model.TierAnonymous {
		t.Errorf("Tier = %q, want %q", got.Tier, model.TierAnonymous)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == AnonCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("anon cookie not set")
	}
	if cookie.Value != got.ID {
		t.Errorf("cookie value %q does not match identity ID %q", cookie.Value, got.ID)
	}
	if !cookie.HttpOnly {
		t.Error("anon cookie should be HttpOnly")
	}
}

func TestIdentity_ReusesExistingCookie(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	mw := Identity(IdentityConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuer: newTestIssuer(t),
	})
	handler := mw(identityHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/v1/usage", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "existing-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got.ID != "existing-token" {
		t.Errorf("ID = %q, want existing cookie value", got.ID)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == AnonCookieName {
			t.Error("cookie should not be re-set when already present")
		}
	}
}

func TestIdentity_ValidBearerToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	token, err := issuer.Mint("user-42", "a@b.com", model.TierFree)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	var got *model.Identity
	mw := Identity(IdentityConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuer: issuer,
	})
	handler := mw(identityHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/v1/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got.Kind != model.IdentityUser {
		t.Fatalf("Kind = %q, want %q", got.Kind, model.IdentityUser)
	}
	if got.ID != "user-42" || got.Email != "a@b.com" || got.Tier != model.TierFree {
		t.Errorf("identity = %+v, want user-42/a@b.com/free", got)
	}
}

func TestIdentity_InvalidBearerFallsBackToAnonymous(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	mw := Identity(IdentityConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuer: newTestIssuer(t),
	})
	handler := mw(identityHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/v1/usage", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.Kind != model.IdentityAnonymous {
		t.Errorf("Kind = %q, want anonymous fallback", got.Kind)
	}
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	handler := RequireUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/chat-sessions", nil)
		ctx := auth.ContextWithIdentity(req.Context(), &model.Identity{
			Kind: model.IdentityAnonymous,
			ID:   "anon-token",
			Tier: model.TierAnonymous,
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
			t.Errorf("body = %q, want UNAUTHORIZED code", rec.Body.String())
		}
	})

	t.Run("missing identity rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/chat-sessions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("user allowed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/chat-sessions", nil)
		ctx := auth.ContextWithIdentity(req.Context(), &model.Identity{
			Kind: model.IdentityUser,
			ID:   "user-1",
			Tier: model.TierFree,
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestClearAnonCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ClearAnonCookie(rec, false)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].Name != AnonCookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("cookie %q MaxAge %d, want expired %s", cookies[0].Name, cookies[0].MaxAge, AnonCookieName)
	}
}
