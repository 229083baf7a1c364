//go:build integration

package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/cache"
	"github.com/patlas/patlas/internal/metrics"
	"github.com/patlas/patlas/internal/provider"
	"github.com/patlas/patlas/internal/repository"
	"github.com/patlas/patlas/internal/service"
	"github.com/patlas/patlas/internal/testutil"
)

// ============================================================================
// OAuth Handler Integration Tests (Postgres + Redis)
// ============================================================================

func newBridgeHandlerEnv(t *testing.T) (*OAuthHandler, *metrics.InMemoryRecorder) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("release db lock: %v", err)
		}
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	mock := provider.NewMock()
	issuer := auth.NewTokenIssuer("integration-secret-at-least-32-chars!!", 15*time.Minute)
	svc := service.NewAuthService(repo, c, mock, issuer, 24*time.Hour)

	recorder := metrics.NewInMemory()
	h := NewOAuthHandler(mock, svc, []string{"https://app.example.com/callback"}, true,
		testLogger(), recorder)
	return h, recorder
}

func TestIntegrationOAuthHandler_BridgeCountsSessions(t *testing.T) {
	h, recorder := newBridgeHandlerEnv(t)

	rec := postJSON(t, h.Bridge, `{"valyu_access_token":"mock-token"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if got := recorder.Snapshot().SessionsBridged; got != 1 {
		t.Errorf("sessions bridged = %d, want 1", got)
	}

	// A repeat bridge for the same user still counts a bridge.
	rec = postJSON(t, h.Bridge, `{"valyu_access_token":"mock-token"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d", rec.Code)
	}
	if got := recorder.Snapshot().SessionsBridged; got != 2 {
		t.Errorf("sessions bridged = %d, want 2", got)
	}
}

func TestIntegrationOAuthHandler_BridgeRejectsMissingToken(t *testing.T) {
	h, recorder := newBridgeHandlerEnv(t)

	rec := postJSON(t, h.Bridge, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := recorder.Snapshot().SessionsBridged; got != 0 {
		t.Errorf("sessions bridged = %d, want 0", got)
	}
}
