//go:build integration

package repository

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/patlas/patlas/internal/testutil"
)

// ============================================================================
// Patent Cache Repository Integration Tests
// ============================================================================

func TestIntegrationPatentCache_UpsertAndGet(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	patent := testutil.NewTestCachedPatent(t, "US1234567A", 0)
	if err := repo.UpsertCachedPatent(ctx, patent); err != nil {
		t.Fatalf("UpsertCachedPatent failed: %v", err)
	}

	retrieved, err := repo.GetCachedPatent(ctx, "US1234567A")
	if err != nil {
		t.Fatalf("GetCachedPatent failed: %v", err)
	}
	if !bytes.Equal(retrieved.Payload, patent.Payload) {
		t.Errorf("Payload mismatch: got %s", retrieved.Payload)
	}
}

func TestIntegrationPatentCache_UpsertReplacesPayload(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	stale := testutil.NewTestCachedPatent(t, "EP0001B1", 50*time.Minute)
	if err := repo.UpsertCachedPatent(ctx, stale); err != nil {
		t.Fatalf("UpsertCachedPatent (first) failed: %v", err)
	}

	fresh := testutil.NewTestCachedPatent(t, "EP0001B1", 0)
	fresh.Payload = []byte(`{"id":"EP0001B1","title":"Revised"}`)
	if err := repo.UpsertCachedPatent(ctx, fresh); err != nil {
		t.Fatalf("UpsertCachedPatent (second) failed: %v", err)
	}

	retrieved, err := repo.GetCachedPatent(ctx, "EP0001B1")
	if err != nil {
		t.Fatalf("GetCachedPatent failed: %v", err)
	}
	if !bytes.Equal(retrieved.Payload, fresh.Payload) {
		t.Errorf("Payload not replaced: got %s", retrieved.Payload)
	}
	if !retrieved.CachedAt.After(stale.CachedAt) {
		t.Error("CachedAt should reset on upsert")
	}
}

func TestIntegrationPatentCache_StaleRowIsMiss(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	expired := testutil.NewTestCachedPatent(t, "US9999999B2", 2*time.Hour)
	if err := repo.UpsertCachedPatent(ctx, expired); err != nil {
		t.Fatalf("UpsertCachedPatent failed: %v", err)
	}

	_, err := repo.GetCachedPatent(ctx, "US9999999B2")
	if !errors.Is(err, ErrPatentNotCached) {
		t.Errorf("Expected ErrPatentNotCached for stale row, got: %v", err)
	}
}

func TestIntegrationPatentCache_GetMissing(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	_, err := repo.GetCachedPatent(ctx, "US0000000A")
	if !errors.Is(err, ErrPatentNotCached) {
		t.Errorf("Expected ErrPatentNotCached, got: %v", err)
	}
}

func TestIntegrationPatentCache_SweepExpiredPatents(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	rows := []struct {
		id  string
		age time.Duration
	}{
		{"US1", 0},
		{"US2", 30 * time.Minute},
		{"US3", 61 * time.Minute},
		{"US4", 24 * time.Hour},
	}
	for _, row := range rows {
		if err := repo.UpsertCachedPatent(ctx, testutil.NewTestCachedPatent(t, row.id, row.age)); err != nil {
			t.Fatalf("UpsertCachedPatent %s failed: %v", row.id, err)
		}
	}

	deleted, err := repo.SweepExpiredPatents(ctx, time.Now())
	if err != nil {
		t.Fatalf("SweepExpiredPatents failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted count: got %d, want 2", deleted)
	}

	// Fresh rows survive.
	if _, err := repo.GetCachedPatent(ctx, "US1"); err != nil {
		t.Errorf("US1 should survive sweep: %v", err)
	}
	if _, err := repo.GetCachedPatent(ctx, "US2"); err != nil {
		t.Errorf("US2 should survive sweep: %v", err)
	}

	// Second run finds nothing to do.
	deleted, err = repo.SweepExpiredPatents(ctx, time.Now())
	if err != nil {
		t.Fatalf("SweepExpiredPatents (rerun) failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("rerun deleted count: got %d, want 0", deleted)
	}
}
