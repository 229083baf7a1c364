//go:build integration

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/patlas/patlas/internal/testutil"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect to Redis: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c
}

func uniqueKey(t *testing.T, kind string) string {
	t.Helper()
	return fmt.Sprintf("%s:test-%s-%d", kind, t.Name(), time.Now().UnixNano())
}

func TestConsumeUsage_EnforcesLimit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := uniqueKey(t, "anon")

	const limit = 3

	for i := 1; i <= limit; i++ {
		res, err := c.ConsumeUsage(ctx, key, limit)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("consume %d should be allowed", i)
		}
		if res.Count != int64(i) {
			t.Errorf("consume %d: count = %d", i, res.Count)
		}
	}

	// Limit reached: rejected before incrementing
	res, err := c.ConsumeUsage(ctx, key, limit)
	if err != nil {
		t.Fatalf("consume over limit: %v", err)
	}
	if res.Allowed {
		t.Error("consume over limit should be rejected")
	}
	if res.Count != limit {
		t.Errorf("count must never exceed limit: got %d", res.Count)
	}
	if res.ResetAt.Before(time.Now()) {
		t.Error("rejection must carry a future reset time")
	}
}

func TestConsumeUsage_Unlimited(t *testing.T) {
	c := newTestCache(t)

	res, err := c.ConsumeUsage(context.Background(), uniqueKey(t, "user"), 0)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !res.Allowed {
		t.Error("unlimited tier must always be allowed")
	}
}

func TestPeekUsage_DoesNotCharge(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := uniqueKey(t, "anon")

	if _, err := c.ConsumeUsage(ctx, key, 5); err != nil {
		t.Fatalf("consume: %v", err)
	}

	for i := 0; i < 3; i++ {
		res, err := c.PeekUsage(ctx, key)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if res.Count != 1 {
			t.Errorf("peek should not charge: count = %d", res.Count)
		}
	}
}

func TestPeekUsage_EmptyLedger(t *testing.T) {
	c := newTestCache(t)

	res, err := c.PeekUsage(context.Background(), uniqueKey(t, "anon"))
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("fresh ledger should read zero, got %d", res.Count)
	}
}

func TestTransferUsage_MergesAndClears(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	anonKey := uniqueKey(t, "anon")
	userKey := uniqueKey(t, "user")

	// Anonymous consumes 4 of 5
	for i := 0; i < 4; i++ {
		if _, err := c.ConsumeUsage(ctx, anonKey, 5); err != nil {
			t.Fatalf("anon consume: %v", err)
		}
	}

	res, err := c.TransferUsage(ctx, anonKey, userKey, 25)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !res.Transferred {
		t.Error("first transfer should report transferred")
	}
	if res.Count != 4 {
		t.Errorf("user ledger should reflect 4 consumed, got %d", res.Count)
	}

	// Anonymous ledger is gone
	anonRes, err := c.PeekUsage(ctx, anonKey)
	if err != nil {
		t.Fatalf("peek anon: %v", err)
	}
	if anonRes.Count != 0 {
		t.Errorf("anonymous ledger should be cleared, got %d", anonRes.Count)
	}
}

func TestTransferUsage_Idempotent(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	anonKey := uniqueKey(t, "anon")
	userKey := uniqueKey(t, "user")

	for i := 0; i < 3; i++ {
		if _, err := c.ConsumeUsage(ctx, anonKey, 5); err != nil {
			t.Fatalf("anon consume: %v", err)
		}
	}

	first, err := c.TransferUsage(ctx, anonKey, userKey, 25)
	if err != nil {
		t.Fatalf("first transfer: %v", err)
	}

	second, err := c.TransferUsage(ctx, anonKey, userKey, 25)
	if err != nil {
		t.Fatalf("second transfer: %v", err)
	}

	if second.Transferred {
		t.Error("replayed transfer should be a no-op")
	}
	if second.Count != first.Count {
		t.Errorf("replay must not change the count: %d vs %d", second.Count, first.Count)
	}
}

func TestTransferUsage_CappedAtDestinationLimit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	anonKey := uniqueKey(t, "anon")
	userKey := uniqueKey(t, "user")

	for i := 0; i < 5; i++ {
		if _, err := c.ConsumeUsage(ctx, anonKey, 5); err != nil {
			t.Fatalf("anon consume: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := c.ConsumeUsage(ctx, userKey, 3); err != nil {
			t.Fatalf("user consume: %v", err)
		}
	}

	res, err := c.TransferUsage(ctx, anonKey, userKey, 3)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.Count != 3 {
		t.Errorf("merge must cap at destination limit 3, got %d", res.Count)
	}
}

func TestTransferUsage_ConcurrentSingleCount(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	anonKey := uniqueKey(t, "anon")
	userKey := uniqueKey(t, "user")

	for i := 0; i < 4; i++ {
		if _, err := c.ConsumeUsage(ctx, anonKey, 5); err != nil {
			t.Fatalf("anon consume: %v", err)
		}
	}

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	transferred := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.TransferUsage(ctx, anonKey, userKey, 25)
			if err != nil {
				t.Errorf("transfer: %v", err)
				return
			}
			if res.Transferred {
				mu.Lock()
				transferred++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if transferred != 1 {
		t.Errorf("exactly one concurrent transfer should win, got %d", transferred)
	}

	final, err := c.PeekUsage(ctx, userKey)
	if err != nil {
		t.Fatalf("peek user: %v", err)
	}
	if final.Count != 4 {
		t.Errorf("concurrent transfers must not double-count: got %d, want 4", final.Count)
	}
}

func TestMagicLink_SingleUse(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	hash := fmt.Sprintf("hash-%d", time.Now().UnixNano())
	record := &MagicLinkRecord{UserID: "user-1", Email: "a@b.com"}

	if err := c.StoreMagicLink(ctx, hash, record); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := c.RedeemMagicLink(ctx, hash)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "a@b.com" {
		t.Errorf("unexpected record: %+v", got)
	}

	// Second redemption must fail
	if _, err := c.RedeemMagicLink(ctx, hash); err != ErrTokenNotFound {
		t.Errorf("expected ErrTokenNotFound on replay, got %v", err)
	}
}

func TestMagicLink_UnknownToken(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.RedeemMagicLink(context.Background(), "never-stored"); err != ErrTokenNotFound {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}
