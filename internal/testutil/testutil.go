// Package testutil provides helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/patlas/patlas/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// migrationNames lists migrations in apply order.
var migrationNames = []string{
	"000001_users",
	"000002_auth_sessions",
	"000003_chat",
	"000004_artifacts",
	"000005_patent_cache",
}

// ResetSchema drops and recreates the full schema for tests.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	// Down migrations run in reverse order.
	for i := len(migrationNames) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, root, migrationNames[i]+".down.sql"); err != nil {
			return err
		}
	}

	for _, name := range migrationNames {
		if err := applyMigration(ctx, pool, root, name+".up.sql"); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, root, file string) error {
	path := filepath.Join(root, "migrations", file)

	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", file, err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:               uuid.New().String(),
		Email:            email,
		Name:             "Test User",
		Tier:             model.TierFree,
		ProviderSubject:  "sub-" + email,
		EmailConfirmedAt: &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewTestChatSession creates a chat session owned by the given user.
func NewTestChatSession(t testing.TB, userID string) *model.ChatSession {
	t.Helper()
	now := time.Now().UTC()
	return &model.ChatSession{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Title:     "Test session",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestCachedPatent creates a cached patent record with the given age.
func NewTestCachedPatent(t testing.TB, patentID string, age time.Duration) *model.CachedPatent {
	t.Helper()
	return &model.CachedPatent{
		PatentID: patentID,
		Payload:  []byte(`{"id":"` + patentID + `","title":"Test Patent"}`),
		CachedAt: time.Now().UTC().Add(-age),
	}
}
