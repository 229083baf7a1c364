package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/patlas/patlas/internal/model"
)

// ErrPatentNotCached indicates no fresh cached record for a patent id.
var ErrPatentNotCached = errors.New("patent not cached")

// UpsertCachedPatent stores an upstream patent record, resetting its
// cache timestamp.
func (r *Repository) UpsertCachedPatent(ctx context.Context, patent *model.CachedPatent) error {
	query := `
		INSERT INTO patent_cache (patent_id, payload, cached_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (patent_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			cached_at = EXCLUDED.cached_at
	`

	_, err := r.pool.Exec(ctx, query, patent.PatentID, patent.Payload, patent.CachedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cached patent: %w", err)
	}

	return nil
}

// GetCachedPatent retrieves a cached patent record if it is still
// within the fixed TTL. Stale rows are treated as misses; the sweep
// removes them later.
func (r *Repository) GetCachedPatent(ctx context.Context, patentID string) (*model.CachedPatent, error) {
	query := `
		SELECT patent_id, payload, cached_at
		FROM patent_cache
		WHERE patent_id = $1 AND cached_at > $2
	`

	cutoff := time.Now().Add(-model.PatentCacheTTL)

	var patent model.CachedPatent
	err := r.pool.QueryRow(ctx, query, patentID, cutoff).Scan(
		&patent.PatentID,
		&patent.Payload,
		&patent.CachedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatentNotCached
		}
		return nil, fmt.Errorf("failed to get cached patent: %w", err)
	}

	return &patent, nil
}

// SweepExpiredPatents deletes every cached record older than the TTL
// and returns the number of rows removed. One statement, safe to re-run.
func (r *Repository) SweepExpiredPatents(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-model.PatentCacheTTL)

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM patent_cache WHERE cached_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep patent cache: %w", err)
	}

	return tag.RowsAffected(), nil
}
