package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/patlas/patlas/internal/model"
)

// ErrAuthSessionNotFound indicates a missing or revoked auth session.
var ErrAuthSessionNotFound = errors.New("auth session not found")

// CreateAuthSession inserts a refresh-token session record.
func (r *Repository) CreateAuthSession(ctx context.Context, session *model.AuthSession) error {
	query := `
		INSERT INTO auth_sessions (id, user_id, refresh_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshHash,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth session: %w", err)
	}

	return nil
}

// GetAuthSession retrieves a session by id.
func (r *Repository) GetAuthSession(ctx context.Context, id string) (*model.AuthSession, error) {
	query := `
		SELECT id, user_id, refresh_hash, expires_at, revoked_at, created_at
		FROM auth_sessions
		WHERE id = $1
	`

	var session model.AuthSession
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshHash,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAuthSessionNotFound
		}
		return nil, fmt.Errorf("failed to get auth session: %w", err)
	}

	return &session, nil
}

// RotateAuthSession swaps the stored refresh hash in place, extending
// the expiry. Only active sessions rotate; a revoked or expired row is
// reported as not found.
func (r *Repository) RotateAuthSession(ctx context.Context, id, newHash string, expiresAt time.Time) error {
	query := `
		UPDATE auth_sessions
		SET refresh_hash = $2, expires_at = $3
		WHERE id = $1 AND revoked_at IS NULL AND expires_at > $4
	`

	tag, err := r.pool.Exec(ctx, query, id, newHash, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to rotate auth session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAuthSessionNotFound
	}

	return nil
}

// RevokeAuthSession marks a session revoked. Revoking an already
// revoked session is a no-op.
func (r *Repository) RevokeAuthSession(ctx context.Context, id, userID string) error {
	query := `
		UPDATE auth_sessions
		SET revoked_at = $3
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`

	_, err := r.pool.Exec(ctx, query, id, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke auth session: %w", err)
	}

	return nil
}
