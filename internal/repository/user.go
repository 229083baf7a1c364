package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/patlas/patlas/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// CreateUser inserts a new user into the database.
// Caller is expected to have set ID, Email, Tier and EmailConfirmedAt.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, name, avatar_url, tier, provider_subject, org_id, org_name, email_confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.Tier,
		user.ProviderSubject,
		user.OrgID,
		user.OrgName,
		user.EmailConfirmedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *Repository) getUser(ctx context.Context, column, value string) (*model.User, error) {
	query := `
		SELECT id, email, name, avatar_url, tier, provider_subject, org_id, org_name, email_confirmed_at, created_at, updated_at
		FROM users
		WHERE ` + column + ` = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.Tier,
		&user.ProviderSubject,
		&user.OrgID,
		&user.OrgName,
		&user.EmailConfirmedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}

// UpdateUserProfile refreshes the provider-sourced profile fields.
// The subscription tier is never touched here: it is sticky across
// sign-ins and managed out of band.
func (r *Repository) UpdateUserProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	query := `
		UPDATE users
		SET name = $2, avatar_url = $3, provider_subject = $4, org_id = $5, org_name = $6, updated_at = $7
		WHERE id = $1
		RETURNING id, email, name, avatar_url, tier, provider_subject, org_id, org_name, email_confirmed_at, created_at, updated_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query,
		id,
		update.Name,
		update.AvatarURL,
		update.ProviderSubject,
		update.OrgID,
		update.OrgName,
		time.Now(),
	).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.Tier,
		&user.ProviderSubject,
		&user.OrgID,
		&user.OrgName,
		&user.EmailConfirmedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	return &user, nil
}

// GetOrCreateUser gets a user by email or creates one if not found.
// Handles the create/create race by falling back to the lookup when a
// concurrent request won the insert.
func (r *Repository) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	existing, err := r.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := r.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			existing, err := r.GetUserByEmail(ctx, user.Email)
			return existing, false, err
		}
		return nil, false, err
	}

	return user, true, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "unique"))
}
