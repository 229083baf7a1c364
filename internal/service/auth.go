// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/cache"
	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/provider"
	"github.com/patlas/patlas/internal/repository"
)

// Auth service errors.
var (
	ErrUserinfoFailed = errors.New("userinfo request failed")
	ErrMissingEmail   = errors.New("provider profile has no email")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

// AuthService bridges provider identities into local sessions.
type AuthService struct {
	repo       *repository.Repository
	cache      *cache.Cache
	provider   provider.AuthProvider
	issuer     *auth.TokenIssuer
	refreshTTL time.Duration
}

// NewAuthService creates an AuthService.
func NewAuthService(repo *repository.Repository, c *cache.Cache, p provider.AuthProvider, issuer *auth.TokenIssuer, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		repo:       repo,
		cache:      c,
		provider:   p,
		issuer:     issuer,
		refreshTTL: refreshTTL,
	}
}

// BridgeResult is the outcome of a successful session bridge.
// TokenHash is the only credential material returned: the caller
// completes sign-in by redeeming it against Verify.
type BridgeResult struct {
	UserID    string
	Email     string
	TokenHash string
	Profile   *provider.UserInfo
	Created   bool
}

// Bridge exchanges a provider access token for a magic-link token hash,
// provisioning or refreshing the local user record along the way.
// Re-running with a token resolving to the same email is safe: the user
// converges to the same state and the tier is never modified.
func (s *AuthService) Bridge(ctx context.Context, accessToken string) (*BridgeResult, error) {
	info, err := s.provider.UserInfo(ctx, accessToken)
	if err != nil {
		if errors.Is(err, provider.ErrMissingEmail) {
			return nil, ErrMissingEmail
		}
		return nil, fmt.Errorf("%w: %v", ErrUserinfoFailed, err)
	}

	now := time.Now()
	confirmed := now
	candidate := &model.User{
		ID:               uuid.New().String(),
		Email:            info.Email,
		Name:             info.Name,
		AvatarURL:        info.AvatarURL,
		Tier:             model.TierFree,
		ProviderSubject:  info.Subject,
		OrgID:            info.OrgID,
		OrgName:          info.OrgName,
		EmailConfirmedAt: &confirmed,
	}

	user, created, err := s.repo.GetOrCreateUser(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}

	if !created {
		// Existing account: refresh provider-sourced metadata only.
		user, err = s.repo.UpdateUserProfile(ctx, user.ID, model.ProfileUpdate{
			Name:            info.Name,
			AvatarURL:       info.AvatarURL,
			ProviderSubject: info.Subject,
			OrgID:           info.OrgID,
			OrgName:         info.OrgName,
		})
		if err != nil {
			return nil, fmt.Errorf("refresh user profile: %w", err)
		}
	}

	token, err := auth.NewMagicLinkToken()
	if err != nil {
		return nil, fmt.Errorf("mint magic-link token: %w", err)
	}

	record := &cache.MagicLinkRecord{UserID: user.ID, Email: user.Email}
	if err := s.cache.StoreMagicLink(ctx, token.Hash, record); err != nil {
		return nil, fmt.Errorf("store magic-link token: %w", err)
	}

	return &BridgeResult{
		UserID:    user.ID,
		Email:     user.Email,
		TokenHash: token.Hash,
		Profile:   info,
		Created:   created,
	}, nil
}

// SessionTokens is an access/refresh pair bound to a user.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         *model.User
}

// Verify redeems a magic-link token hash for a session. The token is
// single-use: redemption atomically removes the stored record.
func (s *AuthService) Verify(ctx context.Context, tokenHash string) (*SessionTokens, error) {
	record, err := s.cache.RedeemMagicLink(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, cache.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("redeem magic-link token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token and reissues the pair.
// The old refresh token is unusable afterwards.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*SessionTokens, error) {
	sessionID, secret, ok := splitRefreshToken(refreshToken)
	if !ok {
		return nil, ErrInvalidToken
	}

	session, err := s.repo.GetAuthSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrAuthSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load auth session: %w", err)
	}

	if !session.IsActive(time.Now()) {
		return nil, ErrInvalidToken
	}

	match, err := auth.VerifySecret(secret, session.RefreshHash)
	if err != nil || !match {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	newSecret, err := auth.NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("rotate refresh secret: %w", err)
	}
	newHash, err := auth.HashSecret(newSecret)
	if err != nil {
		return nil, fmt.Errorf("hash refresh secret: %w", err)
	}

	if err := s.repo.RotateAuthSession(ctx, session.ID, newHash, time.Now().Add(s.refreshTTL)); err != nil {
		if errors.Is(err, repository.ErrAuthSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("rotate auth session: %w", err)
	}

	access, err := s.issuer.Mint(user.ID, user.Email, user.Tier)
	if err != nil {
		return nil, err
	}

	return &SessionTokens{
		AccessToken:  access,
		RefreshToken: session.ID + "." + newSecret,
		ExpiresIn:    int64(s.issuer.TTL().Seconds()),
		User:         user,
	}, nil
}

// SignOut revokes the refresh session behind a refresh token.
// Revoking an unknown or already revoked token is a no-op.
func (s *AuthService) SignOut(ctx context.Context, userID, refreshToken string) error {
	sessionID, _, ok := splitRefreshToken(refreshToken)
	if !ok {
		return ErrInvalidToken
	}

	if err := s.repo.RevokeAuthSession(ctx, sessionID, userID); err != nil {
		return fmt.Errorf("revoke auth session: %w", err)
	}

	return nil
}

// issueSession creates a fresh auth session and mints the token pair.
func (s *AuthService) issueSession(ctx context.Context, user *model.User) (*SessionTokens, error) {
	secret, err := auth.NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("generate refresh secret: %w", err)
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hash refresh secret: %w", err)
	}

	session := &model.AuthSession{
		ID:          ulid.Make().String(),
		UserID:      user.ID,
		RefreshHash: hash,
		ExpiresAt:   time.Now().Add(s.refreshTTL),
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateAuthSession(ctx, session); err != nil {
		return nil, err
	}

	access, err := s.issuer.Mint(user.ID, user.Email, user.Tier)
	if err != nil {
		return nil, err
	}

	return &SessionTokens{
		AccessToken:  access,
		RefreshToken: session.ID + "." + secret,
		ExpiresIn:    int64(s.issuer.TTL().Seconds()),
		User:         user,
	}, nil
}

// splitRefreshToken parses the "<session_id>.<secret>" refresh format.
func splitRefreshToken(token string) (sessionID, secret string, ok bool) {
	sessionID, secret, found := strings.Cut(token, ".")
	if !found || sessionID == "" || secret == "" {
		return "", "", false
	}
	return sessionID, secret, true
}
