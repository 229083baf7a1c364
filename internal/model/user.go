// Package model defines domain entities for the application.
package model

import "time"

// Subscription tier constants.
const (
	TierAnonymous = "anonymous"
	TierFree      = "free"
	TierPayPerUse = "pay_per_use"
	TierUnlimited = "unlimited"
)

// ValidTiers contains all tier values a user record may carry.
// Anonymous is an identity tier only and never stored on a user.
var ValidTiers = []string{TierFree, TierPayPerUse, TierUnlimited}

// QuotaConfig defines the daily request quota for a tier.
type QuotaConfig struct {
	// DailyLimit is the number of chargeable requests per rolling
	// 24-hour window. 0 means unlimited.
	DailyLimit int
}

// TierQuotas maps tier names to their quota configurations.
var TierQuotas = map[string]QuotaConfig{
	TierAnonymous: {DailyLimit: 5},
	TierFree:      {DailyLimit: 25},
	TierPayPerUse: {DailyLimit: 0},
	TierUnlimited: {DailyLimit: 0},
}

// QuotaForTier returns the quota configuration for a tier.
// Unknown tiers fall back to the free tier.
func QuotaForTier(tier string) QuotaConfig {
	if q, ok := TierQuotas[tier]; ok {
		return q
	}
	return TierQuotas[TierFree]
}

// User represents an account provisioned through the identity provider
// or email sign-in.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	AvatarURL        string     `json:"avatar_url,omitempty"`
	Tier             string     `json:"subscription_tier"`
	ProviderSubject  string     `json:"-"`
	OrgID            string     `json:"org_id,omitempty"`
	OrgName          string     `json:"org_name,omitempty"`
	EmailConfirmedAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Quota returns the daily quota configuration for this user's tier.
func (u *User) Quota() QuotaConfig {
	return QuotaForTier(u.Tier)
}

// ProfileUpdate carries the provider-sourced fields refreshed on every
// sign-in. The subscription tier is deliberately absent: it is sticky
// and provider-agnostic.
type ProfileUpdate struct {
	Name            string
	AvatarURL       string
	ProviderSubject string
	OrgID           string
	OrgName         string
}

// AuthSession is a server-side session record backing a refresh token.
// Only the argon2id hash of the refresh secret is stored.
type AuthSession struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	RefreshHash string     `json:"-"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsActive reports whether the session can still be refreshed.
func (s *AuthSession) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
