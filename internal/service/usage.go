package service

import (
	"context"
	"fmt"
	"time"

	"github.com/patlas/patlas/internal/cache"
	"github.com/patlas/patlas/internal/model"
)

// RateLimitError is returned when an identity's daily quota is
// exhausted. It carries the window reset time so the client can show a
// countdown instead of a generic failure.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d requests exceeded, resets at %s",
		e.Limit, e.ResetAt.Format(time.RFC3339))
}

// UsageReport describes an identity's quota state.
// Limit 0 means unlimited; Remaining is then meaningless and reported
// as 0 alongside Unlimited=true. ResetAt is unset for unlimited tiers.
type UsageReport struct {
	Limit     int        `json:"limit"`
	Used      int64      `json:"used"`
	Remaining int64      `json:"remaining"`
	Unlimited bool       `json:"unlimited"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// TransferReport describes the outcome of an anonymous-to-user merge.
type TransferReport struct {
	Transferred bool  `json:"transferred"`
	Count       int64 `json:"count"`
	Remaining   int64 `json:"remaining"`
}

// UsageService tracks per-identity request quotas.
type UsageService struct {
	cache *cache.Cache
}

// NewUsageService creates a UsageService.
func NewUsageService(c *cache.Cache) *UsageService {
	return &UsageService{cache: c}
}

// Peek reports the identity's quota state without charging it.
func (s *UsageService) Peek(ctx context.Context, identity *model.Identity) (*UsageReport, error) {
	quota := identity.Quota()
	if quota.DailyLimit <= 0 {
		return &UsageReport{Unlimited: true}, nil
	}

	res, err := s.cache.PeekUsage(ctx, identity.LedgerKey())
	if err != nil {
		return nil, err
	}

	resetAt := res.ResetAt
	return &UsageReport{
		Limit:     quota.DailyLimit,
		Used:      res.Count,
		Remaining: remaining(quota.DailyLimit, res.Count),
		ResetAt:   &resetAt,
	}, nil
}

// Consume charges one unit against the identity's ledger.
// Returns *RateLimitError when the quota is exhausted.
func (s *UsageService) Consume(ctx context.Context, identity *model.Identity) (*UsageReport, error) {
	quota := identity.Quota()

	res, err := s.cache.ConsumeUsage(ctx, identity.LedgerKey(), quota.DailyLimit)
	if err != nil {
		return nil, err
	}

	if !res.Allowed {
		return nil, &RateLimitError{Limit: quota.DailyLimit, ResetAt: res.ResetAt}
	}

	if quota.DailyLimit <= 0 {
		return &UsageReport{Unlimited: true}, nil
	}

	resetAt := res.ResetAt
	return &UsageReport{
		Limit:     quota.DailyLimit,
		Used:      res.Count,
		Remaining: remaining(quota.DailyLimit, res.Count),
		ResetAt:   &resetAt,
	}, nil
}

// Transfer merges the consumption recorded against an anonymous token
// into the authenticated identity's ledger. Idempotent and race-safe:
// the merge runs as one atomic storage operation and a replayed
// transfer is a no-op.
func (s *UsageService) Transfer(ctx context.Context, identity *model.Identity, anonToken string) (*TransferReport, error) {
	quota := identity.Quota()

	anonKey := (&model.Identity{Kind: model.IdentityAnonymous, ID: anonToken}).LedgerKey()
	res, err := s.cache.TransferUsage(ctx, anonKey, identity.LedgerKey(), quota.DailyLimit)
	if err != nil {
		return nil, err
	}

	report := &TransferReport{
		Transferred: res.Transferred,
		Count:       res.Count,
	}
	if quota.DailyLimit > 0 {
		report.Remaining = remaining(quota.DailyLimit, res.Count)
	}

	return report, nil
}

// remaining floors limit-count at zero.
func remaining(limit int, count int64) int64 {
	r := int64(limit) - count
	if r < 0 {
		return 0
	}
	return r
}
