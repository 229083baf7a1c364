package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// magicLinkKeyPrefix is the Redis key prefix for magic-link records,
	// keyed by token hash.
	magicLinkKeyPrefix = "magiclink:"
	// MagicLinkTTL is how long a minted magic-link token stays redeemable.
	MagicLinkTTL = 15 * time.Minute
)

// ErrTokenNotFound indicates a magic-link token that is unknown,
// expired, or already redeemed.
var ErrTokenNotFound = errors.New("magic-link token not found")

// MagicLinkRecord is the state stored behind a magic-link token hash.
type MagicLinkRecord struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// StoreMagicLink stores a magic-link record under its token hash.
func (c *Cache) StoreMagicLink(ctx context.Context, tokenHash string, record *MagicLinkRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal magic-link record: %w", err)
	}

	key := magicLinkKeyPrefix + tokenHash
	if err := c.client.Set(ctx, key, data, MagicLinkTTL).Err(); err != nil {
		return fmt.Errorf("store magic-link record: %w", err)
	}

	return nil
}

// RedeemMagicLink atomically fetches and deletes a magic-link record.
// GETDEL makes the token single-use: a concurrent second redemption
// sees ErrTokenNotFound.
func (c *Cache) RedeemMagicLink(ctx context.Context, tokenHash string) (*MagicLinkRecord, error) {
	key := magicLinkKeyPrefix + tokenHash

	data, err := c.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("redeem magic-link record: %w", err)
	}

	var record MagicLinkRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal magic-link record: %w", err)
	}

	return &record, nil
}
