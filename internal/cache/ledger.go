package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ledgerKeyPrefix is the Redis key prefix for usage ledgers.
	// The identity component is "user:<id>" or "anon:<token>".
	ledgerKeyPrefix = "usage:"

	// ledgerWindow is the rolling quota window, anchored to first use.
	ledgerWindow = 24 * time.Hour
)

// LedgerResult is the outcome of a ledger operation.
type LedgerResult struct {
	Allowed bool
	Count   int64
	ResetAt time.Time
}

// TransferResult is the outcome of an anonymous-to-user merge.
type TransferResult struct {
	// Transferred is false when the anonymous ledger was already gone,
	// i.e. the transfer had run before.
	Transferred bool
	Count       int64
	ResetAt     time.Time
}

// consumeScript atomically charges one unit against a ledger.
// The window resets when 24h have elapsed since first use; the charge
// is rejected before incrementing once the limit is reached, so the
// count can never exceed the limit.
var consumeScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])

	local data = redis.call('HMGET', key, 'count', 'window_start')
	local count = tonumber(data[1]) or 0
	local start = tonumber(data[2]) or now

	-- Rolling window: expired usage is forgotten, new window anchors now
	if now >= start + window then
		count = 0
		start = now
	end

	if count >= limit then
		return {0, count, start + window}
	end

	count = count + 1
	redis.call('HMSET', key, 'count', count, 'window_start', start)
	redis.call('EXPIREAT', key, start + window)

	return {1, count, start + window}
`)

// peekScript reads a ledger without charging it. An expired window
// reads as zero consumption.
var peekScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local data = redis.call('HMGET', key, 'count', 'window_start')
	local count = tonumber(data[1]) or 0
	local start = tonumber(data[2]) or now

	if now >= start + window then
		count = 0
		start = now
	end

	return {count, start + window}
`)

// transferScript merges an anonymous ledger into a user ledger and
// deletes the anonymous key, all in one atomic step. Replaying the
// transfer is a no-op because the anonymous key is already gone, and
// concurrent attempts serialize on the script execution, so the merge
// can never double-count.
var transferScript = redis.NewScript(`
	local anonKey = KEYS[1]
	local userKey = KEYS[2]
	local limit = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])

	local anon = redis.call('HMGET', anonKey, 'count', 'window_start')
	if not anon[1] then
		-- Already transferred (or never used): report current user state
		local user = redis.call('HMGET', userKey, 'count', 'window_start')
		local count = tonumber(user[1]) or 0
		local start = tonumber(user[2]) or now
		if now >= start + window then
			count = 0
			start = now
		end
		return {0, count, start + window}
	end

	local anonCount = tonumber(anon[1]) or 0
	local anonStart = tonumber(anon[2]) or now
	if now >= anonStart + window then
		-- Expired anonymous usage contributes nothing
		anonCount = 0
		anonStart = now
	end

	local user = redis.call('HMGET', userKey, 'count', 'window_start')
	local count = tonumber(user[1]) or 0
	local start = tonumber(user[2])

	if start == nil then
		-- Fresh user ledger inherits the anonymous window so the reset
		-- time the user saw before signing in stays truthful
		start = anonStart
	elseif now >= start + window then
		count = 0
		start = now
	end

	count = count + anonCount
	if limit > 0 and count > limit then
		count = limit
	end

	redis.call('HMSET', userKey, 'count', count, 'window_start', start)
	redis.call('EXPIREAT', userKey, start + window)
	redis.call('DEL', anonKey)

	return {1, count, start + window}
`)

// ConsumeUsage charges one unit against the identity's ledger.
// limit <= 0 means unlimited: the call succeeds without touching Redis.
func (c *Cache) ConsumeUsage(ctx context.Context, identityKey string, limit int) (*LedgerResult, error) {
	if limit <= 0 {
		return &LedgerResult{Allowed: true, ResetAt: time.Now().Add(ledgerWindow)}, nil
	}

	key := ledgerKeyPrefix + identityKey
	now := time.Now().Unix()

	result, err := consumeScript.Run(ctx, c.client,
		[]string{key},
		limit, now, int(ledgerWindow.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("consume usage: %w", err)
	}

	return &LedgerResult{
		Allowed: result[0] == 1,
		Count:   result[1],
		ResetAt: time.Unix(result[2], 0),
	}, nil
}

// PeekUsage reads the identity's ledger without charging it.
func (c *Cache) PeekUsage(ctx context.Context, identityKey string) (*LedgerResult, error) {
	key := ledgerKeyPrefix + identityKey
	now := time.Now().Unix()

	result, err := peekScript.Run(ctx, c.client,
		[]string{key},
		now, int(ledgerWindow.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("peek usage: %w", err)
	}

	return &LedgerResult{
		Allowed: true,
		Count:   result[0],
		ResetAt: time.Unix(result[1], 0),
	}, nil
}

// TransferUsage merges the anonymous ledger into the user ledger,
// capped at the user's limit, and clears the anonymous ledger.
// Idempotent: once the anonymous key is gone, replays are no-ops.
func (c *Cache) TransferUsage(ctx context.Context, anonKey, userKey string, userLimit int) (*TransferResult, error) {
	now := time.Now().Unix()

	result, err := transferScript.Run(ctx, c.client,
		[]string{ledgerKeyPrefix + anonKey, ledgerKeyPrefix + userKey},
		userLimit, now, int(ledgerWindow.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("transfer usage: %w", err)
	}

	return &TransferResult{
		Transferred: result[0] == 1,
		Count:       result[1],
		ResetAt:     time.Unix(result[2], 0),
	}, nil
}
