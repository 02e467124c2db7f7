package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"solana-trade-bot/internal/balance"
)

// BalanceCache implements balance.Cache with one expiring key per owner and asset.
type BalanceCache struct {
	c   *Client
	ttl time.Duration
}

// NewBalanceCache creates a BalanceCache whose entries live for ttl.
func NewBalanceCache(c *Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = balance.DefaultTTL
	}
	return &BalanceCache{c: c, ttl: ttl}
}

func (bc *BalanceCache) balanceKey(owner, asset string) string {
	return bc.c.key("balance", owner, asset)
}

// Get returns the cached entry, if any.
func (bc *BalanceCache) Get(ctx context.Context, owner, asset string) (balance.Entry, bool, error) {
	raw, err := bc.c.rdb.Get(ctx, bc.balanceKey(owner, asset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return balance.Entry{}, false, nil
	}
	if err != nil {
		return balance.Entry{}, false, fmt.Errorf("redis: get balance %s/%s: %w", owner, asset, err)
	}

	var e balance.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return balance.Entry{}, false, fmt.Errorf("redis: decode balance %s/%s: %w", owner, asset, err)
	}
	return e, true, nil
}

// Set stores an entry with the cache TTL.
func (bc *BalanceCache) Set(ctx context.Context, owner, asset string, e balance.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis: encode balance: %w", err)
	}
	if err := bc.c.rdb.Set(ctx, bc.balanceKey(owner, asset), raw, bc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set balance %s/%s: %w", owner, asset, err)
	}
	return nil
}

// Invalidate deletes every cached asset of owner.
func (bc *BalanceCache) Invalidate(ctx context.Context, owner string) error {
	pattern := bc.c.key("balance", owner, "*")

	var cursor uint64
	for {
		keys, next, err := bc.c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis: scan balances %s: %w", owner, err)
		}
		if len(keys) > 0 {
			if err := bc.c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis: delete balances %s: %w", owner, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Compile-time interface check.
var _ balance.Cache = (*BalanceCache)(nil)
