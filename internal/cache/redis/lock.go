package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"solana-trade-bot/internal/domain"
)

// ErrLockHeld is returned by Acquire when another holder owns the lock.
var ErrLockHeld = errors.New("lock held")

// unlockLua deletes a lock key only if its value matches the caller's token.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// LockManager hands out distributed locks using SETNX with a TTL and
// a Lua-based conditional unlock.
type LockManager struct {
	c        *Client
	unlockSc *redis.Script
}

// NewLockManager creates a LockManager backed by the given Client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{
		c:        c,
		unlockSc: redis.NewScript(unlockLua),
	}
}

// Acquire attempts once to obtain the lock for key. On success it returns an
// unlock function that is safe to call multiple times.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	lk := lm.c.key("lock", key)

	ok, err := lm.c.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	released := false
	unlock := func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = lm.unlockSc.Run(unlockCtx, lm.c.rdb, []string{lk}, token).Err()
	}

	return unlock, nil
}

// WalletLocker serializes trades per wallet across processes.
type WalletLocker struct {
	lm    *LockManager
	ttl   time.Duration
	retry time.Duration
}

// NewWalletLocker creates a locker. ttl must exceed the longest trade,
// including confirmation; retry is the polling interval while waiting.
func NewWalletLocker(lm *LockManager, ttl, retry time.Duration) *WalletLocker {
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}
	return &WalletLocker{lm: lm, ttl: ttl, retry: retry}
}

// Lock blocks until wallet's lock is acquired or ctx ends, in which case
// it fails with a WalletBusy error.
func (wl *WalletLocker) Lock(ctx context.Context, wallet string) (func(), error) {
	ticker := time.NewTicker(wl.retry)
	defer ticker.Stop()

	for {
		unlock, err := wl.lm.Acquire(ctx, "wallet:"+wallet, wl.ttl)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, domain.WrapError(domain.KindWalletBusy, ctx.Err(), "another trade on this wallet is in progress")
		case <-ticker.C:
		}
	}
}
