package trade

import (
	"context"
	"sync"

	"solana-trade-bot/internal/domain"
)

// KeyedMutex is an in-process Locker with one slot per wallet.
// Waiting honors ctx; a cancelled wait fails with WalletBusy.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewKeyedMutex creates a new KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]chan struct{})}
}

var _ Locker = (*KeyedMutex)(nil)

// Lock blocks until wallet is free or ctx ends.
func (k *KeyedMutex) Lock(ctx context.Context, wallet string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[wallet]
	if !ok {
		slot = make(chan struct{}, 1)
		k.slots[wallet] = slot
	}
	k.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, domain.WrapError(domain.KindWalletBusy, ctx.Err(), "another trade is running for %s", wallet)
	}
}
