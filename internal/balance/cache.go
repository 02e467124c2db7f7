// Package balance reads wallet balances through an injectable TTL cache.
package balance

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached balance of one asset.
type Entry struct {
	Amount   uint64 `json:"amount"` // atomic
	Decimals int    `json:"decimals"`
	Accounts int    `json:"accounts"`
}

// Cache stores balances keyed by owner address and asset mint.
// Entries expire after the implementation's TTL.
type Cache interface {
	Get(ctx context.Context, owner, asset string) (Entry, bool, error)
	Set(ctx context.Context, owner, asset string, e Entry) error
	// Invalidate drops every cached asset of owner.
	Invalidate(ctx context.Context, owner string) error
}

// DefaultTTL is how long balances are served from cache.
const DefaultTTL = 30 * time.Second

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]memoryEntry // owner -> asset -> entry
}

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates an in-memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Cache = (*MemoryCache)(nil)

// Get returns a live entry.
func (c *MemoryCache) Get(_ context.Context, owner, asset string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[owner][asset]
	if !ok || !c.now().Before(e.expires) {
		return Entry{}, false, nil
	}
	return e.entry, true, nil
}

// Set stores an entry and prunes the owner's expired ones.
func (c *MemoryCache) Set(_ context.Context, owner, asset string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	assets, ok := c.entries[owner]
	if !ok {
		assets = make(map[string]memoryEntry)
		c.entries[owner] = assets
	}
	for k, v := range assets {
		if !now.Before(v.expires) {
			delete(assets, k)
		}
	}
	assets[asset] = memoryEntry{entry: e, expires: now.Add(c.ttl)}
	return nil
}

// Invalidate drops all entries of owner.
func (c *MemoryCache) Invalidate(_ context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, owner)
	return nil
}
