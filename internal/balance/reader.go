package balance

import (
	"context"
	"log/slog"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/observability"
	"solana-trade-bot/internal/solana"
)

// Reader fetches native and SPL balances. Cached reads are for display;
// trades use the Fresh variants.
type Reader struct {
	rpc    solana.RPCClient
	cache  Cache
	logger *slog.Logger
}

// ReaderOption configures Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = l
	}
}

// NewReader creates a reader. A nil cache disables caching.
func NewReader(rpc solana.RPCClient, cache Cache, opts ...ReaderOption) *Reader {
	r := &Reader{rpc: rpc, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "balance")
	return r
}

// SOL returns owner's lamports, possibly from cache.
func (r *Reader) SOL(ctx context.Context, owner string) (uint64, error) {
	if e, ok := r.lookup(ctx, owner, domain.NativeMint); ok {
		return e.Amount, nil
	}
	return r.FreshSOL(ctx, owner)
}

// FreshSOL reads owner's lamports from the chain and refreshes the cache.
func (r *Reader) FreshSOL(ctx context.Context, owner string) (uint64, error) {
	lamports, err := r.rpc.GetBalance(ctx, owner)
	if err != nil {
		return 0, err
	}
	r.store(ctx, owner, domain.NativeMint, Entry{Amount: lamports, Decimals: domain.NativeDecimals})
	return lamports, nil
}

// Token returns owner's holding of mint, possibly from cache.
func (r *Reader) Token(ctx context.Context, owner, mint string) (*solana.TokenBalance, error) {
	if e, ok := r.lookup(ctx, owner, mint); ok {
		return &solana.TokenBalance{Mint: mint, Amount: e.Amount, Decimals: e.Decimals, Accounts: e.Accounts}, nil
	}
	return r.FreshToken(ctx, owner, mint)
}

// FreshToken reads owner's holding of mint from the chain and refreshes the cache.
func (r *Reader) FreshToken(ctx context.Context, owner, mint string) (*solana.TokenBalance, error) {
	bal, err := r.rpc.GetTokenBalance(ctx, owner, mint)
	if err != nil {
		return nil, err
	}
	r.store(ctx, owner, mint, Entry{Amount: bal.Amount, Decimals: bal.Decimals, Accounts: bal.Accounts})
	return bal, nil
}

// Invalidate drops owner's cached balances, typically after a trade.
func (r *Reader) Invalidate(ctx context.Context, owner string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, owner); err != nil {
		r.logger.Warn("cache invalidate failed", "owner", owner, "error", err)
	}
}

func (r *Reader) lookup(ctx context.Context, owner, asset string) (Entry, bool) {
	if r.cache == nil {
		return Entry{}, false
	}
	e, ok, err := r.cache.Get(ctx, owner, asset)
	if err != nil {
		r.logger.Warn("cache read failed", "owner", owner, "asset", asset, "error", err)
		return Entry{}, false
	}
	observability.RecordBalanceCache(ok)
	return e, ok
}

func (r *Reader) store(ctx context.Context, owner, asset string, e Entry) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, owner, asset, e); err != nil {
		r.logger.Warn("cache write failed", "owner", owner, "asset", asset, "error", err)
	}
}
