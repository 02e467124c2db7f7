// Package trade performs complete buys and sells.
// Flow: validate → lock wallet → balance check → quote → execute → record
package trade

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"solana-trade-bot/internal/address"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/jupiter"
	"solana-trade-bot/internal/observability"
	sol "solana-trade-bot/internal/solana"
	"solana-trade-bot/internal/storage"
	"solana-trade-bot/internal/swap"
)

// Slippage band enforced on every trade, in basis points.
const (
	MinSlippageBps = 50
	MaxSlippageBps = 5000
)

// Quoter fetches aggregator quotes.
type Quoter interface {
	GetQuote(ctx context.Context, req jupiter.QuoteRequest) (*domain.Quote, error)
}

// Executor broadcasts a quote as a signed swap and waits for confirmation.
type Executor interface {
	Execute(ctx context.Context, quote *domain.Quote, signer domain.Signer,
		priorityFeeSOL float64, platformFeeBps int, feeRecipient string) (*domain.SwapResult, error)
}

// Balances reads on-chain holdings. Trades always read fresh.
type Balances interface {
	FreshSOL(ctx context.Context, owner string) (uint64, error)
	FreshToken(ctx context.Context, owner, mint string) (*sol.TokenBalance, error)
	Invalidate(ctx context.Context, owner string)
}

// MintInfo resolves token decimals when a quote does not carry them.
type MintInfo interface {
	GetMintDecimals(ctx context.Context, mint string) (int, error)
}

// MarketData supplies symbols and USD prices. Results are advisory.
type MarketData interface {
	FetchTradingPair(ctx context.Context, token string) *domain.TradingPair
	FetchSOLPriceUSD(ctx context.Context) float64
}

// Locker serializes trades per wallet. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, wallet string) (func(), error)
}

// Compile-time interface checks.
var (
	_ Quoter   = (*jupiter.Client)(nil)
	_ Executor = (*swap.Executor)(nil)
	_ MintInfo = (sol.RPCClient)(nil)
)

// PlatformFee is the commission charged on every trade.
type PlatformFee struct {
	Bps       int
	Recipient string
}

// Options for creating Orchestrator.
type Options struct {
	// Required collaborators
	Quoter   Quoter
	Executor Executor
	Balances Balances
	History  storage.TradeRecordStore

	// Optional collaborators
	Mints      MintInfo   // nil skips the getTokenSupply decimals lookup
	MarketData MarketData // nil leaves symbol and USD value empty
	Locker     Locker     // nil disables per-wallet serialization

	Fee    PlatformFee
	Logger *slog.Logger
	Now    func() time.Time
}

// Orchestrator composes quoting, execution and history into one trade.
// It keeps no per-trade state between calls.
type Orchestrator struct {
	quoter   Quoter
	executor Executor
	balances Balances
	history  storage.TradeRecordStore
	mints    MintInfo
	market   MarketData
	locker   Locker
	fee      PlatformFee
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		quoter:   opts.Quoter,
		executor: opts.Executor,
		balances: opts.Balances,
		history:  opts.History,
		mints:    opts.Mints,
		market:   opts.MarketData,
		locker:   opts.Locker,
		fee:      opts.Fee,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "trade")
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// ClampSlippage corrects bps into [MinSlippageBps, MaxSlippageBps].
func ClampSlippage(bps int) int {
	if bps < MinSlippageBps {
		return MinSlippageBps
	}
	if bps > MaxSlippageBps {
		return MaxSlippageBps
	}
	return bps
}

// lock acquires the wallet lock when serialization is enabled.
func (o *Orchestrator) lock(ctx context.Context, wallet string) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	return o.locker.Lock(ctx, wallet)
}

// quote maps a missing route onto NoRouteFound and rejects a quote for
// a different pair than requested.
func (o *Orchestrator) quote(ctx context.Context, req jupiter.QuoteRequest) (*domain.Quote, error) {
	q, err := o.quoter.GetQuote(ctx, req)
	if err != nil {
		if errors.Is(err, jupiter.ErrNoRoute) {
			return nil, domain.WrapError(domain.KindNoRouteFound, err, "no liquidity route for %s", req.OutputMint)
		}
		return nil, err
	}
	if q == nil || q.OutAmount == 0 {
		return nil, domain.NewError(domain.KindNoRouteFound, "no liquidity route for %s", req.OutputMint)
	}
	if q.InputMint != req.InputMint || q.OutputMint != req.OutputMint {
		return nil, domain.NewError(domain.KindQuoteUnavailable,
			"quote routes %s -> %s, requested %s -> %s", q.InputMint, q.OutputMint, req.InputMint, req.OutputMint)
	}
	return q, nil
}

// validate runs the checks shared by Buy and Sell.
func validate(wallet domain.Wallet, token string) error {
	if !address.IsValid(token) {
		return domain.NewError(domain.KindInvalidAddress, "invalid token address %q", token)
	}
	if wallet.Signer == nil || wallet.Signer.PublicAddress() != wallet.Address {
		return domain.NewError(domain.KindInvalidSigner, "wallet has no signer for %s", wallet.Address)
	}
	return nil
}

// symbolAndSOLPrice returns the token symbol and the USD price of SOL.
// Either may be empty when market data is unavailable.
func (o *Orchestrator) symbolAndSOLPrice(ctx context.Context, token string) (string, float64) {
	if o.market == nil {
		return "", 0
	}
	var symbol string
	pair := o.market.FetchTradingPair(ctx, token)
	if pair != nil {
		symbol = pair.BaseToken.Symbol
		if pair.QuoteToken.Address == domain.NativeMint && pair.PriceNative > 0 && pair.PriceUSD > 0 {
			return symbol, pair.PriceUSD / pair.PriceNative
		}
	}
	return symbol, o.market.FetchSOLPriceUSD(ctx)
}

// record appends r to history. Failure is logged only: the swap already landed.
func (o *Orchestrator) record(ctx context.Context, r *domain.TradeRecord) {
	if err := o.history.Append(ctx, r); err != nil {
		o.logger.Error("append trade history failed",
			"trade_id", r.TradeID,
			"wallet", r.Wallet,
			"signature", r.Signature,
			"error", err,
		)
	}
	o.balances.Invalidate(ctx, r.Wallet)
}

// finish records the outcome metric of one trade attempt.
func finish(direction domain.Direction, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "unclassified"
		}
	}
	observability.RecordTrade(string(direction), outcome, time.Since(start).Seconds())
}
