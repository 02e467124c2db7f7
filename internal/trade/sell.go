package trade

import (
	"context"
	"math"
	"time"

	"solana-trade-bot/internal/amount"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/idhash"
	"solana-trade-bot/internal/jupiter"
	"solana-trade-bot/internal/observability"
	"solana-trade-bot/internal/swap"
)

// Sell sells percent of the wallet's token holding for SOL and returns the
// appended history record carrying realized PnL.
func (o *Orchestrator) Sell(
	ctx context.Context,
	wallet domain.Wallet,
	percent float64,
	token string,
	slippageBps int,
	priorityFeeSOL float64,
) (rec *domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { finish(domain.DirectionSell, start, err) }()

	if err := validate(wallet, token); err != nil {
		return nil, err
	}
	if math.IsNaN(percent) || percent <= 0 || percent > 100 {
		return nil, domain.NewError(domain.KindInvalidAmount, "sell percentage must be within (0, 100], got %v", percent)
	}
	slippageBps = ClampSlippage(slippageBps)
	priorityFeeSOL = swap.ClampPriorityFee(priorityFeeSOL)

	unlock, err := o.lock(ctx, wallet.Address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	held, err := o.balances.FreshToken(ctx, wallet.Address, token)
	if err != nil {
		return nil, domain.WrapError(domain.KindUpstreamUnavailable, err, "read token balance")
	}
	if held.Amount == 0 {
		return nil, domain.NewError(domain.KindNoTokensHeld, "wallet holds no %s", token)
	}

	sellAtomic := amount.PercentOf(held.Amount, percent)
	if sellAtomic == 0 {
		return nil, domain.NewError(domain.KindDustAmount, "%v%% of %s tokens is below one atomic unit",
			percent, formatUnits(held.Amount, held.Decimals))
	}

	quote, err := o.quote(ctx, jupiter.QuoteRequest{
		InputMint:      token,
		OutputMint:     domain.NativeMint,
		Amount:         sellAtomic,
		SlippageBps:    slippageBps,
		PlatformFeeBps: o.fee.Bps,
	})
	if err != nil {
		return nil, err
	}

	result, err := o.executor.Execute(ctx, quote, wallet.Signer, priorityFeeSOL, o.fee.Bps, o.fee.Recipient)
	if err != nil {
		o.logger.Warn("sell failed",
			"wallet", wallet.Address,
			"token", token,
			"signature", domain.SignatureOf(err),
			"error", err,
		)
		return nil, err
	}

	sold := amount.FromAtomic(result.InputAmount, held.Decimals)
	proceeds := amount.SOL(result.OutputAmount)
	pnl := o.realizedPnL(ctx, wallet.Address, token, sold, proceeds)
	symbol, solUSD := o.symbolAndSOLPrice(ctx, token)

	ts := o.now().UnixMilli()
	rec = &domain.TradeRecord{
		TradeID:        idhash.ComputeTradeID(wallet.Address, result.Signature, domain.DirectionSell, ts),
		Wallet:         wallet.Address,
		Timestamp:      ts,
		Direction:      domain.DirectionSell,
		TokenAddress:   token,
		TokenSymbol:    symbol,
		NativeAmount:   proceeds,
		TokenAmount:    sold,
		USDValue:       usd(proceeds, solUSD),
		RealizedPnL:    pnl,
		RealizedPnLUSD: usd(pnl, solUSD),
		Signature:      result.Signature,
		FeeTaken:       platformFee(quote, domain.NativeDecimals),
		SlippageBps:    slippageBps,
		PriorityFee:    priorityFeeSOL,
	}

	o.record(ctx, rec)
	observability.RecordTradeVolume(string(domain.DirectionSell), proceeds)
	o.logger.Info("sell complete",
		"wallet", wallet.Address,
		"token", token,
		"tokens", sold,
		"sol", proceeds,
		"pnl_sol", pnl,
		"signature", rec.Signature,
	)
	return rec, nil
}

// realizedPnL prices sold tokens at the wallet's average buy cost.
// Unknown cost basis yields 0.
func (o *Orchestrator) realizedPnL(ctx context.Context, wallet, token string, sold, proceeds float64) float64 {
	buys, err := o.history.BuysForToken(ctx, wallet, token)
	if err != nil {
		o.logger.Warn("read buy history failed", "wallet", wallet, "token", token, "error", err)
		return 0
	}
	basis, ok := AverageCost(buys)
	if !ok {
		return 0
	}
	return RealizedPnL(proceeds, sold, basis)
}
