package trade

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"solana-trade-bot/internal/amount"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/idhash"
	"solana-trade-bot/internal/jupiter"
	"solana-trade-bot/internal/observability"
	"solana-trade-bot/internal/swap"
)

// Buy spends amountSOL on token and returns the appended history record.
// Slippage is clamped into [MinSlippageBps, MaxSlippageBps] and the priority
// fee into the executor's range. No record is written on failure.
func (o *Orchestrator) Buy(
	ctx context.Context,
	wallet domain.Wallet,
	amountSOL float64,
	token string,
	slippageBps int,
	priorityFeeSOL float64,
) (rec *domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { finish(domain.DirectionBuy, start, err) }()

	if err := validate(wallet, token); err != nil {
		return nil, err
	}
	if math.IsNaN(amountSOL) || amountSOL <= 0 {
		return nil, domain.NewError(domain.KindInvalidAmount, "buy amount must be positive, got %v", amountSOL)
	}
	lamports, err := amount.Lamports(amountSOL)
	if err != nil || lamports == 0 {
		return nil, domain.NewError(domain.KindInvalidAmount, "buy amount %v SOL is below one lamport", amountSOL)
	}
	slippageBps = ClampSlippage(slippageBps)
	priorityFeeSOL = swap.ClampPriorityFee(priorityFeeSOL)

	unlock, err := o.lock(ctx, wallet.Address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := o.checkNativeBalance(ctx, wallet.Address, lamports, priorityFeeSOL); err != nil {
		return nil, err
	}

	quote, err := o.quote(ctx, jupiter.QuoteRequest{
		InputMint:      domain.NativeMint,
		OutputMint:     token,
		Amount:         lamports,
		SlippageBps:    slippageBps,
		PlatformFeeBps: o.fee.Bps,
	})
	if err != nil {
		return nil, err
	}

	result, err := o.executor.Execute(ctx, quote, wallet.Signer, priorityFeeSOL, o.fee.Bps, o.fee.Recipient)
	if err != nil {
		o.logger.Warn("buy failed",
			"wallet", wallet.Address,
			"token", token,
			"signature", domain.SignatureOf(err),
			"error", err,
		)
		return nil, err
	}

	decimals := o.outputDecimals(ctx, quote, token)
	symbol, solUSD := o.symbolAndSOLPrice(ctx, token)

	spent := amount.SOL(result.InputAmount)
	ts := o.now().UnixMilli()
	rec = &domain.TradeRecord{
		TradeID:      idhash.ComputeTradeID(wallet.Address, result.Signature, domain.DirectionBuy, ts),
		Wallet:       wallet.Address,
		Timestamp:    ts,
		Direction:    domain.DirectionBuy,
		TokenAddress: token,
		TokenSymbol:  symbol,
		NativeAmount: spent,
		TokenAmount:  amount.FromAtomic(result.OutputAmount, decimals),
		USDValue:     usd(spent, solUSD),
		Signature:    result.Signature,
		FeeTaken:     platformFee(quote, decimals),
		SlippageBps:  slippageBps,
		PriorityFee:  priorityFeeSOL,
	}

	o.record(ctx, rec)
	observability.RecordTradeVolume(string(domain.DirectionBuy), spent)
	o.logger.Info("buy complete",
		"wallet", wallet.Address,
		"token", token,
		"sol", spent,
		"tokens", rec.TokenAmount,
		"signature", rec.Signature,
	)
	return rec, nil
}

// checkNativeBalance requires lamports + priority fee + NativeFeeBuffer.
// An exactly sufficient balance passes.
func (o *Orchestrator) checkNativeBalance(ctx context.Context, owner string, lamports uint64, priorityFeeSOL float64) error {
	feeLamports, err := amount.Lamports(priorityFeeSOL)
	if err != nil {
		return domain.WrapError(domain.KindInvalidAmount, err, "priority fee")
	}
	bufferLamports, _ := amount.Lamports(domain.NativeFeeBuffer)
	if lamports > math.MaxUint64-feeLamports-bufferLamports {
		return domain.NewError(domain.KindInvalidAmount,
			"buy amount %s SOL plus fees exceeds the SOL supply", formatSOL(lamports))
	}
	need := lamports + feeLamports + bufferLamports

	have, err := o.balances.FreshSOL(ctx, owner)
	if err != nil {
		return domain.WrapError(domain.KindUpstreamUnavailable, err, "read SOL balance")
	}
	if have < need {
		return domain.NewError(domain.KindInsufficientFunds,
			"have %s SOL, need %s SOL (amount + priority fee + %s SOL reserve)",
			formatSOL(have), formatSOL(need), formatSOL(bufferLamports))
	}
	return nil
}

// outputDecimals resolves token decimals: quote, then the mint, then the
// native default with a warning.
func (o *Orchestrator) outputDecimals(ctx context.Context, quote *domain.Quote, token string) int {
	if quote.OutputDecimals > 0 {
		return quote.OutputDecimals
	}
	if o.mints != nil {
		dec, err := o.mints.GetMintDecimals(ctx, token)
		if err == nil {
			return dec
		}
		o.logger.Warn("mint decimals lookup failed", "token", token, "error", err)
	}
	o.logger.Warn("token decimals unknown, assuming default",
		"token", token,
		"decimals", domain.DefaultDecimals,
	)
	return domain.DefaultDecimals
}

// platformFee returns the quote's platform fee in output-asset units.
func platformFee(quote *domain.Quote, decimals int) float64 {
	if quote.PlatformFee == nil {
		return 0
	}
	return amount.FromAtomic(quote.PlatformFee.Amount, decimals)
}

func usd(sol, solUSD float64) float64 {
	if solUSD <= 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(sol).Mul(decimal.NewFromFloat(solUSD)).Float64()
	return v
}

func formatSOL(lamports uint64) string {
	return formatUnits(lamports, domain.NativeDecimals)
}

// formatUnits renders an atomic amount in UI units without exponent notation.
func formatUnits(atomic uint64, decimals int) string {
	return decimal.NewFromUint64(atomic).Shift(-int32(decimals)).String()
}
