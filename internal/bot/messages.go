package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"solana-trade-bot/internal/analysis"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/wallet"
)

const explorerTxURL = "https://solscan.io/tx/"

var kindMessages = map[domain.ErrorKind]string{
	domain.KindInvalidAddress:      "That is not a valid Solana token address.",
	domain.KindInvalidAmount:       "Invalid amount. Use a positive SOL amount for /buy and a percentage between 0 and 100 for /sell.",
	domain.KindInsufficientFunds:   "Insufficient SOL balance for this trade.",
	domain.KindNoTokensHeld:        "You do not hold this token.",
	domain.KindDustAmount:          "The amount to sell is too small. Try a larger percentage.",
	domain.KindQuoteUnavailable:    "Could not get a price quote right now. Please try again shortly.",
	domain.KindNoRouteFound:        "No liquidity route found for this token. It may not be tradable yet.",
	domain.KindInvalidSigner:       "Your wallet cannot sign this trade. Re-import it with /wallet import.",
	domain.KindSwapBuildFailed:     "Could not build the swap transaction. Please try again.",
	domain.KindSubmissionFailed:    "The network rejected the transaction before broadcast. No funds moved.",
	domain.KindConfirmationTimeout: "The transaction was sent but not confirmed in time. Check the explorer before retrying.",
	domain.KindOnChainFailure:      "The transaction failed on-chain, usually from price movement beyond your slippage. Raise /slippage or retry.",
	domain.KindUpstreamUnavailable: "The Solana network could not be reached. Please try again shortly.",
	domain.KindWalletBusy:          "Another trade for this wallet is still running. Wait for it to finish.",
}

// UserMessage renders err for the chat. Every error kind has its own text;
// details from the error (balances, signature) are appended when present.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *domain.Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}

	msg, ok := kindMessages[e.Kind]
	if !ok {
		return "Something went wrong. Please try again."
	}
	if e.Kind == domain.KindInsufficientFunds && e.Message != "" {
		msg += "\n" + e.Message
	}
	if e.Signature != "" {
		msg += "\n" + explorerTxURL + e.Signature
	}
	return msg
}

func formatTrade(r *domain.TradeRecord) string {
	var b strings.Builder
	token := tokenLabel(r)
	switch r.Direction {
	case domain.DirectionBuy:
		fmt.Fprintf(&b, "Bought %s %s for %s SOL", formatAmount(r.TokenAmount), token, formatAmount(r.NativeAmount))
	default:
		fmt.Fprintf(&b, "Sold %s %s for %s SOL", formatAmount(r.TokenAmount), token, formatAmount(r.NativeAmount))
	}
	if r.USDValue > 0 {
		fmt.Fprintf(&b, " ($%.2f)", r.USDValue)
	}
	if r.Direction == domain.DirectionSell && r.RealizedPnL != 0 {
		fmt.Fprintf(&b, "\nPnL: %+.6f SOL", r.RealizedPnL)
		if r.RealizedPnLUSD != 0 {
			fmt.Fprintf(&b, " (%+.2f USD)", r.RealizedPnLUSD)
		}
	}
	fmt.Fprintf(&b, "\nSlippage: %s  Priority fee: %s SOL", formatBps(r.SlippageBps), formatAmount(r.PriorityFee))
	fmt.Fprintf(&b, "\n%s%s", explorerTxURL, r.Signature)
	return b.String()
}

func formatHistoryLine(r *domain.TradeRecord) string {
	ts := time.UnixMilli(r.Timestamp).UTC().Format("2006-01-02 15:04")
	line := fmt.Sprintf("%s %s %s %s for %s SOL",
		ts, r.Direction, formatAmount(r.TokenAmount), tokenLabel(r), formatAmount(r.NativeAmount))
	if r.Direction == domain.DirectionSell && r.RealizedPnL != 0 {
		line += fmt.Sprintf(" (PnL %+.4f)", r.RealizedPnL)
	}
	return line
}

func formatReport(r *analysis.Report) string {
	var b strings.Builder
	if p := r.Pair; p != nil {
		name := p.BaseToken.Symbol
		if name == "" {
			name = shortAddress(r.Token)
		}
		fmt.Fprintf(&b, "%s (%s)\n", name, p.DexID)
		fmt.Fprintf(&b, "Price: $%s\n", formatAmount(p.PriceUSD))
		fmt.Fprintf(&b, "Liquidity: $%.0f  24h volume: $%.0f\n", p.LiquidityUSD, p.Volume.H24)
		fmt.Fprintf(&b, "Change: 1h %+.1f%%  24h %+.1f%%\n", p.PriceChange.H1, p.PriceChange.H24)
	} else {
		fmt.Fprintf(&b, "%s\nNo market data found for this token.\n", shortAddress(r.Token))
	}

	fmt.Fprintf(&b, "\nSecurity: %d/100 %s\n", r.Assessment.Score, r.Assessment.Rating)
	for _, p := range r.Assessment.Positives {
		fmt.Fprintf(&b, "+ %s\n", p)
	}
	for _, w := range r.Assessment.Warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}

	fmt.Fprintf(&b, "\nSignal: %s\n%s\n", r.Signal.Action, r.Signal.Reason)
	if tp := r.Signal.TakeProfit; tp.Percent != 0 && tp.Price > 0 {
		fmt.Fprintf(&b, "Take profit: +%.0f%% ($%s)\n", tp.Percent, formatAmount(tp.Price))
	}
	if sl := r.Signal.StopLoss; sl.Percent != 0 && sl.Price > 0 {
		fmt.Fprintf(&b, "Stop loss: -%.0f%% ($%s)\n", sl.Percent, formatAmount(sl.Price))
	}
	fmt.Fprintf(&b, "\n/buy <sol> %s", r.Token)
	return b.String()
}

func formatSettings(s Settings, signer *wallet.Signer) string {
	addr := "none (use /wallet new or /wallet import)"
	if signer != nil {
		addr = signer.PublicAddress()
	}
	return fmt.Sprintf("Wallet: %s\nSlippage: %s\nPriority fee: %s SOL",
		addr, formatBps(s.SlippageBps), formatAmount(s.PriorityFeeSOL))
}

func tokenLabel(r *domain.TradeRecord) string {
	if r.TokenSymbol != "" {
		return r.TokenSymbol
	}
	return shortAddress(r.TokenAddress)
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

func formatBps(bps int) string {
	return fmt.Sprintf("%.2f%%", float64(bps)/100)
}

// formatAmount prints v without trailing zeros, up to 9 decimals.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.9f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
