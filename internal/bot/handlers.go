package bot

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"solana-trade-bot/internal/address"
	"solana-trade-bot/internal/amount"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/observability"
	"solana-trade-bot/internal/storage"
	"solana-trade-bot/internal/wallet"
)

const defaultHistoryLimit = 10

const helpText = `Solana trading bot

/wallet - show your wallet
/wallet new - create a wallet
/wallet import <base58 secret key> - import a wallet
/balance [token] - SOL or token balance
/buy <sol> <token> - buy a token with SOL
/sell <percent|all> <token> - sell a share of a token
/history [n] - recent trades
/settings - show trade settings
/slippage <percent> - set slippage (0.5 to 50)
/fee <sol> - set priority fee

Paste a token address to analyze it.`

// command wraps a handler with metrics and a sender-bound user ID.
func (b *Bot) command(name string, fn func(c tele.Context, user int64) error) tele.HandlerFunc {
	return func(c tele.Context) error {
		observability.RecordCommand(name)
		u := c.Sender()
		if u == nil {
			return nil
		}
		return fn(c, u.ID)
	}
}

func (b *Bot) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.baseCtx, DefaultQueryTimeout)
}

func (b *Bot) onStart(c tele.Context, _ int64) error {
	return c.Send(helpText)
}

func (b *Bot) onWallet(c tele.Context, user int64) error {
	args := c.Args()
	if len(args) == 0 {
		signer, ok := b.sessions.Wallet(user)
		if !ok {
			return c.Send("No wallet yet. Use /wallet new or /wallet import <secret key>.")
		}
		return c.Send("Wallet: " + signer.PublicAddress())
	}

	switch strings.ToLower(args[0]) {
	case "new":
		signer, err := wallet.New()
		if err != nil {
			b.logger.Error("generate wallet failed", "user_id", user, "error", err)
			return c.Send("Could not create a wallet. Please try again.")
		}
		b.sessions.SetWallet(user, signer)
		b.logger.Info("wallet created", "user_id", user, "wallet", signer.PublicAddress())
		return c.Send(fmt.Sprintf(
			"Wallet created: %s\n\nSecret key (save it now, it is not shown again):\n%s\n\nFund the address with SOL to start trading.",
			signer.PublicAddress(), signer.ExportBase58()))

	case "import":
		if len(args) < 2 {
			return c.Send("Usage: /wallet import <base58 secret key>")
		}
		// The secret should not stay in the chat history.
		if err := c.Delete(); err != nil {
			b.logger.Debug("delete import message failed", "user_id", user, "error", err)
		}
		signer, err := wallet.FromBase58(args[1])
		if err != nil {
			return c.Send("That secret key is not a valid Solana keypair.")
		}
		b.sessions.SetWallet(user, signer)
		b.logger.Info("wallet imported", "user_id", user, "wallet", signer.PublicAddress())
		return c.Send("Wallet imported: " + signer.PublicAddress())

	default:
		return c.Send("Usage: /wallet | /wallet new | /wallet import <secret key>")
	}
}

func (b *Bot) onBalance(c tele.Context, user int64) error {
	signer, ok := b.sessions.Wallet(user)
	if !ok {
		return c.Send("No wallet yet. Use /wallet new or /wallet import <secret key>.")
	}
	owner := signer.PublicAddress()

	ctx, cancel := b.queryContext()
	defer cancel()

	args := c.Args()
	if len(args) == 0 {
		lamports, err := b.balances.SOL(ctx, owner)
		if err != nil {
			return c.Send(UserMessage(domain.WrapError(domain.KindUpstreamUnavailable, err, "read SOL balance")))
		}
		return c.Send(fmt.Sprintf("%s\nBalance: %s SOL", owner, formatAmount(amount.SOL(lamports))))
	}

	token := args[0]
	if !address.IsValid(token) {
		return c.Send(UserMessage(domain.NewError(domain.KindInvalidAddress, "invalid token address %q", token)))
	}
	bal, err := b.balances.Token(ctx, owner, token)
	if err != nil {
		return c.Send(UserMessage(domain.WrapError(domain.KindUpstreamUnavailable, err, "read token balance")))
	}
	return c.Send(fmt.Sprintf("%s\nBalance: %s of %s",
		owner, formatAmount(amount.FromAtomic(bal.Amount, bal.Decimals)), shortAddress(token)))
}

func (b *Bot) onBuy(c tele.Context, user int64) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /buy <sol amount> <token address>")
	}
	amountSOL, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return c.Send("Usage: /buy <sol amount> <token address>")
	}
	return b.runTrade(c, user, domain.DirectionBuy, amountSOL, args[1])
}

func (b *Bot) onSell(c tele.Context, user int64) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: /sell <percent|all> <token address>")
	}
	percent, ok := parsePercent(args[0])
	if !ok {
		return c.Send("Usage: /sell <percent|all> <token address>")
	}
	return b.runTrade(c, user, domain.DirectionSell, percent, args[1])
}

// runTrade executes one trade with the user's settings and reports the outcome.
func (b *Bot) runTrade(c tele.Context, user int64, dir domain.Direction, size float64, token string) error {
	signer, ok := b.sessions.Wallet(user)
	if !ok {
		return c.Send("No wallet yet. Use /wallet new or /wallet import <secret key>.")
	}
	settings := b.sessions.Settings(user)
	_ = c.Notify(tele.Typing)

	ctx, cancel := context.WithTimeout(b.baseCtx, b.tradeTimeout)
	defer cancel()

	var (
		rec *domain.TradeRecord
		err error
	)
	if dir == domain.DirectionBuy {
		rec, err = b.trader.Buy(ctx, signer.Wallet(), size, token, settings.SlippageBps, settings.PriorityFeeSOL)
	} else {
		rec, err = b.trader.Sell(ctx, signer.Wallet(), size, token, settings.SlippageBps, settings.PriorityFeeSOL)
	}
	if err != nil {
		b.logger.Info("trade rejected",
			"user_id", user,
			"direction", dir,
			"token", token,
			"kind", domain.KindOf(err),
			"error", err,
		)
		return c.Send(UserMessage(err))
	}
	return c.Send(formatTrade(rec))
}

func (b *Bot) onHistory(c tele.Context, user int64) error {
	signer, ok := b.sessions.Wallet(user)
	if !ok {
		return c.Send("No wallet yet. Use /wallet new or /wallet import <secret key>.")
	}

	limit := defaultHistoryLimit
	if args := c.Args(); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return c.Send("Usage: /history [count]")
		}
		limit = min(n, storage.DefaultHistoryCap)
	}

	ctx, cancel := b.queryContext()
	defer cancel()

	records, err := b.history.Recent(ctx, signer.PublicAddress(), limit)
	if err != nil {
		b.logger.Error("read history failed", "user_id", user, "error", err)
		return c.Send("Could not load trade history. Please try again.")
	}
	if len(records) == 0 {
		return c.Send("No trades yet.")
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, fmt.Sprintf("Last %d trades:", len(records)))
	for _, r := range records {
		lines = append(lines, formatHistoryLine(r))
	}
	return c.Send(strings.Join(lines, "\n"))
}

func (b *Bot) onSettings(c tele.Context, user int64) error {
	signer, _ := b.sessions.Wallet(user)
	return c.Send(formatSettings(b.sessions.Settings(user), signer))
}

func (b *Bot) onSlippage(c tele.Context, user int64) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /slippage <percent>, e.g. /slippage 1")
	}
	pct, ok := parsePercent(args[0])
	if !ok {
		return c.Send("Usage: /slippage <percent>, e.g. /slippage 1")
	}
	requested := int(math.Round(pct * 100))
	stored := b.sessions.SetSlippage(user, requested)
	if stored != requested {
		return c.Send(fmt.Sprintf("Slippage adjusted to %s (allowed range 0.50%% to 50.00%%).", formatBps(stored)))
	}
	return c.Send("Slippage set to " + formatBps(stored))
}

func (b *Bot) onFee(c tele.Context, user int64) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /fee <sol>, e.g. /fee 0.001")
	}
	fee, err := strconv.ParseFloat(args[0], 64)
	if err != nil || math.IsNaN(fee) {
		return c.Send("Usage: /fee <sol>, e.g. /fee 0.001")
	}
	stored := b.sessions.SetPriorityFee(user, fee)
	if stored != fee {
		return c.Send(fmt.Sprintf("Priority fee adjusted to %s SOL.", formatAmount(stored)))
	}
	return c.Send(fmt.Sprintf("Priority fee set to %s SOL", formatAmount(stored)))
}

// onText analyzes a pasted token address.
func (b *Bot) onText(c tele.Context, _ int64) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return c.Send("Unknown command. Send /start for the command list.")
	}
	if !address.IsValid(text) {
		return c.Send("Send a token address to analyze it, or /start for commands.")
	}
	_ = c.Notify(tele.Typing)

	ctx, cancel := b.queryContext()
	defer cancel()

	start := time.Now()
	report, err := b.analyzer.Analyze(ctx, text)
	if err != nil {
		return c.Send(UserMessage(err))
	}
	b.logger.Debug("analysis sent", "token", text, "elapsed", time.Since(start))
	return c.Send(formatReport(report))
}

// parsePercent accepts "50", "50%", "all" and "max".
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "all" || s == "max" {
		return 100, true
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
