// Package bot is the Telegram command layer. It parses plain-text commands,
// calls into the trading core and renders results; it holds no trading logic.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v3"

	"solana-trade-bot/internal/analysis"
	"solana-trade-bot/internal/balance"
	"solana-trade-bot/internal/domain"
	sol "solana-trade-bot/internal/solana"
	"solana-trade-bot/internal/trade"
)

// Trader executes buys and sells.
type Trader interface {
	Buy(ctx context.Context, wallet domain.Wallet, amountSOL float64, token string, slippageBps int, priorityFeeSOL float64) (*domain.TradeRecord, error)
	Sell(ctx context.Context, wallet domain.Wallet, percent float64, token string, slippageBps int, priorityFeeSOL float64) (*domain.TradeRecord, error)
}

// Balances reads wallet holdings for display. Cached reads are acceptable.
type Balances interface {
	SOL(ctx context.Context, owner string) (uint64, error)
	Token(ctx context.Context, owner, mint string) (*sol.TokenBalance, error)
}

// History lists a wallet's recent trades, most recent first.
type History interface {
	Recent(ctx context.Context, wallet string, limit int) ([]*domain.TradeRecord, error)
}

// Analyzer reports on a token address.
type Analyzer interface {
	Analyze(ctx context.Context, token string) (*analysis.Report, error)
}

// Compile-time interface checks.
var (
	_ Trader   = (*trade.Orchestrator)(nil)
	_ Balances = (*balance.Reader)(nil)
	_ Analyzer = (*analysis.Analyzer)(nil)
)

// Timeouts for handler work.
const (
	DefaultTradeTimeout = 2 * time.Minute
	DefaultQueryTimeout = 20 * time.Second
)

// Options for creating Bot.
type Options struct {
	Token        string
	AllowedUsers []int64 // empty allows everyone
	PollTimeout  time.Duration

	Trader   Trader
	Balances Balances
	History  History
	Analyzer Analyzer
	Sessions *Sessions

	TradeTimeout time.Duration
	Logger       *slog.Logger
}

// Bot serves Telegram commands over long polling.
type Bot struct {
	tb *tele.Bot

	trader   Trader
	balances Balances
	history  History
	analyzer Analyzer
	sessions *Sessions

	allowed      map[int64]struct{}
	tradeTimeout time.Duration
	baseCtx      context.Context
	logger       *slog.Logger
}

// New creates the Telegram client and registers every command.
// It does not contact Telegram until Start.
func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("bot: telegram token is required")
	}
	b := newBot(opts)

	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:   opts.Token,
		Poller:  &tele.LongPoller{Timeout: pollTimeout},
		Offline: true,
		OnError: func(err error, c tele.Context) {
			b.logger.Error("handler error", "error", err)
		},
	})
	if err != nil {
		return nil, err
	}
	b.tb = tb
	b.register(tb)
	return b, nil
}

func newBot(opts Options) *Bot {
	b := &Bot{
		trader:       opts.Trader,
		balances:     opts.Balances,
		history:      opts.History,
		analyzer:     opts.Analyzer,
		sessions:     opts.Sessions,
		allowed:      make(map[int64]struct{}, len(opts.AllowedUsers)),
		tradeTimeout: opts.TradeTimeout,
		baseCtx:      context.Background(),
		logger:       opts.Logger,
	}
	for _, id := range opts.AllowedUsers {
		b.allowed[id] = struct{}{}
	}
	if b.tradeTimeout <= 0 {
		b.tradeTimeout = DefaultTradeTimeout
	}
	if b.sessions == nil {
		b.sessions = NewSessions(Settings{}, nil)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "bot")
	return b
}

func (b *Bot) register(tb *tele.Bot) {
	tb.Use(b.restrict)
	tb.Handle("/start", b.command("start", b.onStart))
	tb.Handle("/help", b.command("help", b.onStart))
	tb.Handle("/wallet", b.command("wallet", b.onWallet))
	tb.Handle("/balance", b.command("balance", b.onBalance))
	tb.Handle("/buy", b.command("buy", b.onBuy))
	tb.Handle("/sell", b.command("sell", b.onSell))
	tb.Handle("/history", b.command("history", b.onHistory))
	tb.Handle("/settings", b.command("settings", b.onSettings))
	tb.Handle("/slippage", b.command("slippage", b.onSlippage))
	tb.Handle("/fee", b.command("fee", b.onFee))
	tb.Handle(tele.OnText, b.command("text", b.onText))
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if len(b.allowed) == 0 {
		b.logger.Warn("no allowed users configured, bot is open to everyone")
	}
	b.baseCtx = ctx

	me, err := b.tb.Raw("getMe", nil)
	if err != nil {
		return err
	}
	b.logger.Info("telegram bot started", "me", string(me))

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.tb.Start()
	}()

	<-ctx.Done()
	b.tb.Stop()
	<-done
	return nil
}

// restrict drops updates from users outside the allow list.
func (b *Bot) restrict(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if len(b.allowed) == 0 {
			return next(c)
		}
		u := c.Sender()
		if u == nil {
			return nil
		}
		if _, ok := b.allowed[u.ID]; !ok {
			b.logger.Warn("rejected update from unknown user", "user_id", u.ID)
			return nil
		}
		return next(c)
	}
}
