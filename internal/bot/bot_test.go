package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"solana-trade-bot/internal/analysis"
	"solana-trade-bot/internal/domain"
	sol "solana-trade-bot/internal/solana"
	"solana-trade-bot/internal/wallet"
)

const bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// fakeContext implements the subset of tele.Context the handlers use.
type fakeContext struct {
	tele.Context
	user    *tele.User
	text    string
	args    []string
	sent    []string
	deleted bool
}

func newContext(userID int64, text string) *fakeContext {
	c := &fakeContext{user: &tele.User{ID: userID}, text: text}
	if strings.HasPrefix(text, "/") {
		c.args = strings.Fields(text)[1:]
	}
	return c
}

func (c *fakeContext) Sender() *tele.User { return c.user }
func (c *fakeContext) Text() string { return c.text }
func (c *fakeContext) Args() []string { return c.args }
func (c *fakeContext) Notify(tele.ChatAction) error { return nil }
func (c *fakeContext) Delete() error {
	c.deleted = true
	return nil
}
func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	return nil
}

func (c *fakeContext) last() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

type tradeCall struct {
	dir      domain.Direction
	wallet   string
	size     float64
	token    string
	slippage int
	fee      float64
}

type fakeTrader struct {
	calls []tradeCall
	rec   *domain.TradeRecord
	err   error
}

func (f *fakeTrader) Buy(_ context.Context, w domain.Wallet, amountSOL float64, token string, bps int, fee float64) (*domain.TradeRecord, error) {
	f.calls = append(f.calls, tradeCall{domain.DirectionBuy, w.Address, amountSOL, token, bps, fee})
	return f.rec, f.err
}

func (f *fakeTrader) Sell(_ context.Context, w domain.Wallet, percent float64, token string, bps int, fee float64) (*domain.TradeRecord, error) {
	f.calls = append(f.calls, tradeCall{domain.DirectionSell, w.Address, percent, token, bps, fee})
	return f.rec, f.err
}

type fakeBalances struct {
	lamports uint64
	token    *sol.TokenBalance
	err      error
}

func (f *fakeBalances) SOL(context.Context, string) (uint64, error) { return f.lamports, f.err }
func (f *fakeBalances) Token(context.Context, string, string) (*sol.TokenBalance, error) {
	return f.token, f.err
}

type fakeHistory struct {
	records []*domain.TradeRecord
	limit   int
}

func (f *fakeHistory) Recent(_ context.Context, _ string, limit int) ([]*domain.TradeRecord, error) {
	f.limit = limit
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakeAnalyzer struct {
	tokens []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, token string) (*analysis.Report, error) {
	f.tokens = append(f.tokens, token)
	return &analysis.Report{
		Token: token,
		Pair: &domain.TradingPair{
			DexID:     "raydium",
			BaseToken: domain.TokenRef{Address: token, Symbol: "BONK"},
			PriceUSD:  0.00002,
		},
		Assessment: domain.SecurityAssessment{Score: 80, Rating: domain.RatingSafe, Positives: []string{"Strong liquidity ($250000)"}},
		Signal:     domain.TradingSignal{Action: domain.ActionGoodEntry, Reason: "Quality token with stable price action"},
	}, nil
}

type fixture struct {
	bot      *Bot
	trader   *fakeTrader
	balances *fakeBalances
	history  *fakeHistory
	analyzer *fakeAnalyzer
	signer   *wallet.Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := wallet.New()
	require.NoError(t, err)

	f := &fixture{
		trader:   &fakeTrader{},
		balances: &fakeBalances{},
		history:  &fakeHistory{},
		analyzer: &fakeAnalyzer{},
		signer:   signer,
	}
	f.bot = newBot(Options{
		AllowedUsers: []int64{1},
		Trader:       f.trader,
		Balances:     f.balances,
		History:      f.history,
		Analyzer:     f.analyzer,
		Sessions:     NewSessions(Settings{SlippageBps: 100, PriorityFeeSOL: 0.001}, nil),
	})
	return f
}

func (f *fixture) withWallet(user int64) {
	f.bot.sessions.SetWallet(user, f.signer)
}

func TestUserMessage_DistinctPerKind(t *testing.T) {
	kinds := []domain.ErrorKind{
		domain.KindInvalidAddress, domain.KindInvalidAmount, domain.KindInsufficientFunds,
		domain.KindNoTokensHeld, domain.KindDustAmount, domain.KindQuoteUnavailable,
		domain.KindNoRouteFound, domain.KindInvalidSigner, domain.KindSwapBuildFailed,
		domain.KindSubmissionFailed, domain.KindConfirmationTimeout, domain.KindOnChainFailure,
		domain.KindUpstreamUnavailable, domain.KindWalletBusy,
	}

	seen := make(map[string]domain.ErrorKind)
	generic := UserMessage(errors.New("boom"))
	for _, k := range kinds {
		msg := UserMessage(&domain.Error{Kind: k})
		require.NotEmpty(t, msg, "kind %s", k)
		assert.NotEqual(t, generic, msg, "kind %s falls back to generic text", k)
		if prev, dup := seen[msg]; dup {
			t.Errorf("kinds %s and %s share a message", prev, k)
		}
		seen[msg] = k
	}

	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, generic, UserMessage(&domain.Error{Kind: "SOMETHING_NEW"}))
}

func TestUserMessage_Details(t *testing.T) {
	msg := UserMessage(domain.NewError(domain.KindInsufficientFunds, "have 0.5 SOL, need 1.006 SOL"))
	assert.Contains(t, msg, "have 0.5 SOL, need 1.006 SOL")

	wrapped := fmt.Errorf("buy: %w", &domain.Error{Kind: domain.KindConfirmationTimeout, Signature: "5sig"})
	msg = UserMessage(wrapped)
	assert.Contains(t, msg, "not confirmed in time")
	assert.Contains(t, msg, explorerTxURL+"5sig")
}

func TestRestrict(t *testing.T) {
	f := newFixture(t)
	var reached int
	next := func(tele.Context) error { reached++; return nil }
	h := f.bot.restrict(next)

	require.NoError(t, h(newContext(1, "/start")))
	require.NoError(t, h(newContext(2, "/start")))
	require.NoError(t, h(&fakeContext{}))
	assert.Equal(t, 1, reached)

	open := newBot(Options{}).restrict(next)
	require.NoError(t, open(newContext(42, "/start")))
	assert.Equal(t, 2, reached)
}

func TestBuy_UsesUserSettings(t *testing.T) {
	f := newFixture(t)
	f.withWallet(1)
	f.trader.rec = &domain.TradeRecord{
		Direction: domain.DirectionBuy, TokenAddress: bonk, TokenSymbol: "BONK",
		NativeAmount: 0.5, TokenAmount: 12345.678, Signature: "sig1", SlippageBps: 250, PriorityFee: 0.002,
	}
	f.bot.sessions.SetSlippage(1, 250)
	f.bot.sessions.SetPriorityFee(1, 0.002)

	c := newContext(1, "/buy 0.5 "+bonk)
	require.NoError(t, f.bot.onBuy(c, 1))

	require.Len(t, f.trader.calls, 1)
	call := f.trader.calls[0]
	assert.Equal(t, tradeCall{domain.DirectionBuy, f.signer.PublicAddress(), 0.5, bonk, 250, 0.002}, call)
	assert.Contains(t, c.last(), "Bought 12345.678 BONK for 0.5 SOL")
	assert.Contains(t, c.last(), explorerTxURL+"sig1")
}

func TestBuy_Errors(t *testing.T) {
	f := newFixture(t)

	c := newContext(1, "/buy 0.5 "+bonk)
	require.NoError(t, f.bot.onBuy(c, 1))
	assert.Contains(t, c.last(), "No wallet yet")
	assert.Empty(t, f.trader.calls)

	f.withWallet(1)
	c = newContext(1, "/buy lots "+bonk)
	require.NoError(t, f.bot.onBuy(c, 1))
	assert.Contains(t, c.last(), "Usage")
	assert.Empty(t, f.trader.calls)

	f.trader.err = domain.NewError(domain.KindNoRouteFound, "no liquidity route")
	c = newContext(1, "/buy 0.5 "+bonk)
	require.NoError(t, f.bot.onBuy(c, 1))
	assert.Equal(t, UserMessage(f.trader.err), c.last())
}

func TestSell_ParsesPercent(t *testing.T) {
	f := newFixture(t)
	f.withWallet(1)
	f.trader.rec = &domain.TradeRecord{
		Direction: domain.DirectionSell, TokenAddress: bonk,
		NativeAmount: 2, TokenAmount: 5, RealizedPnL: -0.5, Signature: "sig2",
	}

	c := newContext(1, "/sell all "+bonk)
	require.NoError(t, f.bot.onSell(c, 1))
	require.Len(t, f.trader.calls, 1)
	assert.Equal(t, domain.DirectionSell, f.trader.calls[0].dir)
	assert.Equal(t, 100.0, f.trader.calls[0].size)
	assert.Contains(t, c.last(), "PnL: -0.500000 SOL")

	c = newContext(1, "/sell 25% "+bonk)
	require.NoError(t, f.bot.onSell(c, 1))
	assert.Equal(t, 25.0, f.trader.calls[1].size)
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"50", 50, true},
		{"50%", 50, true},
		{" ALL ", 100, true},
		{"max", 100, true},
		{"0.5", 0.5, true},
		{"half", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePercent(tt.in)
		assert.Equal(t, tt.ok, ok, "parsePercent(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parsePercent(%q)", tt.in)
	}
}

func TestSlippageAndFee(t *testing.T) {
	f := newFixture(t)

	c := newContext(1, "/slippage 1.5")
	require.NoError(t, f.bot.onSlippage(c, 1))
	assert.Equal(t, "Slippage set to 1.50%", c.last())
	assert.Equal(t, 150, f.bot.sessions.Settings(1).SlippageBps)

	c = newContext(1, "/slippage 0.1")
	require.NoError(t, f.bot.onSlippage(c, 1))
	assert.Contains(t, c.last(), "adjusted to 0.50%")
	assert.Equal(t, 50, f.bot.sessions.Settings(1).SlippageBps)

	c = newContext(1, "/slippage 90")
	require.NoError(t, f.bot.onSlippage(c, 1))
	assert.Equal(t, 5000, f.bot.sessions.Settings(1).SlippageBps)

	c = newContext(1, "/fee 0.002")
	require.NoError(t, f.bot.onFee(c, 1))
	assert.Equal(t, "Priority fee set to 0.002 SOL", c.last())
	assert.Equal(t, 0.002, f.bot.sessions.Settings(1).PriorityFeeSOL)

	c = newContext(1, "/fee 3")
	require.NoError(t, f.bot.onFee(c, 1))
	assert.Contains(t, c.last(), "adjusted to 0.1 SOL")

	// Other users keep the defaults.
	assert.Equal(t, Settings{SlippageBps: 100, PriorityFeeSOL: 0.001}, f.bot.sessions.Settings(2))
}

func TestWalletCommands(t *testing.T) {
	f := newFixture(t)

	c := newContext(1, "/wallet")
	require.NoError(t, f.bot.onWallet(c, 1))
	assert.Contains(t, c.last(), "No wallet yet")

	c = newContext(1, "/wallet new")
	require.NoError(t, f.bot.onWallet(c, 1))
	created, ok := f.bot.sessions.Wallet(1)
	require.True(t, ok)
	assert.Contains(t, c.last(), created.PublicAddress())

	c = newContext(1, "/wallet import "+f.signer.ExportBase58())
	require.NoError(t, f.bot.onWallet(c, 1))
	assert.True(t, c.deleted, "message carrying the secret is deleted")
	imported, _ := f.bot.sessions.Wallet(1)
	assert.Equal(t, f.signer.PublicAddress(), imported.PublicAddress())
	assert.NotContains(t, c.last(), f.signer.ExportBase58())

	c = newContext(1, "/wallet import notakey")
	require.NoError(t, f.bot.onWallet(c, 1))
	assert.Contains(t, c.last(), "not a valid Solana keypair")
}

func TestSessions_SharedWallet(t *testing.T) {
	shared, err := wallet.New()
	require.NoError(t, err)
	own, err := wallet.New()
	require.NoError(t, err)

	s := NewSessions(Settings{SlippageBps: 1, PriorityFeeSOL: 10}, shared, 7)
	assert.Equal(t, Settings{SlippageBps: 50, PriorityFeeSOL: 0.1}, s.Settings(7), "defaults are clamped")

	got, ok := s.Wallet(7)
	require.True(t, ok)
	assert.Equal(t, shared.PublicAddress(), got.PublicAddress())

	s.SetWallet(7, own)
	got, _ = s.Wallet(7)
	assert.Equal(t, own.PublicAddress(), got.PublicAddress())

	got, ok = s.Wallet(8)
	assert.False(t, ok, "users outside the operator set never get the shared wallet")
	assert.Nil(t, got)

	s.SetSlippage(8, 200)
	_, ok = s.Wallet(8)
	assert.False(t, ok, "a session without a wallet still has no shared fallback")
}

func TestSessions_NoOperatorsMeansNoSharedWallet(t *testing.T) {
	shared, err := wallet.New()
	require.NoError(t, err)

	s := NewSessions(Settings{}, shared)
	got, ok := s.Wallet(999999)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestBalance(t *testing.T) {
	f := newFixture(t)
	f.withWallet(1)
	f.balances.lamports = 1_500_000_000
	f.balances.token = &sol.TokenBalance{Mint: bonk, Amount: 12_345_000, Decimals: 5}

	c := newContext(1, "/balance")
	require.NoError(t, f.bot.onBalance(c, 1))
	assert.Contains(t, c.last(), "Balance: 1.5 SOL")

	c = newContext(1, "/balance "+bonk)
	require.NoError(t, f.bot.onBalance(c, 1))
	assert.Contains(t, c.last(), "Balance: 123.45 of")

	c = newContext(1, "/balance nope")
	require.NoError(t, f.bot.onBalance(c, 1))
	assert.Equal(t, UserMessage(&domain.Error{Kind: domain.KindInvalidAddress}), c.last())

	f.balances.err = errors.New("connection refused")
	c = newContext(1, "/balance")
	require.NoError(t, f.bot.onBalance(c, 1))
	assert.Equal(t, UserMessage(&domain.Error{Kind: domain.KindUpstreamUnavailable}), c.last())
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.withWallet(1)

	c := newContext(1, "/history")
	require.NoError(t, f.bot.onHistory(c, 1))
	assert.Equal(t, "No trades yet.", c.last())
	assert.Equal(t, defaultHistoryLimit, f.history.limit)

	f.history.records = []*domain.TradeRecord{
		{Timestamp: 1_700_000_100_000, Direction: domain.DirectionSell, TokenSymbol: "BONK", TokenAmount: 5, NativeAmount: 2, RealizedPnL: -0.5},
		{Timestamp: 1_700_000_000_000, Direction: domain.DirectionBuy, TokenSymbol: "BONK", TokenAmount: 10, NativeAmount: 5},
	}
	c = newContext(1, "/history 500")
	require.NoError(t, f.bot.onHistory(c, 1))
	assert.Equal(t, 100, f.history.limit, "limit capped at the history cap")

	lines := strings.Split(c.last(), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "SELL 5 BONK for 2 SOL (PnL -0.5000)")
	assert.Contains(t, lines[2], "BUY 10 BONK for 5 SOL")
}

func TestText_AnalyzesAddresses(t *testing.T) {
	f := newFixture(t)

	c := newContext(1, "  "+bonk+" ")
	require.NoError(t, f.bot.onText(c, 1))
	assert.Equal(t, []string{bonk}, f.analyzer.tokens)
	assert.Contains(t, c.last(), "Security: 80/100 SAFE")
	assert.Contains(t, c.last(), "Signal: GOOD_ENTRY")

	c = newContext(1, "hello there")
	require.NoError(t, f.bot.onText(c, 1))
	assert.Contains(t, c.last(), "Send a token address")
	assert.Len(t, f.analyzer.tokens, 1)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", formatAmount(1.5))
	assert.Equal(t, "2", formatAmount(2))
	assert.Equal(t, "0.000000001", formatAmount(1e-9))
	assert.Equal(t, "0", formatAmount(0))
}
