// Package analysis combines market data, security scoring and entry signals
// into one report for a token address.
package analysis

import (
	"context"
	"log/slog"

	"solana-trade-bot/internal/address"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/security"
	"solana-trade-bot/internal/signal"
)

// MarketData fetches the primary pool for a token. nil means unavailable.
type MarketData interface {
	FetchTradingPair(ctx context.Context, token string) *domain.TradingPair
}

// Report is the analysis of one token.
// Pair is nil when no market data was available; the score then stays at baseline.
type Report struct {
	Token      string                    `json:"token"`
	Pair       *domain.TradingPair       `json:"pair,omitempty"`
	Assessment domain.SecurityAssessment `json:"assessment"`
	Signal     domain.TradingSignal      `json:"signal"`
}

// HasMarketData reports whether a pool was found.
func (r *Report) HasMarketData() bool {
	return r.Pair != nil
}

// Analyzer produces Reports.
type Analyzer struct {
	market  MarketData
	scorer  *security.Scorer
	signals *signal.Generator
	logger  *slog.Logger
}

// Option configures Analyzer.
type Option func(*Analyzer)

// WithScorer overrides the default scorer.
func WithScorer(s *security.Scorer) Option {
	return func(a *Analyzer) {
		a.scorer = s
	}
}

// WithGenerator overrides the default signal rules.
func WithGenerator(g *signal.Generator) Option {
	return func(a *Analyzer) {
		a.signals = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates an Analyzer over market.
func New(market MarketData, opts ...Option) *Analyzer {
	a := &Analyzer{
		market:  market,
		scorer:  security.NewScorer(),
		signals: signal.NewGenerator(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "analysis")
	return a
}

// Analyze scores token and derives an entry signal.
// Only an invalid address is an error; missing market data yields a baseline report.
func (a *Analyzer) Analyze(ctx context.Context, token string) (*Report, error) {
	if !address.IsValid(token) {
		return nil, domain.NewError(domain.KindInvalidAddress, "invalid token address %q", token)
	}

	pair := a.market.FetchTradingPair(ctx, token)
	assessment := a.scorer.Score(pair)
	sig := a.signals.Signal(pair, assessment.Score)

	a.logger.Debug("token analyzed",
		"token", token,
		"has_pair", pair != nil,
		"score", assessment.Score,
		"action", sig.Action,
	)
	return &Report{
		Token:      token,
		Pair:       pair,
		Assessment: assessment,
		Signal:     sig,
	}, nil
}
