// Package security scores trading pairs for rug and liquidity risk.
package security

import (
	"fmt"
	"time"

	"solana-trade-bot/internal/domain"
)

// Scoring constants.
const (
	BaselineScore = 50
	MinScore      = 0
	MaxScore      = 100
)

// Scorer computes SecurityAssessments. It holds no state besides its clock,
// so Score is a pure function of the pair and the current time.
type Scorer struct {
	now func() time.Time
}

// Option configures Scorer.
type Option func(*Scorer)

// WithClock sets the time source used for pool age.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// NewScorer creates a scorer using the wall clock.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// assessment accumulates score adjustments and notes.
type assessment struct {
	score     int
	warnings  []string
	positives []string
}

func (a *assessment) warn(delta int, msg string) {
	a.score += delta
	a.warnings = append(a.warnings, msg)
}

func (a *assessment) credit(delta int, msg string) {
	a.score += delta
	a.positives = append(a.positives, msg)
}

// Score rates pair. Every check runs; several warnings may co-occur.
func (s *Scorer) Score(pair *domain.TradingPair) domain.SecurityAssessment {
	a := &assessment{score: BaselineScore}
	if pair == nil {
		return domain.SecurityAssessment{Score: BaselineScore, Rating: RatingFor(BaselineScore)}
	}

	checkLiquidity(a, pair.LiquidityUSD)
	checkVolume(a, pair.Volume.H24)
	checkPriceChange(a, pair.PriceChange.H24)
	checkAge(a, pair.AgeDays(s.now().UnixMilli()))
	checkTurnover(a, pair.Volume.H24, pair.LiquidityUSD)

	score := clamp(a.score)
	return domain.SecurityAssessment{
		Score:     score,
		Warnings:  a.warnings,
		Positives: a.positives,
		Rating:    RatingFor(score),
	}
}

func checkLiquidity(a *assessment, usd float64) {
	switch {
	case usd > 100_000:
		a.credit(20, fmt.Sprintf("Strong liquidity ($%.0f)", usd))
	case usd > 50_000:
		a.credit(10, fmt.Sprintf("Good liquidity ($%.0f)", usd))
	case usd < 10_000:
		a.warn(-20, fmt.Sprintf("Low liquidity ($%.0f)", usd))
	}
}

func checkVolume(a *assessment, usd float64) {
	switch {
	case usd > 100_000:
		a.credit(10, fmt.Sprintf("High 24h volume ($%.0f)", usd))
	case usd < 5_000:
		a.warn(-10, fmt.Sprintf("Low 24h volume ($%.0f)", usd))
	}
}

func checkPriceChange(a *assessment, pct float64) {
	switch {
	case pct < -50:
		a.warn(-25, fmt.Sprintf("RUG ALERT: major dump detected (%.1f%% in 24h)", pct))
	case pct < -30:
		a.warn(-15, fmt.Sprintf("Significant price drop (%.1f%% in 24h)", pct))
	case pct > 20:
		a.credit(0, fmt.Sprintf("Strong momentum (+%.1f%% in 24h)", pct))
	}
}

func checkAge(a *assessment, days float64) {
	switch {
	case days < 1:
		a.warn(-15, "New pool (<24h)")
	case days > 7:
		a.credit(10, fmt.Sprintf("Established pool (%.0f days)", days))
	}
}

// checkTurnover notes the volume/liquidity ratio. It never changes the score.
func checkTurnover(a *assessment, volume, liquidity float64) {
	if liquidity <= 0 {
		return
	}
	ratio := volume / liquidity
	switch {
	case ratio > 2:
		a.credit(0, fmt.Sprintf("Active trading (volume %.1fx liquidity)", ratio))
	case ratio < 0.1:
		a.warn(0, fmt.Sprintf("Thin trading (volume %.2fx liquidity)", ratio))
	}
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// RatingFor maps a score to its rating. Lower bounds are inclusive.
func RatingFor(score int) domain.Rating {
	switch {
	case score >= 80:
		return domain.RatingSafe
	case score >= 60:
		return domain.RatingModerate
	case score >= 40:
		return domain.RatingRisky
	default:
		return domain.RatingDanger
	}
}
