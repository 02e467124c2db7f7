// Package signal derives entry recommendations and exit targets from market data.
package signal

import (
	"solana-trade-bot/internal/domain"
)

// Input is what a rule sees.
type Input struct {
	Score     int
	Change1h  float64
	Change24h float64
}

// Outcome is what a matching rule produces.
type Outcome struct {
	Action            domain.EntryAction
	Reason            string
	TakeProfitPercent float64
	StopLossPercent   float64
}

// Rule is one row of the decision table.
type Rule struct {
	Name string
	When func(Input) bool
	Then Outcome
}

// Generator evaluates an ordered rule table; the first matching rule wins.
type Generator struct {
	rules []Rule
}

// NewGenerator creates a generator over rules, or DefaultRules when none are given.
func NewGenerator(rules ...Rule) *Generator {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Generator{rules: rules}
}

// Signal returns the recommendation for pair at score.
// A nil pair is evaluated with zero price changes and yields zero target prices.
func (g *Generator) Signal(pair *domain.TradingPair, score int) domain.TradingSignal {
	in := Input{Score: score}
	var price float64
	if pair != nil {
		in.Change1h = pair.PriceChange.H1
		in.Change24h = pair.PriceChange.H24
		price = pair.PriceUSD
	}

	rule, ok := g.match(in)
	if !ok {
		return domain.TradingSignal{Action: domain.ActionAvoid, Reason: "No rule matched"}
	}

	return domain.TradingSignal{
		Action:     rule.Then.Action,
		Reason:     rule.Then.Reason,
		Rule:       rule.Name,
		TakeProfit: target(price, rule.Then.TakeProfitPercent),
		StopLoss:   target(price, -rule.Then.StopLossPercent),
	}
}

func (g *Generator) match(in Input) (Rule, bool) {
	for _, r := range g.rules {
		if r.When(in) {
			return r, true
		}
	}
	return Rule{}, false
}

// target moves price by pct percent. Zero pct means no target.
// Percent is reported unsigned.
func target(price, pct float64) domain.PriceTarget {
	if pct == 0 {
		return domain.PriceTarget{}
	}
	abs := pct
	if abs < 0 {
		abs = -abs
	}
	return domain.PriceTarget{Percent: abs, Price: price * (1 + pct/100)}
}
