package signal

import "solana-trade-bot/internal/domain"

// Score tiers.
const (
	HighTierScore = 70
	MidTierScore  = 50
)

func highTier(in Input) bool { return in.Score >= HighTierScore }
func midTier(in Input) bool  { return in.Score >= MidTierScore && in.Score < HighTierScore }
func lowTier(in Input) bool  { return in.Score < MidTierScore }

// DefaultRules is the entry decision table, evaluated top to bottom.
// Each tier ends with a catch-all so every input matches exactly one tier rule.
var DefaultRules = []Rule{
	// Score >= 70
	{
		Name: "high/dip-in-uptrend",
		When: func(in Input) bool { return highTier(in) && in.Change1h < -5 && in.Change24h > 0 },
		Then: Outcome{domain.ActionBuyNow, "Quality token dipping inside a 24h uptrend", 25, 10},
	},
	{
		Name: "high/overextended-1h",
		When: func(in Input) bool { return highTier(in) && in.Change1h > 10 },
		Then: Outcome{domain.ActionWait, "Quality token but pumped in the last hour; wait for a pullback", 20, 10},
	},
	{
		Name: "high/overextended-24h",
		When: func(in Input) bool { return highTier(in) && in.Change24h > 50 },
		Then: Outcome{domain.ActionCaution, "Quality token after a large 24h run", 15, 8},
	},
	{
		Name: "high/default",
		When: highTier,
		Then: Outcome{domain.ActionGoodEntry, "Quality token with stable price action", 30, 12},
	},

	// 50 <= score < 70
	{
		Name: "mid/falling-knife",
		When: func(in Input) bool { return midTier(in) && in.Change1h < -10 },
		Then: Outcome{domain.ActionWait, "Sharp 1h drop; wait for the price to settle", 20, 10},
	},
	{
		Name: "mid/parabolic",
		When: func(in Input) bool { return midTier(in) && in.Change24h > 100 },
		Then: Outcome{domain.ActionCaution, "Price more than doubled in 24h", 15, 8},
	},
	{
		Name: "mid/dip-in-uptrend",
		When: func(in Input) bool { return midTier(in) && in.Change1h < -3 && in.Change24h > 0 },
		Then: Outcome{domain.ActionGoodEntry, "Moderate token dipping inside a 24h uptrend", 20, 10},
	},
	{
		Name: "mid/default",
		When: midTier,
		Then: Outcome{domain.ActionCaution, "Moderate risk; size the position small", 15, 8},
	},

	// Score < 50
	{
		Name: "low/collapsing",
		When: func(in Input) bool { return lowTier(in) && in.Change24h < -30 },
		Then: Outcome{domain.ActionAvoid, "High risk token in a steep decline; no safe exit plan", 0, 0},
	},
	{
		Name: "low/pumping",
		When: func(in Input) bool { return lowTier(in) && in.Change1h > 20 },
		Then: Outcome{domain.ActionHighRisk, "High risk token pumping hard; gamble only", 30, 15},
	},
	{
		Name: "low/default",
		When: lowTier,
		Then: Outcome{domain.ActionHighRisk, "High risk token", 20, 10},
	},
}
