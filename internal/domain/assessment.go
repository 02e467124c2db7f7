package domain

// Rating is a qualitative risk bucket derived from a security score.
type Rating string

// Rating values, best to worst.
const (
	RatingSafe     Rating = "SAFE"
	RatingModerate Rating = "MODERATE"
	RatingRisky    Rating = "RISKY"
	RatingDanger   Rating = "DANGER"
)

// SecurityAssessment is the result of scoring a trading pair.
type SecurityAssessment struct {
	Score     int // clamped to [0,100]
	Warnings  []string
	Positives []string
	Rating    Rating
}

// EntryAction is the recommendation carried by a TradingSignal.
type EntryAction string

// Entry actions.
const (
	ActionBuyNow    EntryAction = "BUY_NOW"
	ActionGoodEntry EntryAction = "GOOD_ENTRY"
	ActionWait      EntryAction = "WAIT"
	ActionCaution   EntryAction = "CAUTION"
	ActionAvoid     EntryAction = "AVOID"
	ActionHighRisk  EntryAction = "HIGH_RISK"
)

// PriceTarget is an exit level expressed both as a percent move and an absolute price.
// A zero Percent means no target is offered.
type PriceTarget struct {
	Percent float64
	Price   float64
}

// TradingSignal is an entry recommendation with exit targets.
type TradingSignal struct {
	Action     EntryAction
	Reason     string
	Rule       string // name of the rule that produced the signal
	TakeProfit PriceTarget
	StopLoss   PriceTarget
}
