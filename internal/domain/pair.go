package domain

// ChainSolana is the chain identifier used by market-data aggregators.
const ChainSolana = "solana"

// TokenRef identifies one side of a trading pair.
type TokenRef struct {
	Address string
	Name    string
	Symbol  string
}

// Windowed holds a metric over the aggregator's standard windows.
type Windowed struct {
	M5  float64
	H1  float64
	H6  float64
	H24 float64
}

// TradingPair is a snapshot of one liquidity pool for a token.
type TradingPair struct {
	PairAddress string
	DexID       string
	ChainID     string
	URL         string
	BaseToken   TokenRef
	QuoteToken  TokenRef

	PriceUSD     float64 // base token price in USD
	PriceNative  float64 // base token price in quote token units
	LiquidityUSD float64
	Volume       Windowed // USD
	PriceChange  Windowed // percent
	BuysH24      int
	SellsH24     int
	MarketCap    float64
	FDV          float64

	PairCreatedAt int64 // unix ms, 0 if unknown
}

// AgeDays returns the pool age in days relative to nowMs.
// A pair without a creation time is treated as brand new.
func (p *TradingPair) AgeDays(nowMs int64) float64 {
	if p.PairCreatedAt <= 0 || nowMs <= p.PairCreatedAt {
		return 0
	}
	return float64(nowMs-p.PairCreatedAt) / float64(24*60*60*1000)
}
