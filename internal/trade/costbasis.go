package trade

import (
	"github.com/shopspring/decimal"

	"solana-trade-bot/internal/domain"
)

// AverageCost returns total SOL spent ÷ total tokens bought over buys.
// ok is false when nothing was bought.
func AverageCost(buys []*domain.TradeRecord) (perToken float64, ok bool) {
	spent := decimal.Zero
	bought := decimal.Zero
	for _, b := range buys {
		if b == nil || b.Direction != domain.DirectionBuy {
			continue
		}
		spent = spent.Add(decimal.NewFromFloat(b.NativeAmount))
		bought = bought.Add(decimal.NewFromFloat(b.TokenAmount))
	}
	if bought.Sign() <= 0 {
		return 0, false
	}
	avg, _ := spent.Div(bought).Float64()
	return avg, true
}

// RealizedPnL returns proceeds − sold × costPerToken.
func RealizedPnL(proceeds, sold, costPerToken float64) float64 {
	cost := decimal.NewFromFloat(sold).Mul(decimal.NewFromFloat(costPerToken))
	pnl, _ := decimal.NewFromFloat(proceeds).Sub(cost).Float64()
	return pnl
}
