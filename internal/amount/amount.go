// Package amount converts between UI amounts and atomic integer amounts.
// All arithmetic goes through decimal to keep floor semantics exact.
package amount

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ToAtomic converts a UI amount into atomic units, truncating any excess precision.
func ToAtomic(ui float64, decimals int) (uint64, error) {
	if math.IsNaN(ui) || math.IsInf(ui, 0) {
		return 0, fmt.Errorf("amount %v is not finite", ui)
	}
	if ui < 0 {
		return 0, fmt.Errorf("amount %v is negative", ui)
	}
	d := decimal.NewFromFloat(ui).Shift(int32(decimals)).Floor()
	if !d.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %v overflows atomic range", ui)
	}
	return d.BigInt().Uint64(), nil
}

// FromAtomic converts atomic units into a UI amount.
func FromAtomic(atomic uint64, decimals int) float64 {
	f, _ := decimal.NewFromUint64(atomic).Shift(-int32(decimals)).Float64()
	return f
}

// Lamports converts SOL into lamports.
func Lamports(sol float64) (uint64, error) {
	return ToAtomic(sol, 9)
}

// SOL converts lamports into SOL.
func SOL(lamports uint64) float64 {
	return FromAtomic(lamports, 9)
}

// PercentOf returns floor(atomic * percent / 100).
func PercentOf(atomic uint64, percent float64) uint64 {
	d := decimal.NewFromUint64(atomic).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Floor()
	if d.Sign() <= 0 {
		return 0
	}
	if !d.BigInt().IsUint64() {
		return atomic
	}
	return d.BigInt().Uint64()
}

// ParseAtomic parses a base-10 atomic amount as returned by RPC and aggregator APIs.
func ParseAtomic(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse atomic amount %q: %w", s, err)
	}
	if d.Sign() < 0 || !d.IsInteger() || !d.BigInt().IsUint64() {
		return 0, fmt.Errorf("atomic amount %q out of range", s)
	}
	return d.BigInt().Uint64(), nil
}
