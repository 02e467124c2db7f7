// Package storage defines persistence for trade history.
package storage

import (
	"context"

	"solana-trade-bot/internal/domain"
)

// DefaultHistoryCap is how many records are retained per wallet.
const DefaultHistoryCap = 100

// TradeRecordStore is an append-only, most-recent-first trade history.
// Only the newest cap records of each wallet are visible.
type TradeRecordStore interface {
	// Append adds a record. Returns ErrDuplicateKey if trade_id exists
	// and ErrInvalidInput if the record lacks an ID or wallet.
	Append(ctx context.Context, r *domain.TradeRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// Recent returns up to limit records of wallet, newest first.
	// limit <= 0 or above the cap returns the whole retained history.
	Recent(ctx context.Context, wallet string, limit int) ([]*domain.TradeRecord, error)

	// BuysForToken returns wallet's retained buy records of token, newest first.
	BuysForToken(ctx context.Context, wallet, token string) ([]*domain.TradeRecord, error)
}

// ValidateRecord checks the fields every store requires.
func ValidateRecord(r *domain.TradeRecord) error {
	if r == nil || r.TradeID == "" || r.Wallet == "" {
		return ErrInvalidInput
	}
	if r.Direction != domain.DirectionBuy && r.Direction != domain.DirectionSell {
		return ErrInvalidInput
	}
	return nil
}

// EffectiveLimit clamps a requested limit into [1, historyCap].
func EffectiveLimit(limit, historyCap int) int {
	if limit <= 0 || limit > historyCap {
		return historyCap
	}
	return limit
}
