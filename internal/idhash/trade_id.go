// Package idhash derives deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-trade-bot/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(wallet|signature|direction|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(wallet, signature string, direction domain.Direction, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", wallet, signature, string(direction), timestampMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
