// Package address validates user-supplied Solana account addresses.
package address

import (
	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"solana-trade-bot/internal/domain"
)

// Base58 length bounds of a 32-byte public key.
const (
	MinLength = 32
	MaxLength = 44
)

// IsValid reports whether candidate is a well-formed public key:
// its length lies in [MinLength, MaxLength] and it decodes to exactly 32 bytes.
func IsValid(candidate string) bool {
	if len(candidate) < MinLength || len(candidate) > MaxLength {
		return false
	}
	decoded, err := base58.Decode(candidate)
	if err != nil {
		return false
	}
	return len(decoded) == solana.PublicKeyLength
}

// Parse validates candidate and returns it as a public key.
func Parse(candidate string) (solana.PublicKey, error) {
	if !IsValid(candidate) {
		return solana.PublicKey{}, domain.NewError(domain.KindInvalidAddress, "%q is not a valid Solana address", candidate)
	}
	return solana.PublicKeyFromBase58(candidate)
}

// IsOnCurve reports whether candidate is a valid address that lies on the ed25519 curve,
// i.e. it can belong to a keypair rather than a program-derived address.
func IsOnCurve(candidate string) bool {
	if !IsValid(candidate) {
		return false
	}
	decoded, _ := base58.Decode(candidate)
	_, err := new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
