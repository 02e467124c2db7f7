// Package wallet holds local signing keys for trading wallets.
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"

	"solana-trade-bot/internal/domain"
)

// ErrInvalidKey is returned when key material is not a usable ed25519 keypair.
var ErrInvalidKey = errors.New("invalid private key")

// Signer signs Solana transaction messages with a local keypair.
// The private key never leaves this type: it is not logged, printed or marshaled.
type Signer struct {
	key    solana.PrivateKey
	public solana.PublicKey
}

// Compile-time interface check.
var _ domain.Signer = (*Signer)(nil)

// FromBase58 imports a 64-byte keypair encoded as base58, as exported by common wallets.
func FromBase58(secret string) (*Signer, error) {
	key, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return FromBytes(key)
}

// FromBytes validates a 64-byte keypair (seed followed by public key).
func FromBytes(raw []byte) (*Signer, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(raw))
	}

	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw[ed25519.SeedSize:]); err != nil {
		return nil, fmt.Errorf("%w: public key not on curve", ErrInvalidKey)
	}

	key := make(solana.PrivateKey, len(raw))
	copy(key, raw)
	return &Signer{key: key, public: key.PublicKey()}, nil
}

// New generates a fresh random keypair.
func New() (*Signer, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Signer{key: key, public: key.PublicKey()}, nil
}

// PublicAddress returns the base58 wallet address.
func (s *Signer) PublicAddress() string {
	return s.public.String()
}

// PublicKey returns the wallet public key.
func (s *Signer) PublicKey() solana.PublicKey {
	return s.public
}

// Sign signs message and returns the 64-byte signature.
func (s *Signer) Sign(message []byte) ([]byte, error) {
	if len(s.key) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKey
	}
	sig, err := s.key.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return sig[:], nil
}

// ExportBase58 returns the keypair as base58. Only for showing a freshly
// generated key to its owner once.
func (s *Signer) ExportBase58() string {
	return s.key.String()
}

// String hides key material from fmt and loggers.
func (s *Signer) String() string {
	return "wallet(" + s.public.String() + ")"
}

// Wallet returns the domain wallet backed by this signer.
func (s *Signer) Wallet() domain.Wallet {
	return domain.Wallet{Address: s.PublicAddress(), Signer: s}
}
