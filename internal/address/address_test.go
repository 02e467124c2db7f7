package address

import (
	"errors"
	"strings"
	"testing"

	"solana-trade-bot/internal/domain"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"wrapped sol mint", "So11111111111111111111111111111111111111112", true},
		{"system program", "11111111111111111111111111111111", true},
		{"token program", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", true},
		{"usdc mint", "EPjFWdd5AufqSSqeM2qFzdNthsbj8jR6ZXs3HNtGHWNM", true},
		{"empty", "", false},
		{"too short", "So1111111111111", false},
		{"too long", strings.Repeat("1", 45), false},
		{"invalid base58 char zero", "0o11111111111111111111111111111111111111112", false},
		{"invalid base58 char l", "Sl11111111111111111111111111111111111111112", false},
		{"ethereum address", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", false},
		{"decodes to wrong byte length", strings.Repeat("z", 44), false},
		{"whitespace", " So11111111111111111111111111111111111111112", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.candidate); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	pk, err := Parse("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pk.String() != "So11111111111111111111111111111111111111112" {
		t.Errorf("unexpected key %s", pk)
	}

	_, err = Parse("not-an-address")
	if !errors.Is(err, domain.ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestIsOnCurve(t *testing.T) {
	if IsOnCurve("bad") {
		t.Error("invalid address must not be on curve")
	}
	// The system program id (all zero bytes) decodes to a valid curve point encoding.
	if !IsOnCurve("11111111111111111111111111111111") {
		t.Error("expected system program id to be a valid point encoding")
	}
}
