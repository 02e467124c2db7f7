package idhash

import (
	"testing"

	"solana-trade-bot/internal/domain"
)

func TestComputeTradeID(t *testing.T) {
	got := ComputeTradeID("Wallet111", "Sig222", domain.DirectionBuy, 1700000000000)

	if len(got) != 64 {
		t.Errorf("ComputeTradeID() length = %d, want 64", len(got))
	}

	// Same inputs, same output
	if again := ComputeTradeID("Wallet111", "Sig222", domain.DirectionBuy, 1700000000000); got != again {
		t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, again)
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("w", "s", domain.DirectionBuy, 1)

	variants := map[string]string{
		"wallet":    ComputeTradeID("w2", "s", domain.DirectionBuy, 1),
		"signature": ComputeTradeID("w", "s2", domain.DirectionBuy, 1),
		"direction": ComputeTradeID("w", "s", domain.DirectionSell, 1),
		"timestamp": ComputeTradeID("w", "s", domain.DirectionBuy, 2),
	}

	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}
