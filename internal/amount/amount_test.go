package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAtomic(t *testing.T) {
	tests := []struct {
		name     string
		ui       float64
		decimals int
		want     uint64
	}{
		{"one sol", 1.0, 9, 1_000_000_000},
		{"fractional sol", 0.123456789, 9, 123_456_789},
		{"truncates excess precision", 1.2345678, 6, 1_234_567},
		{"zero", 0, 6, 0},
		{"no decimals", 42, 0, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToAtomic(tt.ui, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToAtomic_RejectsNegative(t *testing.T) {
	_, err := ToAtomic(-1, 9)
	assert.Error(t, err)
}

func TestFromAtomic(t *testing.T) {
	assert.InDelta(t, 5.0, FromAtomic(5_000_000, 6), 1e-12)
	assert.InDelta(t, 0.5, SOL(500_000_000), 1e-12)
}

func TestPercentOf(t *testing.T) {
	// 50% of 10 tokens with 6 decimals
	assert.Equal(t, uint64(5_000_000), PercentOf(10_000_000, 50))
	assert.Equal(t, uint64(10_000_000), PercentOf(10_000_000, 100))
	assert.Equal(t, uint64(0), PercentOf(1, 50))
	assert.Equal(t, uint64(3), PercentOf(7, 50))
}

func TestParseAtomic(t *testing.T) {
	got, err := ParseAtomic("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), got)

	_, err = ParseAtomic("1.5")
	assert.Error(t, err)

	_, err = ParseAtomic("-3")
	assert.Error(t, err)

	_, err = ParseAtomic("abc")
	assert.Error(t, err)
}
