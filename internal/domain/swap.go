package domain

import "encoding/json"

// Native asset constants.
const (
	NativeMint      = "So11111111111111111111111111111111111111112" // wrapped SOL
	NativeDecimals  = 9
	LamportsPerSOL  = 1_000_000_000
	DefaultDecimals = NativeDecimals // fallback when a mint's decimals are unknown
	NativeFeeBuffer = 0.005          // SOL kept aside for base fees and rent
)

// PlatformFee is the aggregator-side commission attached to a quote.
type PlatformFee struct {
	Amount uint64 // atomic units of the output mint
	FeeBps int
}

// Quote is a single-use swap proposal returned by the aggregator.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64 // atomic
	OutAmount      uint64 // atomic
	OtherThreshold uint64 // minimum out after slippage, atomic
	PriceImpactPct float64
	SlippageBps    int
	PlatformFee    *PlatformFee
	RouteLabels    []string
	OutputDecimals int // 0 when the upstream did not say

	// Raw is the upstream quote document, passed back verbatim when building the swap.
	Raw json.RawMessage
}

// SwapResult is the terminal outcome of a confirmed swap.
type SwapResult struct {
	Success      bool
	Signature    string
	InputAmount  uint64 // atomic
	OutputAmount uint64 // atomic
}
