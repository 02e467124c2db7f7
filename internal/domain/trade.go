package domain

// Direction of a trade relative to the native asset.
type Direction string

// Trade directions.
const (
	DirectionBuy  Direction = "BUY"  // native in, token out
	DirectionSell Direction = "SELL" // token in, native out
)

// TradeRecord is an immutable history entry written after a successful swap.
type TradeRecord struct {
	TradeID      string // deterministic hash
	Wallet       string // owner public address
	Timestamp    int64  // unix ms
	Direction    Direction
	TokenAddress string
	TokenSymbol  string

	NativeAmount float64 // SOL spent (buy) or received (sell)
	TokenAmount  float64 // tokens received (buy) or sold (sell)
	USDValue     float64 // 0 when no price was available

	RealizedPnL    float64 // SOL; always 0 for buys
	RealizedPnLUSD float64

	Signature   string
	FeeTaken    float64 // platform fee in output-asset units
	SlippageBps int
	PriorityFee float64 // SOL
}

// Wallet is a public address bound to its owner's signer.
// The signer is opaque to everything except the swap executor.
type Wallet struct {
	Address string
	Signer  Signer
}

// Signer signs transaction messages for exactly one public key.
type Signer interface {
	PublicAddress() string
	Sign(message []byte) ([]byte, error)
}
