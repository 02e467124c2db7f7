package solana

import "context"

// Commitment levels accepted by the RPC node.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// RPCClient defines the Solana JSON-RPC calls used by the trading core.
type RPCClient interface {
	// GetBalance returns the native balance of owner in lamports.
	GetBalance(ctx context.Context, owner string) (uint64, error)

	// GetTokenBalance sums owner's token accounts for mint.
	// Returns a zero balance (not an error) when owner holds no account for mint.
	GetTokenBalance(ctx context.Context, owner, mint string) (*TokenBalance, error)

	// GetMintDecimals returns the decimals configured on a mint.
	GetMintDecimals(ctx context.Context, mint string) (int, error)

	// SendTransaction submits a signed, base64-encoded transaction and returns its signature.
	SendTransaction(ctx context.Context, txBase64 string, opts SendOptions) (string, error)

	// GetSignatureStatuses returns one entry per signature; nil entries are unknown to the node.
	GetSignatureStatuses(ctx context.Context, signatures ...string) ([]*SignatureStatus, error)
}
