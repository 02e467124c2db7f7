package solana

// TokenBalance is an owner's aggregate holding of one mint.
type TokenBalance struct {
	Mint     string
	Amount   uint64 // atomic
	Decimals int
	Accounts int // number of token accounts summed
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	// MaxRetries is forwarded to the node, which rebroadcasts on its own.
	MaxRetries *uint
}

// SignatureStatus is an entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64 // nil once rooted
	Err                interface{}
	ConfirmationStatus string
}

// Reached reports whether the status satisfies the requested commitment.
func (s *SignatureStatus) Reached(commitment string) bool {
	switch commitment {
	case CommitmentFinalized:
		return s.ConfirmationStatus == CommitmentFinalized
	case CommitmentConfirmed:
		return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
	default:
		return s.ConfirmationStatus != ""
	}
}

// SignatureNotification is pushed once a subscribed signature reaches the subscription commitment.
type SignatureNotification struct {
	Signature string
	Slot      uint64
	Err       interface{}
}
