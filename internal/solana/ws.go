package solana

import "context"

// WSClient defines the Solana WebSocket subscriptions used for confirmations.
type WSClient interface {
	// SubscribeSignature subscribes to a single signature at confirmed commitment.
	// The subscription yields at most one notification and then closes its channel.
	SubscribeSignature(ctx context.Context, signature string) (*SignatureSubscription, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureSubscription is a live signatureSubscribe.
type SignatureSubscription struct {
	C           <-chan SignatureNotification
	unsubscribe func()
}

// Unsubscribe releases the subscription. Safe to call more than once.
func (s *SignatureSubscription) Unsubscribe() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// NewSignatureSubscription wraps a notification channel and its release function.
func NewSignatureSubscription(ch <-chan SignatureNotification, unsubscribe func()) *SignatureSubscription {
	return &SignatureSubscription{C: ch, unsubscribe: unsubscribe}
}
