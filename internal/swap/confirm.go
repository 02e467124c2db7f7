package swap

import (
	"context"
	"errors"
	"time"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/observability"
	sol "solana-trade-bot/internal/solana"
)

// confirm waits until signature reaches confirmed commitment, fails on chain, or times out.
// A WS notification and status polling race; whichever reports first wins.
func (e *Executor) confirm(ctx context.Context, signature string) error {
	start := time.Now()
	err := e.awaitConfirmation(ctx, signature)

	result := "confirmed"
	switch domain.KindOf(err) {
	case domain.KindOnChainFailure:
		result = "failed"
	case domain.KindConfirmationTimeout:
		result = "timeout"
	}
	observability.RecordConfirmation(result, time.Since(start).Seconds())
	return err
}

func (e *Executor) awaitConfirmation(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	var notifications <-chan sol.SignatureNotification
	if e.ws != nil {
		sub, err := e.ws.SubscribeSignature(ctx, signature)
		if err != nil {
			e.logger.Warn("signature subscription failed, polling only", "signature", signature, "error", err)
		} else {
			defer sub.Unsubscribe()
			notifications = sub.C
		}
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		err := e.pollStatus(ctx, signature)
		if !errors.Is(err, errStatusPending) {
			return err
		}

		select {
		case n, ok := <-notifications:
			if !ok {
				// Subscription dropped; keep polling.
				notifications = nil
				continue
			}
			if n.Err != nil {
				return onChainFailure(signature, n.Err)
			}
			return nil
		case <-ticker.C:
		case <-ctx.Done():
			return &domain.Error{
				Kind:      domain.KindConfirmationTimeout,
				Message:   "transaction not confirmed in time; check an explorer before retrying",
				Signature: signature,
				Err:       ctx.Err(),
			}
		}
	}
}

// pollStatus returns nil when confirmed, an OnChainFailure when the transaction
// landed with an error, and errStatusPending otherwise.
func (e *Executor) pollStatus(ctx context.Context, signature string) error {
	statuses, err := e.rpc.GetSignatureStatuses(ctx, signature)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Debug("status poll failed", "signature", signature, "error", err)
		}
		return errStatusPending
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return errStatusPending
	}

	st := statuses[0]
	if st.Err != nil {
		return onChainFailure(signature, st.Err)
	}
	if st.Reached(sol.CommitmentConfirmed) {
		return nil
	}
	return errStatusPending
}
