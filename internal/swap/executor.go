// Package swap executes aggregator quotes on chain: build, sign locally, submit, confirm.
package swap

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"

	"solana-trade-bot/internal/address"
	"solana-trade-bot/internal/amount"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/jupiter"
	sol "solana-trade-bot/internal/solana"
)

// Priority fee bounds in SOL.
const (
	MinPriorityFee = 0.0001
	MaxPriorityFee = 0.1
)

// Confirmation defaults.
const (
	DefaultConfirmTimeout = 75 * time.Second
	DefaultPollInterval   = 2 * time.Second
)

// nodeMaxRetries is forwarded to sendTransaction so the node keeps rebroadcasting.
const nodeMaxRetries uint = 3

// SwapBuilder builds unsigned swap transactions for a quote.
type SwapBuilder interface {
	BuildSwap(ctx context.Context, req jupiter.SwapRequest) (string, error)
}

// Compile-time interface check.
var _ SwapBuilder = (*jupiter.Client)(nil)

// Executor turns a quote into a confirmed transaction.
type Executor struct {
	builder        SwapBuilder
	rpc            sol.RPCClient
	ws             sol.WSClient
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *slog.Logger
}

// Option configures Executor.
type Option func(*Executor)

// WithWSClient enables push confirmation over signatureSubscribe.
func WithWSClient(ws sol.WSClient) Option {
	return func(e *Executor) {
		e.ws = ws
	}
}

// WithConfirmTimeout bounds the confirmation wait.
func WithConfirmTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.confirmTimeout = d
	}
}

// WithPollInterval sets the getSignatureStatuses polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		e.pollInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// NewExecutor creates an executor using builder for transactions and rpc for the chain.
func NewExecutor(builder SwapBuilder, rpc sol.RPCClient, opts ...Option) *Executor {
	e := &Executor{
		builder:        builder,
		rpc:            rpc,
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "swap")
	return e
}

// ClampPriorityFee corrects fee (SOL) into [MinPriorityFee, MaxPriorityFee].
func ClampPriorityFee(fee float64) float64 {
	if math.IsNaN(fee) || fee < MinPriorityFee {
		return MinPriorityFee
	}
	if fee > MaxPriorityFee {
		return MaxPriorityFee
	}
	return fee
}

// Execute broadcasts exactly one signed transaction for quote and waits for it to confirm.
// A quote is single-use: call Execute again only with a fresh quote.
//
// Errors after broadcast (ConfirmationTimeout, OnChainFailure) carry the signature.
func (e *Executor) Execute(
	ctx context.Context,
	quote *domain.Quote,
	signer domain.Signer,
	priorityFeeSOL float64,
	platformFeeBps int,
	feeRecipient string,
) (*domain.SwapResult, error) {
	if signer == nil || !address.IsOnCurve(signer.PublicAddress()) {
		return nil, domain.NewError(domain.KindInvalidSigner, "signer is missing or has no usable public key")
	}
	if quote == nil {
		return nil, domain.NewError(domain.KindSwapBuildFailed, "no quote to execute")
	}
	owner := signer.PublicAddress()

	feeLamports, err := amount.Lamports(ClampPriorityFee(priorityFeeSOL))
	if err != nil {
		return nil, domain.WrapError(domain.KindInvalidAmount, err, "priority fee")
	}

	req := jupiter.SwapRequest{
		Quote:                     quote,
		UserPublicKey:             owner,
		PrioritizationFeeLamports: feeLamports,
	}
	if platformFeeBps > 0 && address.IsValid(feeRecipient) {
		req.FeeAccount = feeRecipient
	}

	txBase64, err := e.builder.BuildSwap(ctx, req)
	if err != nil {
		return nil, err
	}

	signed, localSig, err := signTransaction(txBase64, signer)
	if err != nil {
		return nil, err
	}

	maxRetries := nodeMaxRetries
	signature, err := e.rpc.SendTransaction(ctx, signed, sol.SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: sol.CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		return nil, domain.WrapError(domain.KindSubmissionFailed, err, "transaction rejected before broadcast")
	}
	if signature == "" {
		signature = localSig
	}

	e.logger.Info("transaction submitted",
		"owner", owner,
		"signature", signature,
		"input_mint", quote.InputMint,
		"output_mint", quote.OutputMint,
		"in_amount", quote.InAmount,
		"priority_fee_lamports", feeLamports,
	)

	if err := e.confirm(ctx, signature); err != nil {
		return nil, err
	}

	e.logger.Info("transaction confirmed", "owner", owner, "signature", signature)
	return &domain.SwapResult{
		Success:      true,
		Signature:    signature,
		InputAmount:  quote.InAmount,
		OutputAmount: quote.OutAmount,
	}, nil
}

// signTransaction decodes the aggregator transaction, places the signer's signature
// in its slot and returns the re-encoded transaction with its base58 signature.
func signTransaction(txBase64 string, signer domain.Signer) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", "", domain.WrapError(domain.KindSwapBuildFailed, err, "decode swap transaction")
	}
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return "", "", domain.WrapError(domain.KindSwapBuildFailed, err, "parse swap transaction")
	}

	owner, err := solana.PublicKeyFromBase58(signer.PublicAddress())
	if err != nil {
		return "", "", domain.WrapError(domain.KindInvalidSigner, err, "signer public key")
	}

	idx, err := signerIndex(tx, owner)
	if err != nil {
		return "", "", err
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return "", "", domain.WrapError(domain.KindSwapBuildFailed, err, "serialize message")
	}
	sigBytes, err := signer.Sign(message)
	if err != nil {
		return "", "", domain.WrapError(domain.KindInvalidSigner, err, "sign transaction")
	}
	if len(sigBytes) != len(solana.Signature{}) {
		return "", "", domain.NewError(domain.KindInvalidSigner, "signer produced %d-byte signature", len(sigBytes))
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	copy(tx.Signatures[idx][:], sigBytes)

	out, err := tx.MarshalBinary()
	if err != nil {
		return "", "", domain.WrapError(domain.KindSwapBuildFailed, err, "serialize signed transaction")
	}
	return base64.StdEncoding.EncodeToString(out), tx.Signatures[idx].String(), nil
}

// signerIndex returns owner's position among the message's required signers.
func signerIndex(tx *solana.Transaction, owner solana.PublicKey) (int, error) {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return 0, domain.NewError(domain.KindSwapBuildFailed, "malformed message header")
	}
	for i := 0; i < required; i++ {
		if tx.Message.AccountKeys[i].Equals(owner) {
			return i, nil
		}
	}
	return 0, domain.NewError(domain.KindInvalidSigner, "wallet %s is not a signer of the swap transaction", owner)
}

// errStatusPending marks a poll that has nothing to report yet.
var errStatusPending = errors.New("status pending")

func onChainFailure(signature string, payload interface{}) error {
	return &domain.Error{
		Kind:      domain.KindOnChainFailure,
		Message:   fmt.Sprintf("transaction failed on chain: %v", payload),
		Signature: signature,
		Payload:   payload,
	}
}
