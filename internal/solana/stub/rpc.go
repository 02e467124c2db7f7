// Package stub provides an in-memory Solana chain for tests.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-trade-bot/internal/solana"
)

// ErrNotFound is returned when a mint is unknown to the stub.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient backed by maps.
// Sent transactions are recorded; statuses are scripted per signature.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64                          // owner -> lamports
	TokenBalances map[string]map[string]*solana.TokenBalance // owner -> mint -> balance
	MintDecimals  map[string]int

	// SendErr, when set, fails every SendTransaction.
	SendErr error
	// NextSignature is returned by SendTransaction; defaults to "stub-sig-<n>".
	NextSignature string
	// Statuses is returned for a signature by GetSignatureStatuses.
	Statuses map[string]*solana.SignatureStatus
	// AutoConfirm marks every sent signature confirmed without error
	// unless a status was scripted for it.
	AutoConfirm bool

	Sent         []string // base64 transactions in send order
	SendOpts     []solana.SendOptions
	BalanceCalls int
	TokenCalls   int
	StatusCalls  int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		TokenBalances: make(map[string]map[string]*solana.TokenBalance),
		MintDecimals:  make(map[string]int),
		Statuses:      make(map[string]*solana.SignatureStatus),
	}
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// GetBalance returns the stored lamport balance.
func (c *RPCClient) GetBalance(_ context.Context, owner string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BalanceCalls++
	return c.Balances[owner], nil
}

// GetTokenBalance returns the stored token balance, or an empty one.
func (c *RPCClient) GetTokenBalance(_ context.Context, owner, mint string) (*solana.TokenBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenCalls++
	if bal, ok := c.TokenBalances[owner][mint]; ok {
		copy := *bal
		return &copy, nil
	}
	return &solana.TokenBalance{Mint: mint}, nil
}

// GetMintDecimals returns stored decimals or ErrNotFound.
func (c *RPCClient) GetMintDecimals(_ context.Context, mint string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dec, ok := c.MintDecimals[mint]
	if !ok {
		return 0, ErrNotFound
	}
	return dec, nil
}

// SendTransaction records the transaction and returns the scripted signature.
func (c *RPCClient) SendTransaction(_ context.Context, txBase64 string, opts solana.SendOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, txBase64)
	c.SendOpts = append(c.SendOpts, opts)

	sig := c.NextSignature
	if sig == "" {
		sig = fmt.Sprintf("stub-sig-%d", len(c.Sent))
	}
	if _, scripted := c.Statuses[sig]; c.AutoConfirm && !scripted {
		c.Statuses[sig] = &solana.SignatureStatus{Slot: 1, ConfirmationStatus: solana.CommitmentConfirmed}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses; unknown signatures yield nil entries.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures ...string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StatusCalls++
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if st, ok := c.Statuses[sig]; ok {
			copy := *st
			out[i] = &copy
		}
	}
	return out, nil
}

// SetBalance sets owner's lamport balance.
func (c *RPCClient) SetBalance(owner string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[owner] = lamports
}

// SetTokenBalance sets owner's holding of mint.
func (c *RPCClient) SetTokenBalance(owner, mint string, atomic uint64, decimals int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TokenBalances[owner] == nil {
		c.TokenBalances[owner] = make(map[string]*solana.TokenBalance)
	}
	accounts := 1
	if atomic == 0 {
		accounts = 0
	}
	c.TokenBalances[owner][mint] = &solana.TokenBalance{
		Mint:     mint,
		Amount:   atomic,
		Decimals: decimals,
		Accounts: accounts,
	}
}

// Confirm scripts a confirmed status for signature with an optional error payload.
func (c *RPCClient) Confirm(signature string, txErr interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = &solana.SignatureStatus{
		Slot:               1,
		Err:                txErr,
		ConfirmationStatus: solana.CommitmentConfirmed,
	}
}

// SentCount returns the number of transactions submitted.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}
