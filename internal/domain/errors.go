package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the command layer.
type ErrorKind string

// Error kinds. Validation kinds are raised before any network call.
const (
	KindInvalidAddress      ErrorKind = "INVALID_ADDRESS"
	KindInvalidAmount       ErrorKind = "INVALID_AMOUNT"
	KindInsufficientFunds   ErrorKind = "INSUFFICIENT_FUNDS"
	KindNoTokensHeld        ErrorKind = "NO_TOKENS_HELD"
	KindDustAmount          ErrorKind = "DUST_AMOUNT"
	KindQuoteUnavailable    ErrorKind = "QUOTE_UNAVAILABLE"
	KindNoRouteFound        ErrorKind = "NO_ROUTE_FOUND"
	KindInvalidSigner       ErrorKind = "INVALID_SIGNER"
	KindSwapBuildFailed     ErrorKind = "SWAP_BUILD_FAILED"
	KindSubmissionFailed    ErrorKind = "SUBMISSION_FAILED"
	KindConfirmationTimeout ErrorKind = "CONFIRMATION_TIMEOUT"
	KindOnChainFailure      ErrorKind = "ON_CHAIN_FAILURE"
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	KindWalletBusy          ErrorKind = "WALLET_BUSY"
)

// Error is a classified trade failure.
// Signature is set once a transaction has been broadcast.
// Payload carries the chain's error document for on-chain failures.
type Error struct {
	Kind      ErrorKind
	Message   string
	Signature string
	Payload   interface{}
	Err       error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Signature != "" {
		msg += " (signature " + e.Signature + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is matching. Never return these directly; use NewError.
var (
	ErrInvalidAddress      = &Error{Kind: KindInvalidAddress}
	ErrInvalidAmount       = &Error{Kind: KindInvalidAmount}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds}
	ErrNoTokensHeld        = &Error{Kind: KindNoTokensHeld}
	ErrDustAmount          = &Error{Kind: KindDustAmount}
	ErrQuoteUnavailable    = &Error{Kind: KindQuoteUnavailable}
	ErrNoRouteFound        = &Error{Kind: KindNoRouteFound}
	ErrInvalidSigner       = &Error{Kind: KindInvalidSigner}
	ErrSwapBuildFailed     = &Error{Kind: KindSwapBuildFailed}
	ErrSubmissionFailed    = &Error{Kind: KindSubmissionFailed}
	ErrConfirmationTimeout = &Error{Kind: KindConfirmationTimeout}
	ErrOnChainFailure      = &Error{Kind: KindOnChainFailure}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrWalletBusy          = &Error{Kind: KindWalletBusy}
)

// NewError builds a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies cause under kind.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first classified error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// SignatureOf returns the broadcast signature attached to err, if any.
func SignatureOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Signature
	}
	return ""
}
