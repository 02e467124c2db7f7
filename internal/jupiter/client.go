// Package jupiter implements quoting and swap building against the Jupiter v6 aggregator API.
package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"solana-trade-bot/internal/address"
	"solana-trade-bot/internal/amount"
	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/observability"
)

// DefaultBaseURL is the public Jupiter v6 API.
const DefaultBaseURL = "https://quote-api.jup.ag/v6"

// Slippage bounds accepted by the aggregator, in basis points.
const (
	MinSlippageBps = 1
	MaxSlippageBps = 10_000
)

// ErrNoRoute marks a quote failure caused by the absence of a viable route,
// typically an illiquid or untradable token.
var ErrNoRoute = errors.New("no route found")

// Error codes the aggregator uses for unroutable requests.
var noRouteCodes = map[string]bool{
	"COULD_NOT_FIND_ANY_ROUTE": true,
	"NO_ROUTES_FOUND":          true,
	"TOKEN_NOT_TRADABLE":       true,
}

// QuoteRequest describes a quote to fetch.
type QuoteRequest struct {
	InputMint      string
	OutputMint     string
	Amount         uint64 // atomic units of InputMint
	SlippageBps    int
	PlatformFeeBps int
}

// SwapRequest describes a swap transaction to build.
type SwapRequest struct {
	Quote                     *domain.Quote
	UserPublicKey             string
	PrioritizationFeeLamports uint64
	FeeAccount                string // empty for no platform fee
}

// Client talks to the Jupiter API. It performs no retries.
type Client struct {
	baseURL string
	http    *resty.Client
	logger  *slog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithRestyClient sets a custom resty client.
func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) {
		c.http = rc
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new Jupiter client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    resty.New().SetTimeout(15 * time.Second).SetRetryCount(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "jupiter")
	return c
}

// ClampSlippage corrects bps into [MinSlippageBps, MaxSlippageBps].
func ClampSlippage(bps int) int {
	if bps < MinSlippageBps {
		return MinSlippageBps
	}
	if bps > MaxSlippageBps {
		return MaxSlippageBps
	}
	return bps
}

// GetQuote fetches a quote. Failures are QuoteUnavailable errors; those caused by
// a missing route additionally match ErrNoRoute.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	if req.Amount == 0 {
		return nil, domain.NewError(domain.KindInvalidAmount, "quote amount must be positive")
	}
	if !address.IsValid(req.InputMint) {
		return nil, domain.NewError(domain.KindInvalidAddress, "invalid input mint %q", req.InputMint)
	}
	if !address.IsValid(req.OutputMint) {
		return nil, domain.NewError(domain.KindInvalidAddress, "invalid output mint %q", req.OutputMint)
	}

	params := map[string]string{
		"inputMint":   req.InputMint,
		"outputMint":  req.OutputMint,
		"amount":      strconv.FormatUint(req.Amount, 10),
		"slippageBps": strconv.Itoa(ClampSlippage(req.SlippageBps)),
	}
	if req.PlatformFeeBps > 0 {
		params["platformFeeBps"] = strconv.Itoa(req.PlatformFeeBps)
	}

	start := time.Now()
	quote, reason, err := c.getQuote(ctx, params)
	observability.RecordQuote(time.Since(start).Seconds(), reason)
	if err != nil {
		c.logger.Warn("quote failed",
			"input_mint", req.InputMint,
			"output_mint", req.OutputMint,
			"amount", req.Amount,
			"reason", reason,
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("quote received",
		"input_mint", quote.InputMint,
		"output_mint", quote.OutputMint,
		"in_amount", quote.InAmount,
		"out_amount", quote.OutAmount,
		"price_impact_pct", quote.PriceImpactPct,
	)
	return quote, nil
}

func (c *Client) getQuote(ctx context.Context, params map[string]string) (*domain.Quote, string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.baseURL + "/quote")
	if err != nil {
		return nil, "transport", domain.WrapError(domain.KindQuoteUnavailable, err, "quote request failed")
	}

	body := resp.Body()
	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	if noRouteCodes[apiErr.ErrorCode] {
		return nil, "no_route", domain.WrapError(domain.KindQuoteUnavailable, ErrNoRoute, "%s", apiErr.message())
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "http_status", domain.NewError(domain.KindQuoteUnavailable, "unexpected status code %d: %s", resp.StatusCode(), apiErr.message())
	}
	if apiErr.Error != "" {
		return nil, "error_body", domain.NewError(domain.KindQuoteUnavailable, "%s", apiErr.message())
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, "decode", domain.WrapError(domain.KindQuoteUnavailable, err, "decode quote")
	}
	if qr.OutAmount == "" {
		return nil, "no_route", domain.WrapError(domain.KindQuoteUnavailable, ErrNoRoute, "quote has no output amount")
	}

	quote, err := qr.toDomain(body)
	if err != nil {
		return nil, "decode", domain.WrapError(domain.KindQuoteUnavailable, err, "decode quote")
	}
	return quote, "", nil
}

// BuildSwap requests an unsigned swap transaction for quote and returns it base64-encoded.
func (c *Client) BuildSwap(ctx context.Context, req SwapRequest) (string, error) {
	if req.Quote == nil || len(req.Quote.Raw) == 0 {
		return "", domain.NewError(domain.KindSwapBuildFailed, "quote carries no upstream payload")
	}

	body := swapRequestBody{
		QuoteResponse:             req.Quote.Raw,
		UserPublicKey:             req.UserPublicKey,
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: req.PrioritizationFeeLamports,
		FeeAccount:                req.FeeAccount,
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.baseURL + "/swap")
	observability.RecordSwapBuild(time.Since(start).Seconds())
	if err != nil {
		return "", domain.WrapError(domain.KindSwapBuildFailed, err, "swap request failed")
	}

	var sr swapResponse
	decodeErr := json.Unmarshal(resp.Body(), &sr)

	if resp.StatusCode() != http.StatusOK {
		return "", domain.NewError(domain.KindSwapBuildFailed, "unexpected status code %d: %s", resp.StatusCode(), sr.message())
	}
	if decodeErr != nil {
		return "", domain.WrapError(domain.KindSwapBuildFailed, decodeErr, "decode swap response")
	}
	if sr.SwapTransaction == "" {
		return "", domain.NewError(domain.KindSwapBuildFailed, "response has no transaction: %s", sr.message())
	}

	c.logger.Debug("swap built",
		"user", req.UserPublicKey,
		"priority_fee_lamports", req.PrioritizationFeeLamports,
		"last_valid_block_height", sr.LastValidBlockHeight,
	)
	return sr.SwapTransaction, nil
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

func (e errorResponse) message() string {
	switch {
	case e.Error != "" && e.ErrorCode != "":
		return e.ErrorCode + ": " + e.Error
	case e.Error != "":
		return e.Error
	case e.ErrorCode != "":
		return e.ErrorCode
	}
	return "no error detail"
}

type quoteResponse struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SlippageBps          int    `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`
	PlatformFee          *struct {
		Amount string `json:"amount"`
		FeeBps int    `json:"feeBps"`
	} `json:"platformFee"`
	RoutePlan []struct {
		SwapInfo struct {
			Label string `json:"label"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
	OutputDecimals *int `json:"outputDecimals"`
}

func (qr quoteResponse) toDomain(raw []byte) (*domain.Quote, error) {
	inAmount, err := amount.ParseAtomic(qr.InAmount)
	if err != nil {
		return nil, fmt.Errorf("inAmount: %w", err)
	}
	outAmount, err := amount.ParseAtomic(qr.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("outAmount: %w", err)
	}

	q := &domain.Quote{
		InputMint:   qr.InputMint,
		OutputMint:  qr.OutputMint,
		InAmount:    inAmount,
		OutAmount:   outAmount,
		SlippageBps: qr.SlippageBps,
		Raw:         append(json.RawMessage(nil), raw...),
	}
	if qr.OtherAmountThreshold != "" {
		if q.OtherThreshold, err = amount.ParseAtomic(qr.OtherAmountThreshold); err != nil {
			return nil, fmt.Errorf("otherAmountThreshold: %w", err)
		}
	}
	if qr.PriceImpactPct != "" {
		if q.PriceImpactPct, err = strconv.ParseFloat(qr.PriceImpactPct, 64); err != nil {
			return nil, fmt.Errorf("priceImpactPct: %w", err)
		}
	}
	if qr.PlatformFee != nil && qr.PlatformFee.Amount != "" {
		feeAmount, err := amount.ParseAtomic(qr.PlatformFee.Amount)
		if err != nil {
			return nil, fmt.Errorf("platformFee: %w", err)
		}
		q.PlatformFee = &domain.PlatformFee{Amount: feeAmount, FeeBps: qr.PlatformFee.FeeBps}
	}
	for _, step := range qr.RoutePlan {
		q.RouteLabels = append(q.RouteLabels, step.SwapInfo.Label)
	}
	if qr.OutputDecimals != nil {
		q.OutputDecimals = *qr.OutputDecimals
	}
	return q, nil
}

type swapRequestBody struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports uint64          `json:"prioritizationFeeLamports"`
	FeeAccount                string          `json:"feeAccount,omitempty"`
}

type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	errorResponse
}
