// Package marketdata fetches trading-pair snapshots from the DexScreener API.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/observability"
)

// DefaultBaseURL is the public DexScreener API.
const DefaultBaseURL = "https://api.dexscreener.com"

// Fetch outcomes, reported to logs and metrics.
const (
	OutcomeOK             = "ok"
	OutcomeNoPools        = "no_pools"
	OutcomeTransportError = "transport_error"
	OutcomeHTTPError      = "http_error"
	OutcomeDecodeError    = "decode_error"
)

// Client fetches market data for tokens.
type Client struct {
	baseURL string
	http    *resty.Client
	chainID string
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

// NewClient creates a DexScreener client for the Solana chain.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    resty.New().SetTimeout(10 * time.Second),
		chainID: domain.ChainSolana,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "marketdata")
	return c
}

// FetchTradingPair returns the highest-liquidity Solana pool for token,
// or nil when no pool exists or the aggregator could not be reached.
// Failures are logged and counted, never returned.
func (c *Client) FetchTradingPair(ctx context.Context, token string) *domain.TradingPair {
	pair, outcome, err := c.fetch(ctx, token)
	observability.RecordMarketDataFetch(outcome)

	switch outcome {
	case OutcomeOK:
	case OutcomeNoPools:
		c.logger.Info("no pools for token", "token", token)
	default:
		c.logger.Warn("market data unavailable", "token", token, "outcome", outcome, "error", err)
	}
	return pair
}

// FetchSOLPriceUSD returns the USD price of SOL, or 0 when unknown.
func (c *Client) FetchSOLPriceUSD(ctx context.Context) float64 {
	pair := c.FetchTradingPair(ctx, domain.NativeMint)
	if pair == nil || pair.BaseToken.Address != domain.NativeMint {
		return 0
	}
	return pair.PriceUSD
}

func (c *Client) fetch(ctx context.Context, token string) (*domain.TradingPair, string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, token))
	if err != nil {
		return nil, OutcomeTransportError, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, OutcomeHTTPError, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var body tokensResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, OutcomeDecodeError, fmt.Errorf("decode response: %w", err)
	}

	pair := selectPair(body.Pairs, c.chainID)
	if pair == nil {
		return nil, OutcomeNoPools, nil
	}
	return pair, OutcomeOK, nil
}

// selectPair keeps pools on chainID and returns the most liquid one.
// Ties keep response order.
func selectPair(pairs []apiPair, chainID string) *domain.TradingPair {
	var candidates []apiPair
	for _, p := range pairs {
		if p.ChainID == chainID {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Liquidity.USD > candidates[j].Liquidity.USD
	})
	pair := candidates[0].toDomain()
	return &pair
}

type tokensResponse struct {
	Pairs []apiPair `json:"pairs"`
}

type apiToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type apiWindowed struct {
	M5  flexFloat `json:"m5"`
	H1  flexFloat `json:"h1"`
	H6  flexFloat `json:"h6"`
	H24 flexFloat `json:"h24"`
}

type apiPair struct {
	ChainID     string      `json:"chainId"`
	DexID       string      `json:"dexId"`
	URL         string      `json:"url"`
	PairAddress string      `json:"pairAddress"`
	BaseToken   apiToken    `json:"baseToken"`
	QuoteToken  apiToken    `json:"quoteToken"`
	PriceNative flexFloat   `json:"priceNative"`
	PriceUSD    flexFloat   `json:"priceUsd"`
	Volume      apiWindowed `json:"volume"`
	PriceChange apiWindowed `json:"priceChange"`
	Txns        struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Liquidity struct {
		USD flexFloat `json:"usd"`
	} `json:"liquidity"`
	FDV           flexFloat `json:"fdv"`
	MarketCap     flexFloat `json:"marketCap"`
	PairCreatedAt int64     `json:"pairCreatedAt"`
}

func (p apiPair) toDomain() domain.TradingPair {
	return domain.TradingPair{
		PairAddress:   p.PairAddress,
		DexID:         p.DexID,
		ChainID:       p.ChainID,
		URL:           p.URL,
		BaseToken:     domain.TokenRef(p.BaseToken),
		QuoteToken:    domain.TokenRef(p.QuoteToken),
		PriceUSD:      float64(p.PriceUSD),
		PriceNative:   float64(p.PriceNative),
		LiquidityUSD:  float64(p.Liquidity.USD),
		Volume:        p.Volume.toDomain(),
		PriceChange:   p.PriceChange.toDomain(),
		BuysH24:       p.Txns.H24.Buys,
		SellsH24:      p.Txns.H24.Sells,
		MarketCap:     float64(p.MarketCap),
		FDV:           float64(p.FDV),
		PairCreatedAt: p.PairCreatedAt,
	}
}

func (w apiWindowed) toDomain() domain.Windowed {
	return domain.Windowed{M5: float64(w.M5), H1: float64(w.H1), H6: float64(w.H6), H24: float64(w.H24)}
}

// flexFloat accepts numbers encoded either as JSON numbers or strings.
// Missing and null values decode as 0.
type flexFloat float64

var errNotNumber = errors.New("not a number")

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", errNotNumber, string(b))
	}
	*f = flexFloat(v)
	return nil
}
