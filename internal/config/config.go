// Package config defines the bot configuration and its validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"solana-trade-bot/internal/address"
)

// Config is the root configuration. Fields come from defaults, an optional
// TOML file and TRADEBOT_* environment variables, in that order.
type Config struct {
	Telegram    TelegramConfig    `toml:"telegram"`
	Solana      SolanaConfig      `toml:"solana"`
	Jupiter     JupiterConfig     `toml:"jupiter"`
	DexScreener DexScreenerConfig `toml:"dexscreener"`
	Trading     TradingConfig     `toml:"trading"`
	Cache       CacheConfig       `toml:"cache"`
	Redis       RedisConfig       `toml:"redis"`
	Storage     StorageConfig     `toml:"storage"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Log         LogConfig         `toml:"log"`
	Wallet      WalletConfig      `toml:"wallet"`
}

// TelegramConfig holds the bot token and the users allowed to talk to it.
type TelegramConfig struct {
	Token        string   `toml:"token"`
	AllowedUsers []int64  `toml:"allowed_users"`
	PollTimeout  duration `toml:"poll_timeout"`
}

// SolanaConfig holds RPC endpoints and confirmation parameters.
type SolanaConfig struct {
	RPCURL          string   `toml:"rpc_url"`
	FallbackRPCURLs []string `toml:"fallback_rpc_urls"`
	WSURL           string   `toml:"ws_url"`
	Commitment      string   `toml:"commitment"`
	ConfirmTimeout  duration `toml:"confirm_timeout"`
	PollInterval    duration `toml:"poll_interval"`
	RPCTimeout      duration `toml:"rpc_timeout"`
	MaxRetries      int      `toml:"max_retries"`
}

// JupiterConfig holds the aggregator endpoint.
type JupiterConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// DexScreenerConfig holds the market-data endpoint.
type DexScreenerConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// TradingConfig holds per-trade defaults and the platform commission.
type TradingConfig struct {
	DefaultSlippageBps int      `toml:"default_slippage_bps"`
	DefaultPriorityFee float64  `toml:"default_priority_fee"`
	FeeBps             int      `toml:"fee_bps"`
	FeeRecipient       string   `toml:"fee_recipient"`
	HistoryCap         int      `toml:"history_cap"`
	SerializePerWallet bool     `toml:"serialize_per_wallet"`
	WalletLockTTL      duration `toml:"wallet_lock_ttl"`
}

// CacheConfig holds the balance cache TTL.
type CacheConfig struct {
	BalanceTTL duration `toml:"balance_ttl"`
}

// RedisConfig holds Redis connection parameters. Empty Addr disables Redis.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// StorageConfig selects the trade history backend.
type StorageConfig struct {
	Backend       string `toml:"backend"` // memory, postgres, clickhouse
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickhouseDSN string `toml:"clickhouse_dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// MetricsConfig holds the side HTTP server address. Empty disables it.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig holds the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// WalletConfig holds an optional operator wallet imported at startup.
type WalletConfig struct {
	PrivateKey string `toml:"private_key"`
}

// duration wraps time.Duration so TOML strings like "75s" decode.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Storage backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Defaults returns a Config with every optional field filled in.
func Defaults() Config {
	return Config{
		Telegram: TelegramConfig{
			PollTimeout: duration{10 * time.Second},
		},
		Solana: SolanaConfig{
			RPCURL:         "https://api.mainnet-beta.solana.com",
			Commitment:     "confirmed",
			ConfirmTimeout: duration{75 * time.Second},
			PollInterval:   duration{2 * time.Second},
			RPCTimeout:     duration{30 * time.Second},
			MaxRetries:     3,
		},
		Jupiter: JupiterConfig{
			BaseURL: "https://quote-api.jup.ag/v6",
			Timeout: duration{15 * time.Second},
		},
		DexScreener: DexScreenerConfig{
			BaseURL: "https://api.dexscreener.com",
			Timeout: duration{10 * time.Second},
		},
		Trading: TradingConfig{
			DefaultSlippageBps: 100,
			DefaultPriorityFee: 0.001,
			HistoryCap:         100,
			SerializePerWallet: true,
			WalletLockTTL:      duration{2 * time.Minute},
		},
		Cache: CacheConfig{
			BalanceTTL: duration{30 * time.Second},
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "tradebot:",
		},
		Storage: StorageConfig{
			Backend:       BackendMemory,
			RunMigrations: true,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log: unknown level %q (valid: debug, info, warn, error)", c.Log.Level))
	}

	if c.Solana.RPCURL == "" {
		errs = append(errs, "solana: rpc_url must not be empty")
	}
	if c.Solana.Commitment != "processed" && c.Solana.Commitment != "confirmed" && c.Solana.Commitment != "finalized" {
		errs = append(errs, fmt.Sprintf("solana: unknown commitment %q", c.Solana.Commitment))
	}
	if d := c.Solana.ConfirmTimeout.Duration; d < 60*time.Second || d > 90*time.Second {
		errs = append(errs, fmt.Sprintf("solana: confirm_timeout must be within 60s-90s, got %s", d))
	}
	if c.Solana.PollInterval.Duration <= 0 {
		errs = append(errs, "solana: poll_interval must be positive")
	}
	if c.Solana.MaxRetries < 1 {
		errs = append(errs, "solana: max_retries must be >= 1")
	}

	if c.Jupiter.BaseURL == "" {
		errs = append(errs, "jupiter: base_url must not be empty")
	}
	if c.DexScreener.BaseURL == "" {
		errs = append(errs, "dexscreener: base_url must not be empty")
	}

	if c.Trading.DefaultSlippageBps < 50 || c.Trading.DefaultSlippageBps > 5000 {
		errs = append(errs, fmt.Sprintf("trading: default_slippage_bps must be within 50-5000, got %d", c.Trading.DefaultSlippageBps))
	}
	if c.Trading.DefaultPriorityFee < 0.0001 || c.Trading.DefaultPriorityFee > 0.1 {
		errs = append(errs, fmt.Sprintf("trading: default_priority_fee must be within 0.0001-0.1 SOL, got %g", c.Trading.DefaultPriorityFee))
	}
	if c.Trading.FeeBps < 0 || c.Trading.FeeBps > 1000 {
		errs = append(errs, fmt.Sprintf("trading: fee_bps must be within 0-1000, got %d", c.Trading.FeeBps))
	}
	if c.Trading.FeeBps > 0 && c.Trading.FeeRecipient == "" {
		errs = append(errs, "trading: fee_recipient is required when fee_bps > 0")
	}
	if c.Trading.FeeRecipient != "" && !address.IsValid(c.Trading.FeeRecipient) {
		errs = append(errs, fmt.Sprintf("trading: fee_recipient %q is not a valid Solana address", c.Trading.FeeRecipient))
	}
	if c.Trading.HistoryCap < 1 {
		errs = append(errs, "trading: history_cap must be >= 1")
	}

	// The operator wallet is only handed to allow-listed users.
	if c.Wallet.PrivateKey != "" && len(c.Telegram.AllowedUsers) == 0 {
		errs = append(errs, "wallet: private_key requires telegram.allowed_users")
	}

	if c.Cache.BalanceTTL.Duration < 0 {
		errs = append(errs, "cache: balance_ttl must not be negative")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, "storage: postgres_dsn is required for the postgres backend")
		}
	case BackendClickhouse:
		if c.Storage.ClickhouseDSN == "" {
			errs = append(errs, "storage: clickhouse_dsn is required for the clickhouse backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage: unknown backend %q (valid: memory, postgres, clickhouse)", c.Storage.Backend))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// RequireTelegram reports whether the bot process can start.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram: token must be set")
	}
	return nil
}

// SlogLevel maps the configured level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Redacted returns a copy with secrets replaced by "***" for logging.
func (c *Config) Redacted() Config {
	out := *c
	redact(&out.Telegram.Token)
	redact(&out.Wallet.PrivateKey)
	redact(&out.Redis.Password)
	redact(&out.Storage.PostgresDSN)
	redact(&out.Storage.ClickhouseDSN)
	return out
}

func redact(s *string) {
	if *s != "" {
		*s = "***"
	}
}
