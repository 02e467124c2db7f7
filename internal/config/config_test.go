package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 75*time.Second, cfg.Solana.ConfirmTimeout.Duration)
	assert.True(t, cfg.Trading.SerializePerWallet)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	path := writeTOML(t, `
[solana]
rpc_url = "http://rpc.local"
fallback_rpc_urls = ["http://a", "http://b"]
confirm_timeout = "60s"

[trading]
default_slippage_bps = 300
fee_bps = 50
fee_recipient = "FeeRecipient1111111111111111111111111111111"

[storage]
backend = "postgres"
postgres_dsn = "postgres://u:p@localhost/db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://rpc.local", cfg.Solana.RPCURL)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Solana.FallbackRPCURLs)
	assert.Equal(t, 60*time.Second, cfg.Solana.ConfirmTimeout.Duration)
	assert.Equal(t, 300, cfg.Trading.DefaultSlippageBps)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://quote-api.jup.ag/v6", cfg.Jupiter.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Solana.PollInterval.Duration)
}

func TestLoad_EnvOverridesTOML(t *testing.T) {
	path := writeTOML(t, `
[log]
level = "debug"
`)
	t.Setenv("TRADEBOT_LOG_LEVEL", "warn")
	t.Setenv("TRADEBOT_TELEGRAM_ALLOWED_USERS", "42, 7")
	t.Setenv("TRADEBOT_SOLANA_FALLBACK_RPC_URLS", "http://x,,http://y")
	t.Setenv("TRADEBOT_TRADING_SERIALIZE_PER_WALLET", "false")
	t.Setenv("TRADEBOT_CACHE_BALANCE_TTL", "5s")
	t.Setenv("TRADEBOT_TRADING_FEE_BPS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []int64{42, 7}, cfg.Telegram.AllowedUsers)
	assert.Equal(t, []string{"http://x", "http://y"}, cfg.Solana.FallbackRPCURLs)
	assert.False(t, cfg.Trading.SerializePerWallet)
	assert.Equal(t, 5*time.Second, cfg.Cache.BalanceTTL.Duration)
	assert.Equal(t, 0, cfg.Trading.FeeBps, "unparsable override is ignored")
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log: unknown level"},
		{"confirm timeout low", func(c *Config) { c.Solana.ConfirmTimeout.Duration = 30 * time.Second }, "confirm_timeout"},
		{"confirm timeout high", func(c *Config) { c.Solana.ConfirmTimeout.Duration = 2 * time.Minute }, "confirm_timeout"},
		{"slippage", func(c *Config) { c.Trading.DefaultSlippageBps = 10 }, "default_slippage_bps"},
		{"priority fee", func(c *Config) { c.Trading.DefaultPriorityFee = 1 }, "default_priority_fee"},
		{"fee recipient", func(c *Config) { c.Trading.FeeBps = 25 }, "fee_recipient"},
		{"fee recipient address", func(c *Config) {
			c.Trading.FeeBps = 25
			c.Trading.FeeRecipient = "not-an-address"
		}, "fee_recipient \"not-an-address\" is not a valid Solana address"},
		{"operator wallet without allow list", func(c *Config) { c.Wallet.PrivateKey = "key" }, "private_key requires telegram.allowed_users"},
		{"backend", func(c *Config) { c.Storage.Backend = "sqlite" }, "unknown backend"},
		{"postgres dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }, "postgres_dsn"},
		{"clickhouse dsn", func(c *Config) { c.Storage.Backend = BackendClickhouse }, "clickhouse_dsn"},
		{"commitment", func(c *Config) { c.Solana.Commitment = "max" }, "commitment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_OperatorWalletWithAllowList(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "key"
	cfg.Telegram.AllowedUsers = []int64{42}
	cfg.Trading.FeeBps = 25
	cfg.Trading.FeeRecipient = "So11111111111111111111111111111111111111112"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Log.Level = "loud"
	cfg.Solana.RPCURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log:")
	assert.Contains(t, err.Error(), "rpc_url")
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "123:secret"
	cfg.Wallet.PrivateKey = "key"

	red := cfg.Redacted()
	assert.Equal(t, "***", red.Telegram.Token)
	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "", red.Redis.Password)
	assert.Equal(t, "123:secret", cfg.Telegram.Token, "original untouched")
}

func TestRequireTelegram(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, cfg.RequireTelegram())
	cfg.Telegram.Token = "t"
	assert.NoError(t, cfg.RequireTelegram())
}
