package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRADEBOT_"

// Load merges an optional TOML file at path onto Defaults, loads .env if
// present and applies TRADEBOT_* overrides. An empty path skips the file.
// The result is NOT validated; call Config.Validate.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Missing .env is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites fields whose TRADEBOT_* variable is set.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setInt64Slice(&cfg.Telegram.AllowedUsers, "TELEGRAM_ALLOWED_USERS")
	setDuration(&cfg.Telegram.PollTimeout, "TELEGRAM_POLL_TIMEOUT")

	setStr(&cfg.Solana.RPCURL, "SOLANA_RPC_URL")
	setStringSlice(&cfg.Solana.FallbackRPCURLs, "SOLANA_FALLBACK_RPC_URLS")
	setStr(&cfg.Solana.WSURL, "SOLANA_WS_URL")
	setStr(&cfg.Solana.Commitment, "SOLANA_COMMITMENT")
	setDuration(&cfg.Solana.ConfirmTimeout, "SOLANA_CONFIRM_TIMEOUT")
	setDuration(&cfg.Solana.PollInterval, "SOLANA_POLL_INTERVAL")
	setDuration(&cfg.Solana.RPCTimeout, "SOLANA_RPC_TIMEOUT")
	setInt(&cfg.Solana.MaxRetries, "SOLANA_MAX_RETRIES")

	setStr(&cfg.Jupiter.BaseURL, "JUPITER_BASE_URL")
	setDuration(&cfg.Jupiter.Timeout, "JUPITER_TIMEOUT")
	setStr(&cfg.DexScreener.BaseURL, "DEXSCREENER_BASE_URL")
	setDuration(&cfg.DexScreener.Timeout, "DEXSCREENER_TIMEOUT")

	setInt(&cfg.Trading.DefaultSlippageBps, "TRADING_DEFAULT_SLIPPAGE_BPS")
	setFloat64(&cfg.Trading.DefaultPriorityFee, "TRADING_DEFAULT_PRIORITY_FEE")
	setInt(&cfg.Trading.FeeBps, "TRADING_FEE_BPS")
	setStr(&cfg.Trading.FeeRecipient, "TRADING_FEE_RECIPIENT")
	setInt(&cfg.Trading.HistoryCap, "TRADING_HISTORY_CAP")
	setBool(&cfg.Trading.SerializePerWallet, "TRADING_SERIALIZE_PER_WALLET")
	setDuration(&cfg.Trading.WalletLockTTL, "TRADING_WALLET_LOCK_TTL")

	setDuration(&cfg.Cache.BalanceTTL, "CACHE_BALANCE_TTL")

	setStr(&cfg.Redis.Addr, "REDIS_ADDR")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "REDIS_KEY_PREFIX")

	setStr(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setStr(&cfg.Storage.PostgresDSN, "STORAGE_POSTGRES_DSN")
	setStr(&cfg.Storage.ClickhouseDSN, "STORAGE_CLICKHOUSE_DSN")
	setBool(&cfg.Storage.RunMigrations, "STORAGE_RUN_MIGRATIONS")

	setStr(&cfg.Metrics.Addr, "METRICS_ADDR")
	setStr(&cfg.Log.Level, "LOG_LEVEL")
	setStr(&cfg.Wallet.PrivateKey, "WALLET_PRIVATE_KEY")
}

// Typed helpers. Each only mutates the target when the variable is non-empty
// and parses.

func lookup(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func setStr(dst *string, key string) {
	if v := lookup(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := lookup(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := lookup(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := lookup(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func setStringSlice(dst *[]string, key string) {
	if v := lookup(key); v != "" {
		if cleaned := splitList(v); len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

func setInt64Slice(dst *[]int64, key string) {
	v := lookup(key)
	if v == "" {
		return
	}
	var ids []int64
	for _, p := range splitList(v) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return
		}
		ids = append(ids, n)
	}
	if len(ids) > 0 {
		*dst = ids
	}
}
