package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"solana-trade-bot/internal/analysis"
	"solana-trade-bot/internal/balance"
	"solana-trade-bot/internal/bot"
	"solana-trade-bot/internal/cache/redis"
	"solana-trade-bot/internal/config"
	"solana-trade-bot/internal/jupiter"
	"solana-trade-bot/internal/marketdata"
	"solana-trade-bot/internal/solana"
	"solana-trade-bot/internal/storage"
	chstore "solana-trade-bot/internal/storage/clickhouse"
	"solana-trade-bot/internal/storage/memory"
	"solana-trade-bot/internal/storage/migrations"
	pgstore "solana-trade-bot/internal/storage/postgres"
	"solana-trade-bot/internal/swap"
	"solana-trade-bot/internal/trade"
	"solana-trade-bot/internal/wallet"
)

// app holds the wired components the process serves.
type app struct {
	bot     *bot.Bot
	rpc     *solana.HTTPClient
	redis   *redis.Client
	backend string
}

// newApp wires every component from cfg. cleanup releases connections in
// reverse order of creation.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*app, func(), error) {
		cleanup()
		return nil, nil, err
	}

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
		solana.WithFallbackEndpoints(cfg.Solana.FallbackRPCURLs...),
		solana.WithTimeout(cfg.Solana.RPCTimeout.Duration),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
		solana.WithCommitment(cfg.Solana.Commitment),
		solana.WithLogger(logger),
	)

	jup := jupiter.NewClient(
		jupiter.WithBaseURL(cfg.Jupiter.BaseURL),
		jupiter.WithTimeout(cfg.Jupiter.Timeout.Duration),
		jupiter.WithLogger(logger),
	)
	market := marketdata.NewClient(
		marketdata.WithBaseURL(cfg.DexScreener.BaseURL),
		marketdata.WithTimeout(cfg.DexScreener.Timeout.Duration),
		marketdata.WithLogger(logger),
	)

	execOpts := []swap.Option{
		swap.WithConfirmTimeout(cfg.Solana.ConfirmTimeout.Duration),
		swap.WithPollInterval(cfg.Solana.PollInterval.Duration),
		swap.WithLogger(logger),
	}
	if cfg.Solana.WSURL != "" {
		wsCfg := solana.DefaultWSConfig()
		wsCfg.Logger = logger
		ws, err := solana.NewWSClient(ctx, cfg.Solana.WSURL, &wsCfg)
		if err != nil {
			// Polling alone still confirms; push is an optimization.
			logger.Warn("websocket unavailable, confirming by polling only", "error", err)
		} else {
			closers = append(closers, func() { ws.Close() })
			execOpts = append(execOpts, swap.WithWSClient(ws))
		}
	}
	executor := swap.NewExecutor(jup, rpc, execOpts...)

	var (
		cache  balance.Cache = balance.NewMemoryCache(cfg.Cache.BalanceTTL.Duration)
		locker trade.Locker
		rc     *redis.Client
	)
	if cfg.Redis.Addr != "" {
		var err error
		rc, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		closers = append(closers, func() { rc.Close() })
		cache = redis.NewBalanceCache(rc, cfg.Cache.BalanceTTL.Duration)
	}
	if cfg.Trading.SerializePerWallet {
		if rc != nil {
			locker = redis.NewWalletLocker(redis.NewLockManager(rc), cfg.Trading.WalletLockTTL.Duration, 0)
		} else {
			locker = trade.NewKeyedMutex()
		}
	}
	balances := balance.NewReader(rpc, cache, balance.WithLogger(logger))

	history, closeHistory, err := newHistoryStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeHistory)

	orchestrator := trade.New(trade.Options{
		Quoter:     jup,
		Executor:   executor,
		Balances:   balances,
		History:    history,
		Mints:      rpc,
		MarketData: market,
		Locker:     locker,
		Fee:        trade.PlatformFee{Bps: cfg.Trading.FeeBps, Recipient: cfg.Trading.FeeRecipient},
		Logger:     logger,
	})

	var shared *wallet.Signer
	if cfg.Wallet.PrivateKey != "" {
		shared, err = wallet.FromBase58(cfg.Wallet.PrivateKey)
		if err != nil {
			return fail(fmt.Errorf("wallet.private_key: %w", err))
		}
		logger.Info("operator wallet loaded", "wallet", shared.PublicAddress())
	}

	b, err := bot.New(bot.Options{
		Token:        cfg.Telegram.Token,
		AllowedUsers: cfg.Telegram.AllowedUsers,
		PollTimeout:  cfg.Telegram.PollTimeout.Duration,
		Trader:       orchestrator,
		Balances:     balances,
		History:      history,
		Analyzer:     analysis.New(market, analysis.WithLogger(logger)),
		Sessions: bot.NewSessions(bot.Settings{
			SlippageBps:    cfg.Trading.DefaultSlippageBps,
			PriorityFeeSOL: cfg.Trading.DefaultPriorityFee,
		}, shared, cfg.Telegram.AllowedUsers...),
		// Confirmation may take the full timeout after quoting and building.
		TradeTimeout: cfg.Solana.ConfirmTimeout.Duration + 30*time.Second,
		Logger:       logger,
	})
	if err != nil {
		return fail(err)
	}

	return &app{bot: b, rpc: rpc, redis: rc, backend: cfg.Storage.Backend}, cleanup, nil
}

// newHistoryStore opens the configured trade history backend.
func newHistoryStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.TradeRecordStore, func(), error) {
	historyCap := cfg.Trading.HistoryCap

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if cfg.Storage.RunMigrations {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		logger.Info("trade history on postgres")
		return pgstore.NewTradeRecordStore(pool, historyCap), pool.Close, nil

	case config.BackendClickhouse:
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Storage.RunMigrations {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		logger.Info("trade history on clickhouse")
		return chstore.NewTradeRecordStore(conn, historyCap), func() { conn.Close() }, nil

	default:
		logger.Info("trade history in memory")
		return memory.NewTradeRecordStore(historyCap), func() {}, nil
	}
}
