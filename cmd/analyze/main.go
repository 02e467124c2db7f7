// Command analyze scores a token address and prints the report as JSON.
//
//	analyze [-config bot.toml] <token address>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"solana-trade-bot/internal/analysis"
	"solana-trade-bot/internal/config"
	"solana-trade-bot/internal/marketdata"
)

func main() {
	configPath := flag.String("config", "", "path to TOML configuration file (optional)")
	timeout := flag.Duration("timeout", 15*time.Second, "overall request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <token address>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays valid JSON.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	market := marketdata.NewClient(
		marketdata.WithBaseURL(cfg.DexScreener.BaseURL),
		marketdata.WithTimeout(cfg.DexScreener.Timeout.Duration),
		marketdata.WithLogger(logger),
	)

	report, err := analysis.New(market, analysis.WithLogger(logger)).Analyze(ctx, flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
