package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/app"
	"github.com/rickgao/feeder/internal/backoff"
	"github.com/rickgao/feeder/internal/metrics"
	"github.com/rickgao/feeder/internal/runner"
	"github.com/rickgao/feeder/internal/source/binance"
	"github.com/rickgao/feeder/internal/source/coingecko"
	"github.com/rickgao/feeder/internal/source/yahoo"
)

const service = "market-feeder"

func main() {
	configPath := flag.String("config", "configs/market-feeder.yaml", "path to config file")
	flag.Parse()

	cfg, logger, err := app.Load(service, *configPath)
	if err != nil {
		slog.Error("failed to load config", "config", *configPath, "error", err)
		os.Exit(1)
	}

	proc, err := app.New(context.Background(), service, metrics.NamespaceMarket, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	market := cfg.Market
	writeTimeout := cfg.Sink.WriteTimeout

	cg := market.CoinGecko
	cgClient := api.NewClient(cg.BaseURL, proc.ClientOptions(cg.Timeout,
		api.WithHeader(coingecko.APIKeyHeader, cg.APIKey))...)
	cgSource := coingecko.New(cgClient, cg.Coins, logger.With("source", coingecko.Name))

	yc := market.Yahoo
	yClient := api.NewClient(yc.BaseURL, proc.ClientOptions(yc.Timeout,
		api.WithHeader("User-Agent", yc.UserAgent))...)
	ySource := yahoo.New(yahoo.Config{
		Tickers:     yc.Tickers,
		Timeout:     yc.Timeout,
		Concurrency: yc.Concurrency,
	}, yClient, logger.With("source", yahoo.Name))

	bc := market.Binance
	bSource := binance.New(binance.Config{
		URL:              bc.URL,
		Pairs:            bc.Pairs,
		HandshakeTimeout: bc.HandshakeTimeout,
		ReadTimeout:      bc.ReadTimeout,
	}, logger.With("source", binance.Name))

	runners := []runner.Runner{
		runner.NewPoller(runner.PollerConfig{
			Name:         coingecko.Name,
			Interval:     cg.Interval,
			Enabled:      !cg.Disabled,
			WriteTimeout: writeTimeout,
		}, cgSource.Fetch, proc.Sink, proc.Gauge(), logger),
		runner.NewPoller(runner.PollerConfig{
			Name:         yahoo.Name,
			Interval:     yc.Interval,
			Enabled:      !yc.Disabled,
			WriteTimeout: writeTimeout,
		}, ySource.Fetch, proc.Sink, proc.Gauge(), logger),
		runner.NewStreamer(runner.StreamerConfig{
			Name:         binance.Name,
			Enabled:      bc.APIKey != "",
			Backoff:      backoff.Policy{Base: bc.ReconnectBase, Max: bc.ReconnectMax},
			WriteTimeout: writeTimeout,
		}, bSource.Dial, bSource.Parse, proc.Sink, proc.Gauge(), logger),
	}

	proc.Run(runners)
}
