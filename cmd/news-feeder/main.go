package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/app"
	"github.com/rickgao/feeder/internal/dedup"
	"github.com/rickgao/feeder/internal/metrics"
	"github.com/rickgao/feeder/internal/runner"
	"github.com/rickgao/feeder/internal/sink"
	"github.com/rickgao/feeder/internal/source"
	"github.com/rickgao/feeder/internal/source/cryptopanic"
	"github.com/rickgao/feeder/internal/source/newsapi"
	"github.com/rickgao/feeder/internal/version"
)

const service = "news-feeder"

func main() {
	configPath := flag.String("config", "configs/news-feeder.yaml", "path to config file")
	flag.Parse()

	cfg, logger, err := app.Load(service, *configPath)
	if err != nil {
		slog.Error("failed to load config", "config", *configPath, "error", err)
		os.Exit(1)
	}

	proc, err := app.New(context.Background(), service, metrics.NamespaceNews, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	news := cfg.News
	proc.Sink = sink.NewEnriched(proc.Sink, news.SentimentOn())

	// Both sources share one set so an article syndicated to both is
	// written once.
	seen := source.NewDeduper(dedup.New(news.DedupMaxURLs), func(src string) {
		proc.Metrics.Deduped(src).Inc()
	})

	cp := news.CryptoPanic
	cpClient := api.NewClient(cp.BaseURL, proc.ClientOptions(cp.Timeout)...)
	rssClient := api.NewClient(cp.RSSURL, proc.ClientOptions(cp.Timeout,
		api.WithHeader("Accept", cryptopanic.FeedAccept),
		api.WithHeader("User-Agent", service+"/"+version.Version))...)
	cpSource := cryptopanic.New(cryptopanic.Config{Token: cp.Token},
		cpClient, rssClient, seen, logger.With("source", cryptopanic.Name))
	logger.Info("cryptopanic mode", "mode", cpSource.Mode())

	na := news.NewsAPI
	naClient := api.NewClient(na.BaseURL, proc.ClientOptions(na.Timeout,
		api.WithHeader(newsapi.KeyHeader, na.Key),
		api.WithRateLimit(na.RateLimit, 1))...)
	naSource := newsapi.New(newsapi.Config{
		Queries:     na.Queries,
		PageSize:    na.PageSize,
		Timeout:     na.Timeout,
		Concurrency: news.Concurrency,
	}, naClient, seen, logger.With("source", newsapi.Name))

	runners := []runner.Runner{
		runner.NewPoller(runner.PollerConfig{
			Name:         cryptopanic.Name,
			Interval:     news.Interval,
			Enabled:      !cp.Disabled,
			WriteTimeout: cfg.Sink.WriteTimeout,
		}, cpSource.Fetch, proc.Sink, proc.Gauge(), logger),
		runner.NewPoller(runner.PollerConfig{
			Name:         newsapi.Name,
			Interval:     news.Interval,
			Enabled:      na.Key != "",
			WriteTimeout: cfg.Sink.WriteTimeout,
		}, naSource.Fetch, proc.Sink, proc.Gauge(), logger),
	}

	proc.Run(runners)
}
