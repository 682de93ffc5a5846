package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/feeder/internal/logging"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	if err := c.Sink.validate(); err != nil {
		return err
	}

	if c.Shutdown.GracePeriod < 0 {
		return errors.New("shutdown.grace_period must be >= 0")
	}
	if c.Shutdown.CancelTimeout < 0 {
		return errors.New("shutdown.cancel_timeout must be >= 0")
	}

	if err := c.Market.validate(); err != nil {
		return err
	}
	return c.News.validate()
}

func (s *SinkConfig) validate() error {
	if s.WriteTimeout <= 0 {
		return errors.New("sink.write_timeout must be > 0")
	}
	switch s.Driver {
	case "timescale":
		return s.Timescale.validate("sink.timescale")
	case "kafka":
		if len(s.Kafka.Brokers) == 0 {
			return errors.New("sink.kafka.brokers is required")
		}
		switch strings.ToUpper(s.Kafka.SASLMechanism) {
		case "", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("sink.kafka.sasl_mechanism %q is not supported", s.Kafka.SASLMechanism)
		}
		return nil
	default:
		return fmt.Errorf("sink.driver %q must be timescale or kafka", s.Driver)
	}
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if m.CoinGecko.Interval <= 0 {
		return errors.New("market.coingecko.interval must be > 0")
	}
	for i, coin := range m.CoinGecko.Coins {
		if coin.ID == "" || coin.Symbol == "" {
			return fmt.Errorf("market.coingecko.coins[%d] needs id and symbol", i)
		}
	}

	if m.Yahoo.Interval <= 0 {
		return errors.New("market.yahoo.interval must be > 0")
	}
	if m.Yahoo.Concurrency < 1 {
		return errors.New("market.yahoo.concurrency must be >= 1")
	}
	for i, t := range m.Yahoo.Tickers {
		if t.Symbol == "" || t.AssetType == "" {
			return fmt.Errorf("market.yahoo.tickers[%d] needs symbol and asset_type", i)
		}
	}

	if m.Binance.ReconnectBase <= 0 || m.Binance.ReconnectMax < m.Binance.ReconnectBase {
		return fmt.Errorf("market.binance reconnect delays invalid: base %v, max %v",
			m.Binance.ReconnectBase, m.Binance.ReconnectMax)
	}
	for i, p := range m.Binance.Pairs {
		if p.Pair == "" || p.Symbol == "" {
			return fmt.Errorf("market.binance.pairs[%d] needs pair and symbol", i)
		}
	}
	return nil
}

func (n *NewsConfig) validate() error {
	if n.Interval <= 0 {
		return errors.New("news.interval must be > 0")
	}
	if n.DedupMaxURLs < 1 {
		return errors.New("news.dedup_max_urls must be >= 1")
	}
	if n.Concurrency < 1 {
		return errors.New("news.concurrency must be >= 1")
	}
	if n.NewsAPI.RateLimit < 0 {
		return errors.New("news.newsapi.rate_limit must be >= 0")
	}
	for i, q := range n.NewsAPI.Queries {
		if q.Q == "" {
			return fmt.Errorf("news.newsapi.queries[%d].q is required", i)
		}
	}
	return nil
}
