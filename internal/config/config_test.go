package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
log:
  level: debug
  format: json
sink:
  driver: timescale
  timescale:
    host: localhost
    port: 5433
    name: feeder
    user: feeder
    password: testpass
market:
  coingecko:
    interval: 30s
    coins:
      - id: bitcoin
        symbol: BTC
  yahoo:
    tickers:
      - symbol: ^GSPC
        name: SP500
        asset_type: index
news:
  sentiment_enabled: false
  newsapi:
    key: abc
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Sink.Timescale.Port != 5433 {
		t.Errorf("Sink.Timescale.Port = %d, want %d", cfg.Sink.Timescale.Port, 5433)
	}
	if cfg.Market.CoinGecko.Interval != 30*time.Second {
		t.Errorf("CoinGecko.Interval = %v, want %v", cfg.Market.CoinGecko.Interval, 30*time.Second)
	}
	if len(cfg.Market.Yahoo.Tickers) != 1 || cfg.Market.Yahoo.Tickers[0].Name != "SP500" {
		t.Errorf("Yahoo.Tickers = %+v, want one SP500 ticker", cfg.Market.Yahoo.Tickers)
	}
	if cfg.News.SentimentOn() {
		t.Error("SentimentOn() = true, want false")
	}
	if cfg.News.NewsAPI.Key != "abc" {
		t.Errorf("NewsAPI.Key = %q, want %q", cfg.News.NewsAPI.Key, "abc")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_BINANCE_KEY", "bkey")

	yaml := `
sink:
  timescale:
    host: localhost
    name: feeder
    user: feeder
    password: ${TEST_DB_PASSWORD}
market:
  binance:
    api_key: ${TEST_BINANCE_KEY}
news:
  cryptopanic:
    token: ${TEST_UNSET_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sink.Timescale.Password != "secret123" {
		t.Errorf("Timescale.Password = %q, want %q", cfg.Sink.Timescale.Password, "secret123")
	}
	if cfg.Market.Binance.APIKey != "bkey" {
		t.Errorf("Binance.APIKey = %q, want %q", cfg.Market.Binance.APIKey, "bkey")
	}
	if cfg.News.CryptoPanic.Token != "" {
		t.Errorf("CryptoPanic.Token = %q, want empty", cfg.News.CryptoPanic.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("sink: [unterminated")); err == nil {
		t.Error("Parse() expected error for invalid yaml")
	}
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("news:\n  intervall: 30s\n"))
	if err == nil {
		t.Fatal("Parse() expected error for misspelled key")
	}
	if !strings.Contains(err.Error(), "intervall") {
		t.Errorf("Parse() error = %q, want it to name the key", err)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) failed: %v", err)
	}
	if cfg.Sink.Driver != "" {
		t.Errorf("Sink.Driver = %q, want empty before defaults", cfg.Sink.Driver)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
sink:
  timescale:
    host: localhost
    name: feeder
    user: feeder
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Sink.Driver != DefaultSinkDriver {
		t.Errorf("Sink.Driver = %q, want default %q", cfg.Sink.Driver, DefaultSinkDriver)
	}
	if cfg.Sink.Timescale.Port != DefaultDBPort {
		t.Errorf("Timescale.Port = %d, want default %d", cfg.Sink.Timescale.Port, DefaultDBPort)
	}
	if cfg.Health.Port != DefaultHealthPort {
		t.Errorf("Health.Port = %d, want default %d", cfg.Health.Port, DefaultHealthPort)
	}
	if cfg.Shutdown.GracePeriod != 10*time.Second {
		t.Errorf("Shutdown.GracePeriod = %v, want %v", cfg.Shutdown.GracePeriod, 10*time.Second)
	}
	if cfg.Shutdown.CancelTimeout != 5*time.Second {
		t.Errorf("Shutdown.CancelTimeout = %v, want %v", cfg.Shutdown.CancelTimeout, 5*time.Second)
	}
	if cfg.Market.CoinGecko.Interval != 60*time.Second {
		t.Errorf("CoinGecko.Interval = %v, want %v", cfg.Market.CoinGecko.Interval, 60*time.Second)
	}
	if cfg.Market.Yahoo.Interval != 15*time.Second {
		t.Errorf("Yahoo.Interval = %v, want %v", cfg.Market.Yahoo.Interval, 15*time.Second)
	}
	if got := len(cfg.Market.Yahoo.Tickers); got != 9 {
		t.Errorf("len(Yahoo.Tickers) = %d, want 9", got)
	}
	if got := cfg.Market.Yahoo.Tickers[0].Name; got != "AAPL" {
		t.Errorf("Tickers[0].Name = %q, want %q", got, "AAPL")
	}
	if cfg.Market.Binance.ReconnectMax != 60*time.Second {
		t.Errorf("Binance.ReconnectMax = %v, want %v", cfg.Market.Binance.ReconnectMax, 60*time.Second)
	}
	if cfg.News.Interval != 120*time.Second {
		t.Errorf("News.Interval = %v, want %v", cfg.News.Interval, 120*time.Second)
	}
	if cfg.News.DedupMaxURLs != 10000 {
		t.Errorf("News.DedupMaxURLs = %d, want 10000", cfg.News.DedupMaxURLs)
	}
	if !cfg.News.SentimentOn() {
		t.Error("SentimentOn() = false, want true by default")
	}
	if got := len(cfg.News.NewsAPI.Queries); got != 3 {
		t.Errorf("len(NewsAPI.Queries) = %d, want 3", got)
	}
}

func TestLoadAndValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeTempFile(t, `
sink:
  timescale:
    host: localhost
    name: feeder
    user: feeder
`)
		if _, err := LoadAndValidate(path); err != nil {
			t.Errorf("LoadAndValidate() unexpected error: %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeTempFile(t, `
sink:
  driver: influx
`)
		if _, err := LoadAndValidate(path); err == nil {
			t.Error("LoadAndValidate() expected error for unknown driver")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Sink: SinkConfig{
				Timescale: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass"},
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: `log.level "loud" is not one of debug, info, warn, error`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: `log.format "xml" must be text or json`,
		},
		{
			name:    "health port out of range",
			mutate:  func(c *Config) { c.Health.Port = 70000 },
			wantErr: "health.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Sink.Driver = "influx" },
			wantErr: `sink.driver "influx" must be timescale or kafka`,
		},
		{
			name:    "missing timescale host",
			mutate:  func(c *Config) { c.Sink.Timescale.Host = "" },
			wantErr: "sink.timescale.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Sink.Timescale.MaxConns = 5
				c.Sink.Timescale.MinConns = 10
			},
			wantErr: "sink.timescale.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "kafka without brokers",
			mutate:  func(c *Config) { c.Sink.Driver = "kafka" },
			wantErr: "sink.kafka.brokers is required",
		},
		{
			name: "kafka ignores timescale block",
			mutate: func(c *Config) {
				c.Sink.Driver = "kafka"
				c.Sink.Kafka.Brokers = []string{"localhost:9092"}
				c.Sink.Timescale = DBConfig{}
			},
			wantErr: "",
		},
		{
			name: "kafka bad sasl",
			mutate: func(c *Config) {
				c.Sink.Driver = "kafka"
				c.Sink.Kafka.Brokers = []string{"localhost:9092"}
				c.Sink.Kafka.SASLMechanism = "GSSAPI"
			},
			wantErr: `sink.kafka.sasl_mechanism "GSSAPI" is not supported`,
		},
		{
			name:    "negative grace period",
			mutate:  func(c *Config) { c.Shutdown.GracePeriod = -time.Second },
			wantErr: "shutdown.grace_period must be >= 0",
		},
		{
			name:    "coin without symbol",
			mutate:  func(c *Config) { c.Market.CoinGecko.Coins = []Coin{{ID: "bitcoin"}} },
			wantErr: "market.coingecko.coins[0] needs id and symbol",
		},
		{
			name:    "ticker without asset type",
			mutate:  func(c *Config) { c.Market.Yahoo.Tickers = []Ticker{{Symbol: "AAPL"}} },
			wantErr: "market.yahoo.tickers[0] needs symbol and asset_type",
		},
		{
			name: "reconnect max below base",
			mutate: func(c *Config) {
				c.Market.Binance.ReconnectBase = 2 * time.Second
				c.Market.Binance.ReconnectMax = time.Second
			},
			wantErr: "market.binance reconnect delays invalid: base 2s, max 1s",
		},
		{
			name:    "dedup capacity zero",
			mutate:  func(c *Config) { c.News.DedupMaxURLs = -1 },
			wantErr: "news.dedup_max_urls must be >= 1",
		},
		{
			name:    "empty query",
			mutate:  func(c *Config) { c.News.NewsAPI.Queries = []Query{{DefaultAsset: "FOREX"}} },
			wantErr: "news.newsapi.queries[0].q is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestShippedConfigs(t *testing.T) {
	t.Setenv("TIMESCALE_HOST", "localhost")
	t.Setenv("TIMESCALE_USER", "feeder")
	t.Setenv("TIMESCALE_PASSWORD", "secret")

	for _, name := range []string{"market-feeder.yaml", "news-feeder.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadAndValidate(filepath.Join("..", "..", "configs", name))
			if err != nil {
				t.Fatalf("LoadAndValidate failed: %v", err)
			}
			if cfg.Sink.Timescale.Host != "localhost" {
				t.Errorf("Timescale.Host = %q, want localhost", cfg.Sink.Timescale.Host)
			}
		})
	}
}
