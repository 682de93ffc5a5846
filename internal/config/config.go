package config

import "time"

// Config is the root configuration shared by market-feeder and news-feeder.
// Each binary reads the sections it needs; the rest keep their defaults.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Health   HealthConfig   `yaml:"health"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Sink     SinkConfig     `yaml:"sink"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
	Market   MarketConfig   `yaml:"market"`
	News     NewsConfig     `yaml:"news"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// HealthConfig holds the /health and /metrics listener settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// SinkConfig selects and configures the time-series sink.
type SinkConfig struct {
	Driver       string        `yaml:"driver"` // timescale or kafka
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Table        string        `yaml:"table"`
	Timescale    DBConfig      `yaml:"timescale"`
	Kafka        KafkaConfig   `yaml:"kafka"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// KafkaConfig holds the Kafka sink connection.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	SASLMechanism string   `yaml:"sasl_mechanism"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	TLS           bool     `yaml:"tls"`
}

// ShutdownConfig bounds the two shutdown phases.
type ShutdownConfig struct {
	GracePeriod   time.Duration `yaml:"grace_period"`   // wait for runners to observe stop
	CancelTimeout time.Duration `yaml:"cancel_timeout"` // wait after forced cancellation
}

// MarketConfig holds the price sources.
type MarketConfig struct {
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	Yahoo     YahooConfig     `yaml:"yahoo"`
	Binance   BinanceConfig   `yaml:"binance"`
}

// Coin maps a CoinGecko id to the symbol written to the sink.
type Coin struct {
	ID     string `yaml:"id"`
	Symbol string `yaml:"symbol"`
}

// CoinGeckoConfig configures the CoinGecko simple price poller.
type CoinGeckoConfig struct {
	Disabled bool          `yaml:"disabled"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"` // optional demo key
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Coins    []Coin        `yaml:"coins"`
}

// Ticker is one Yahoo Finance chart symbol.
type Ticker struct {
	Symbol    string `yaml:"symbol"`     // provider symbol, e.g. ^GSPC
	Name      string `yaml:"name"`       // written symbol, e.g. SP500; defaults to Symbol
	AssetType string `yaml:"asset_type"` // stock, index, forex, commodity
}

// YahooConfig configures the Yahoo Finance chart poller.
type YahooConfig struct {
	Disabled    bool          `yaml:"disabled"`
	BaseURL     string        `yaml:"base_url"`
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"` // per ticker request
	Concurrency int           `yaml:"concurrency"`
	UserAgent   string        `yaml:"user_agent"`
	Tickers     []Ticker      `yaml:"tickers"`
}

// Pair maps a Binance trading pair to the symbol written to the sink.
type Pair struct {
	Pair   string `yaml:"pair"` // e.g. BTCUSDT
	Symbol string `yaml:"symbol"`
}

// BinanceConfig configures the Binance ticker stream. The stream only runs
// when APIKey is set.
type BinanceConfig struct {
	APIKey           string        `yaml:"api_key"`
	URL              string        `yaml:"url"`
	Pairs            []Pair        `yaml:"pairs"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	ReconnectBase    time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMax     time.Duration `yaml:"reconnect_max_delay"`
}

// NewsConfig holds the article sources and their shared dedup state.
type NewsConfig struct {
	Interval         time.Duration     `yaml:"interval"`
	DedupMaxURLs     int               `yaml:"dedup_max_urls"`
	SentimentEnabled *bool             `yaml:"sentiment_enabled"`
	Concurrency      int               `yaml:"concurrency"`
	CryptoPanic      CryptoPanicConfig `yaml:"cryptopanic"`
	NewsAPI          NewsAPIConfig     `yaml:"newsapi"`
}

// SentimentOn reports whether article scoring is enabled. Unset means on.
func (n NewsConfig) SentimentOn() bool {
	return n.SentimentEnabled == nil || *n.SentimentEnabled
}

// CryptoPanicConfig configures the CryptoPanic poller. Without a token the
// public RSS feed is read instead of the API.
type CryptoPanicConfig struct {
	Disabled bool          `yaml:"disabled"`
	Token    string        `yaml:"token"`
	RSSURL   string        `yaml:"rss_url"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Query is one NewsAPI search with the asset used when no keyword matches.
type Query struct {
	Q            string `yaml:"q"`
	DefaultAsset string `yaml:"default_asset"`
}

// NewsAPIConfig configures the NewsAPI poller. It only runs when Key is set.
type NewsAPIConfig struct {
	Key       string        `yaml:"key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	PageSize  int           `yaml:"page_size"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second
	Queries   []Query       `yaml:"queries"`
}
