package config

import (
	"time"

	"github.com/rickgao/feeder/internal/logging"
	"github.com/rickgao/feeder/internal/tracing"
)

// Default values for optional configuration fields.
const (
	DefaultLogLevel         = "info"
	DefaultLogFormat        = logging.FormatText
	DefaultHealthPort       = 8080
	DefaultSinkDriver       = "timescale"
	DefaultWriteTimeout     = 10 * time.Second
	DefaultTable            = "points"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultKafkaTopic       = "feeder.points"
	DefaultGracePeriod      = 10 * time.Second
	DefaultCancelTimeout    = 5 * time.Second
	DefaultRequestTimeout   = 10 * time.Second
	DefaultCoinGeckoURL     = "https://api.coingecko.com"
	DefaultCoinGeckoPoll    = 60 * time.Second
	DefaultYahooURL         = "https://query1.finance.yahoo.com"
	DefaultYahooPoll        = 15 * time.Second
	DefaultYahooConcurrency = 8
	DefaultUserAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	DefaultBinanceURL       = "wss://stream.binance.com:9443/ws"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadTimeout      = 5 * time.Minute
	DefaultReconnectBase    = 1 * time.Second
	DefaultReconnectMax     = 60 * time.Second
	DefaultNewsPoll         = 120 * time.Second
	DefaultDedupMaxURLs     = 10000
	DefaultNewsConcurrency  = 3
	DefaultCryptoPanicRSS   = "https://cryptopanic.com/news/rss/"
	DefaultCryptoPanicURL   = "https://cryptopanic.com"
	DefaultNewsTimeout      = 15 * time.Second
	DefaultNewsAPIURL       = "https://newsapi.org"
	DefaultNewsAPIPageSize  = 20
	DefaultNewsAPIRateLimit = 1.0
)

// DefaultCoins are the CoinGecko ids polled when none are configured.
func DefaultCoins() []Coin {
	return []Coin{
		{ID: "bitcoin", Symbol: "BTC"},
		{ID: "ethereum", Symbol: "ETH"},
		{ID: "solana", Symbol: "SOL"},
		{ID: "binancecoin", Symbol: "BNB"},
		{ID: "ripple", Symbol: "XRP"},
	}
}

// DefaultTickers are the Yahoo chart symbols polled when none are configured.
func DefaultTickers() []Ticker {
	return []Ticker{
		{Symbol: "AAPL", AssetType: "stock"},
		{Symbol: "MSFT", AssetType: "stock"},
		{Symbol: "TSLA", AssetType: "stock"},
		{Symbol: "^GSPC", Name: "SP500", AssetType: "index"},
		{Symbol: "^IXIC", Name: "NASDAQ", AssetType: "index"},
		{Symbol: "EURUSD=X", Name: "EURUSD", AssetType: "forex"},
		{Symbol: "GBPUSD=X", Name: "GBPUSD", AssetType: "forex"},
		{Symbol: "GC=F", Name: "GOLD", AssetType: "commodity"},
		{Symbol: "CL=F", Name: "CRUDE_OIL", AssetType: "commodity"},
	}
}

// DefaultPairs are the Binance pairs streamed when none are configured.
func DefaultPairs() []Pair {
	return []Pair{
		{Pair: "BTCUSDT", Symbol: "BTC"},
		{Pair: "ETHUSDT", Symbol: "ETH"},
		{Pair: "SOLUSDT", Symbol: "SOL"},
		{Pair: "BNBUSDT", Symbol: "BNB"},
		{Pair: "XRPUSDT", Symbol: "XRP"},
	}
}

// DefaultQueries are the NewsAPI searches run when none are configured.
func DefaultQueries() []Query {
	return []Query{
		{Q: "bitcoin OR ethereum OR crypto", DefaultAsset: "CRYPTO"},
		{Q: "stock market OR S&P 500 OR nasdaq", DefaultAsset: "STOCKS"},
		{Q: "forex OR dollar OR euro", DefaultAsset: "FOREX"},
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracing.DefaultEndpoint
	}

	// Sink defaults
	if c.Sink.Driver == "" {
		c.Sink.Driver = DefaultSinkDriver
	}
	if c.Sink.WriteTimeout == 0 {
		c.Sink.WriteTimeout = DefaultWriteTimeout
	}
	if c.Sink.Table == "" {
		c.Sink.Table = DefaultTable
	}
	applyDBDefaults(&c.Sink.Timescale)
	if c.Sink.Kafka.Topic == "" {
		c.Sink.Kafka.Topic = DefaultKafkaTopic
	}

	if c.Shutdown.GracePeriod == 0 {
		c.Shutdown.GracePeriod = DefaultGracePeriod
	}
	if c.Shutdown.CancelTimeout == 0 {
		c.Shutdown.CancelTimeout = DefaultCancelTimeout
	}

	c.Market.applyDefaults()
	c.News.applyDefaults()
}

func (m *MarketConfig) applyDefaults() {
	cg := &m.CoinGecko
	if cg.BaseURL == "" {
		cg.BaseURL = DefaultCoinGeckoURL
	}
	if cg.Interval == 0 {
		cg.Interval = DefaultCoinGeckoPoll
	}
	if cg.Timeout == 0 {
		cg.Timeout = DefaultRequestTimeout
	}
	if len(cg.Coins) == 0 {
		cg.Coins = DefaultCoins()
	}

	y := &m.Yahoo
	if y.BaseURL == "" {
		y.BaseURL = DefaultYahooURL
	}
	if y.Interval == 0 {
		y.Interval = DefaultYahooPoll
	}
	if y.Timeout == 0 {
		y.Timeout = DefaultRequestTimeout
	}
	if y.Concurrency == 0 {
		y.Concurrency = DefaultYahooConcurrency
	}
	if y.UserAgent == "" {
		y.UserAgent = DefaultUserAgent
	}
	if len(y.Tickers) == 0 {
		y.Tickers = DefaultTickers()
	}
	for i := range y.Tickers {
		if y.Tickers[i].Name == "" {
			y.Tickers[i].Name = y.Tickers[i].Symbol
		}
	}

	b := &m.Binance
	if b.URL == "" {
		b.URL = DefaultBinanceURL
	}
	if len(b.Pairs) == 0 {
		b.Pairs = DefaultPairs()
	}
	if b.HandshakeTimeout == 0 {
		b.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if b.ReadTimeout == 0 {
		b.ReadTimeout = DefaultReadTimeout
	}
	if b.ReconnectBase == 0 {
		b.ReconnectBase = DefaultReconnectBase
	}
	if b.ReconnectMax == 0 {
		b.ReconnectMax = DefaultReconnectMax
	}
}

func (n *NewsConfig) applyDefaults() {
	if n.Interval == 0 {
		n.Interval = DefaultNewsPoll
	}
	if n.DedupMaxURLs == 0 {
		n.DedupMaxURLs = DefaultDedupMaxURLs
	}
	if n.Concurrency == 0 {
		n.Concurrency = DefaultNewsConcurrency
	}

	cp := &n.CryptoPanic
	if cp.RSSURL == "" {
		cp.RSSURL = DefaultCryptoPanicRSS
	}
	if cp.BaseURL == "" {
		cp.BaseURL = DefaultCryptoPanicURL
	}
	if cp.Timeout == 0 {
		cp.Timeout = DefaultNewsTimeout
	}

	na := &n.NewsAPI
	if na.BaseURL == "" {
		na.BaseURL = DefaultNewsAPIURL
	}
	if na.Timeout == 0 {
		na.Timeout = DefaultNewsTimeout
	}
	if na.PageSize == 0 {
		na.PageSize = DefaultNewsAPIPageSize
	}
	if na.RateLimit == 0 {
		na.RateLimit = DefaultNewsAPIRateLimit
	}
	if len(na.Queries) == 0 {
		na.Queries = DefaultQueries()
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
