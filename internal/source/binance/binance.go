// Package binance streams 24 hour ticker events from the Binance websocket
// API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/feeder/internal/config"
	"github.com/rickgao/feeder/internal/connection"
	"github.com/rickgao/feeder/internal/model"
	"github.com/rickgao/feeder/internal/runner"
)

const (
	Name      = "binance_ws"
	Exchange  = "binance"
	AssetType = "crypto"

	tickerEvent = "24hrTicker"
)

// Config holds Binance stream configuration.
type Config struct {
	URL              string // base endpoint, streams are appended as path segments
	Pairs            []config.Pair
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
}

// Source dials the combined ticker stream and parses its events.
type Source struct {
	cfg     Config
	symbols map[string]string // pair -> written symbol
	logger  *slog.Logger

	newClient func(connection.ClientConfig, *slog.Logger) connection.Client
}

// New creates a Binance source.
func New(cfg Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	symbols := make(map[string]string, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		symbols[strings.ToUpper(p.Pair)] = p.Symbol
	}
	return &Source{
		cfg:       cfg,
		symbols:   symbols,
		logger:    logger,
		newClient: connection.NewClient,
	}
}

// StreamURL returns the endpoint subscribing to every configured pair,
// e.g. wss://stream.binance.com:9443/ws/btcusdt@ticker/ethusdt@ticker.
func (s *Source) StreamURL() string {
	streams := make([]string, len(s.cfg.Pairs))
	for i, p := range s.cfg.Pairs {
		streams[i] = strings.ToLower(p.Pair) + "@ticker"
	}
	return strings.TrimRight(s.cfg.URL, "/") + "/" + strings.Join(streams, "/")
}

// Dial opens a new websocket connection. A fresh client is used per attempt.
func (s *Source) Dial(ctx context.Context) (runner.Stream, error) {
	client := s.newClient(connection.ClientConfig{
		URL:              s.StreamURL(),
		HandshakeTimeout: s.cfg.HandshakeTimeout,
		ReadTimeout:      s.cfg.ReadTimeout,
	}, s.logger)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// tickerMessage is a 24hr ticker event. Binance sends numbers as strings.
type tickerMessage struct {
	Event     string `json:"e"`
	Symbol    string `json:"s"`
	Last      string `json:"c"`
	Bid       string `json:"b"`
	Ask       string `json:"a"`
	Volume    string `json:"v"`
	ChangePct string `json:"P"`
}

// Parse converts one ticker event into a price point stamped with the
// receive time. Events for unknown pairs and non-ticker frames are skipped.
func (s *Source) Parse(msg connection.Message) (model.Point, error) {
	var m tickerMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		return model.Point{}, &runner.ParseError{Source: Name, Err: err}
	}
	if m.Event != "" && m.Event != tickerEvent {
		return model.Point{}, runner.ErrSkip
	}
	symbol, ok := s.symbols[m.Symbol]
	if !ok {
		return model.Point{}, runner.ErrSkip
	}

	fields := make(map[string]any, 5)
	for _, f := range []struct {
		name string
		raw  string
	}{
		{"last", m.Last},
		{"bid", m.Bid},
		{"ask", m.Ask},
		{"volume_24h", m.Volume},
		{"change_pct_24h", m.ChangePct},
	} {
		v, err := number(f.raw)
		if err != nil {
			return model.Point{}, &runner.ParseError{Source: Name, Err: fmt.Errorf("%s: %w", f.name, err)}
		}
		fields[f.name] = v
	}

	ts := msg.ReceivedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return model.NewPrice(symbol, Exchange, AssetType, fields, ts), nil
}

// number parses a decimal string; missing values are 0.
func number(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
