// Package coingecko polls the CoinGecko simple price endpoint for crypto
// spot prices.
package coingecko

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/config"
	"github.com/rickgao/feeder/internal/model"
)

const (
	Name      = "coingecko"
	Exchange  = "coingecko"
	AssetType = "crypto"

	// APIKeyHeader carries the optional demo key.
	APIKeyHeader = "x-cg-demo-api-key"

	pricePath = "/api/v3/simple/price"
)

// Source fetches one price point per configured coin in a single request.
type Source struct {
	client *api.Client
	coins  []config.Coin
	logger *slog.Logger
	now    func() time.Time
}

// New creates a CoinGecko source. The client should carry the API key
// header when one is configured.
func New(client *api.Client, coins []config.Coin, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		client: client,
		coins:  coins,
		logger: logger,
		now:    time.Now,
	}
}

// priceResponse maps coin id to quote fields. Missing quotes decode as nil.
type priceResponse map[string]map[string]*float64

// Fetch requests all coins at once and returns their points in configured order.
func (s *Source) Fetch(ctx context.Context) (model.Batch, error) {
	ids := make([]string, len(s.coins))
	for i, c := range s.coins {
		ids[i] = c.ID
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_vol", "true")
	query.Set("include_24hr_change", "true")
	query.Set("include_market_cap", "true")

	var resp priceResponse
	if err := s.client.GetJSON(ctx, pricePath, query, &resp); err != nil {
		return nil, fmt.Errorf("get simple price: %w", err)
	}

	return s.toBatch(resp, s.now()), nil
}

func (s *Source) toBatch(resp priceResponse, ts time.Time) model.Batch {
	batch := make(model.Batch, 0, len(s.coins))
	for _, coin := range s.coins {
		quote, ok := resp[coin.ID]
		if !ok || quote["usd"] == nil {
			s.logger.Debug("no quote for coin", "coin", coin.ID)
			continue
		}
		batch = append(batch, model.NewPrice(coin.Symbol, Exchange, AssetType, map[string]any{
			"last":           value(quote, "usd"),
			"volume_24h":     value(quote, "usd_24h_vol"),
			"change_pct_24h": value(quote, "usd_24h_change"),
			"market_cap":     value(quote, "usd_market_cap"),
		}, ts))
	}
	return batch
}

func value(quote map[string]*float64, key string) float64 {
	if v := quote[key]; v != nil {
		return *v
	}
	return 0
}
