// Package yahoo polls the Yahoo Finance chart API for stocks, indices, forex
// and commodities, one request per ticker.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/config"
	"github.com/rickgao/feeder/internal/model"
	"github.com/rickgao/feeder/internal/runner"
)

const (
	Name     = "yahoo_finance"
	Exchange = "yahoo"

	chartPath = "/v8/finance/chart/"
)

// errNoQuote means the chart carried no usable price.
var errNoQuote = errors.New("no quote")

// Config holds Yahoo source configuration.
type Config struct {
	Tickers     []config.Ticker
	Timeout     time.Duration // per ticker request
	Concurrency int
}

// Source fetches every configured ticker concurrently.
type Source struct {
	cfg    Config
	client *api.Client
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Yahoo source. The client should send a browser User-Agent.
func New(cfg Config, client *api.Client, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		cfg:    cfg,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Fetch returns one point per ticker that produced a quote. Failed tickers
// are logged and left out; the cycle only fails when no ticker succeeded.
func (s *Source) Fetch(ctx context.Context) (model.Batch, error) {
	ts := s.now()

	points, err := runner.FanOut(ctx, s.cfg.Concurrency, s.cfg.Tickers,
		func(ctx context.Context, t config.Ticker) (model.Point, error) {
			p, err := s.fetchTicker(ctx, t, ts)
			if api.IsRateLimited(err) {
				s.logger.Warn("rate limited", "ticker", t.Symbol)
			}
			return p, err
		})
	if err != nil {
		s.logger.Warn("some tickers failed", "error", err, "ok", len(points), "total", len(s.cfg.Tickers))
		if len(points) == 0 {
			return nil, fmt.Errorf("all %d tickers failed: %w", len(s.cfg.Tickers), err)
		}
	}
	return points, nil
}

func (s *Source) fetchTicker(ctx context.Context, t config.Ticker, ts time.Time) (model.Point, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("range", "2d")

	var resp chartResponse
	if err := s.client.GetJSON(ctx, chartPath+url.PathEscape(t.Symbol), query, &resp); err != nil {
		return model.Point{}, fmt.Errorf("%s: %w", t.Symbol, err)
	}

	fields, err := resp.fields()
	if err != nil {
		return model.Point{}, fmt.Errorf("%s: %w", t.Symbol, err)
	}

	name := t.Name
	if name == "" {
		name = t.Symbol
	}
	return model.NewPrice(name, Exchange, t.AssetType, fields, ts), nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		PreviousClose      float64 `json:"previousClose"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Volume []*float64 `json:"volume"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
		} `json:"quote"`
	} `json:"indicators"`
}

// fields extracts the price fields from the first chart result.
func (r chartResponse) fields() (map[string]any, error) {
	if len(r.Chart.Result) == 0 {
		return nil, errNoQuote
	}
	res := r.Chart.Result[0]

	last := res.Meta.RegularMarketPrice
	if last == 0 {
		return nil, errNoQuote
	}
	prev := res.Meta.ChartPreviousClose
	if prev == 0 {
		prev = res.Meta.PreviousClose
	}

	fields := map[string]any{
		"last":           last,
		"change_pct_24h": changePct(last, prev),
	}

	if len(res.Indicators.Quote) > 0 {
		q := res.Indicators.Quote[0]
		if v := lastValue(q.Volume); v > 0 {
			fields["volume_24h"] = v
		}
		if v := lastValue(q.High); v != 0 {
			fields["ask"] = v
		}
		if v := lastValue(q.Low); v != 0 {
			fields["bid"] = v
		}
	}
	return fields, nil
}

// changePct is the percent change from prev, rounded to 4 decimals.
func changePct(last, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return math.Round((last-prev)/prev*100*1e4) / 1e4
}

func lastValue(vals []*float64) float64 {
	if len(vals) == 0 || vals[len(vals)-1] == nil {
		return 0
	}
	return *vals[len(vals)-1]
}
