// Package newsapi polls the NewsAPI everything endpoint for a fixed set of
// market queries.
package newsapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/config"
	"github.com/rickgao/feeder/internal/model"
	"github.com/rickgao/feeder/internal/runner"
	"github.com/rickgao/feeder/internal/source"
)

const (
	Name = "newsapi"

	// KeyHeader carries the API key.
	KeyHeader = "X-Api-Key"

	everythingPath = "/v2/everything"
	unknownSource  = "unknown"
)

// Config holds NewsAPI source configuration.
type Config struct {
	Queries     []config.Query
	PageSize    int
	Timeout     time.Duration // per query request
	Concurrency int
}

// Source runs every query concurrently and drops any URL already seen.
type Source struct {
	cfg    Config
	client *api.Client
	dedup  *source.Deduper
	logger *slog.Logger
	now    func() time.Time
}

// New creates a NewsAPI source. The client should carry the key header and
// the provider rate limit.
func New(cfg Config, client *api.Client, dedup *source.Deduper, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = config.DefaultNewsAPIPageSize
	}
	return &Source{
		cfg:    cfg,
		client: client,
		dedup:  dedup,
		logger: logger,
		now:    time.Now,
	}
}

// Fetch returns one article point per new headline across all queries.
// A failed query is logged and skipped; the cycle fails only when all do.
func (s *Source) Fetch(ctx context.Context) (model.Batch, error) {
	results, err := runner.FanOut(ctx, s.cfg.Concurrency, s.cfg.Queries,
		func(ctx context.Context, q config.Query) ([]model.Article, error) {
			articles, err := s.fetchQuery(ctx, q)
			if api.IsRateLimited(err) {
				s.logger.Warn("rate limited", "query", q.Q)
			}
			return articles, err
		})
	if err != nil {
		s.logger.Warn("some queries failed", "error", err, "ok", len(results), "total", len(s.cfg.Queries))
		if len(results) == 0 {
			return nil, fmt.Errorf("all %d queries failed: %w", len(s.cfg.Queries), err)
		}
	}

	ts := s.now()
	var batch model.Batch
	for _, articles := range results {
		for _, a := range articles {
			if s.dedup.Admit(Name, a) {
				batch = append(batch, a.Point(ts))
			}
		}
	}
	return batch, nil
}

type everythingResponse struct {
	Articles []struct {
		Source *struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (s *Source) fetchQuery(ctx context.Context, q config.Query) ([]model.Article, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	query := url.Values{}
	query.Set("q", q.Q)
	query.Set("language", "en")
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", strconv.Itoa(s.cfg.PageSize))

	var resp everythingResponse
	if err := s.client.GetJSON(ctx, everythingPath, query, &resp); err != nil {
		return nil, fmt.Errorf("query %q: %w", q.Q, err)
	}

	articles := make([]model.Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		publisher := unknownSource
		if item.Source != nil && item.Source.Name != "" {
			publisher = item.Source.Name
		}
		title := strings.TrimSpace(item.Title)
		articles = append(articles, model.Article{
			Title:        title,
			URL:          item.URL,
			Source:       publisher,
			RelatedAsset: source.DetectAsset(title, source.MarketKeywords, q.DefaultAsset),
			Published:    item.PublishedAt,
		})
	}
	return articles, nil
}
