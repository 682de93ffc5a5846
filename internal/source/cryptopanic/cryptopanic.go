// Package cryptopanic polls CryptoPanic headlines, from the public RSS feed
// or, when a token is configured, from the posts API.
package cryptopanic

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/model"
	"github.com/rickgao/feeder/internal/source"
)

const (
	Name = "cryptopanic"

	// FeedAccept is the Accept header for RSS requests.
	FeedAccept = "application/rss+xml, application/xml;q=0.9, */*;q=0.8"

	postsPath    = "/api/v1/posts/"
	defaultAsset = "CRYPTO"
)

// Mode selects where headlines are read from.
type Mode string

const (
	ModeRSS Mode = "rss"
	ModeAPI Mode = "api"
)

// Config holds CryptoPanic source configuration.
type Config struct {
	Token string // enables API mode
}

// Source fetches new headlines and drops any URL already seen.
type Source struct {
	cfg    Config
	client *api.Client // posts API
	rss    *api.Client // feed URL as base
	feed   *gofeed.Parser
	dedup  *source.Deduper
	logger *slog.Logger
	now    func() time.Time
}

// New creates a CryptoPanic source. client serves API mode and rss, whose
// base URL is the feed itself, serves RSS mode.
func New(cfg Config, client, rss *api.Client, dedup *source.Deduper, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		cfg:    cfg,
		client: client,
		rss:    rss,
		feed:   gofeed.NewParser(),
		dedup:  dedup,
		logger: logger,
		now:    time.Now,
	}
}

// Mode reports which endpoint Fetch reads.
func (s *Source) Mode() Mode {
	if s.cfg.Token != "" {
		return ModeAPI
	}
	return ModeRSS
}

// Fetch returns one article point per new headline.
func (s *Source) Fetch(ctx context.Context) (model.Batch, error) {
	var (
		articles []model.Article
		err      error
	)
	if s.Mode() == ModeAPI {
		articles, err = s.fetchAPI(ctx)
	} else {
		articles, err = s.fetchRSS(ctx)
	}
	if err != nil {
		return nil, err
	}

	ts := s.now()
	batch := make(model.Batch, 0, len(articles))
	for _, a := range articles {
		if s.dedup.Admit(Name, a) {
			batch = append(batch, a.Point(ts))
		}
	}
	return batch, nil
}

func (s *Source) fetchRSS(ctx context.Context) ([]model.Article, error) {
	body, err := s.rss.GetRaw(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("get rss: %w", err)
	}
	feed, err := s.feed.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	articles := make([]model.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		articles = append(articles, model.Article{
			Title:        title,
			URL:          item.Link,
			Source:       Name,
			RelatedAsset: source.DetectAsset(title, source.CryptoKeywords, defaultAsset),
			Published:    item.Published,
		})
	}
	return articles, nil
}

type postsResponse struct {
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"published_at"`
		Currencies  []struct {
			Code string `json:"code"`
		} `json:"currencies"`
	} `json:"results"`
}

func (s *Source) fetchAPI(ctx context.Context) ([]model.Article, error) {
	query := url.Values{}
	query.Set("auth_token", s.cfg.Token)
	query.Set("kind", "news")
	query.Set("filter", "important")

	var resp postsResponse
	if err := s.client.GetJSON(ctx, postsPath, query, &resp); err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}

	articles := make([]model.Article, 0, len(resp.Results))
	for _, post := range resp.Results {
		related := defaultAsset
		if len(post.Currencies) > 0 && post.Currencies[0].Code != "" {
			related = post.Currencies[0].Code
		}
		articles = append(articles, model.Article{
			Title:        strings.TrimSpace(post.Title),
			URL:          post.URL,
			Source:       Name,
			RelatedAsset: related,
			Published:    post.PublishedAt,
		})
	}
	return articles, nil
}
