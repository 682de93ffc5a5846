package cryptopanic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/feeder/internal/api"
	"github.com/rickgao/feeder/internal/dedup"
	"github.com/rickgao/feeder/internal/source"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>CryptoPanic</title>
  <item>
    <title> Bitcoin ETF inflows hit record </title>
    <link>https://cryptopanic.com/news/1/bitcoin-etf</link>
    <pubDate>Mon, 02 Mar 2026 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Regulators weigh stablecoin rules</title>
    <link>https://cryptopanic.com/news/2/stablecoin</link>
    <pubDate>Mon, 02 Mar 2026 09:00:00 +0000</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://cryptopanic.com/news/3/untitled</link>
  </item>
</channel>
</rss>`

var fixedTime = time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)

func newRSSSource(t *testing.T, set *dedup.Set, dupes *int) (*Source, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news/rss/" {
			t.Errorf("path = %q, want /news/rss/", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != FeedAccept {
			t.Errorf("Accept = %q, want %q", got, FeedAccept)
		}
		if got := r.Header.Get("User-Agent"); got != "news-feeder/test" {
			t.Errorf("User-Agent = %q, want news-feeder/test", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssBody))
	}))
	rss := api.NewClient(server.URL+"/news/rss/",
		api.WithHeader("Accept", FeedAccept),
		api.WithHeader("User-Agent", "news-feeder/test"))
	d := source.NewDeduper(set, func(string) { *dupes++ })
	src := New(Config{}, nil, rss, d, nil)
	src.now = func() time.Time { return fixedTime }
	return src, server
}

func TestFetchRSS(t *testing.T) {
	var dupes int
	src, server := newRSSSource(t, dedup.New(100), &dupes)
	defer server.Close()

	if src.Mode() != ModeRSS {
		t.Fatalf("Mode() = %q, want %q", src.Mode(), ModeRSS)
	}

	batch, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}

	first := batch[0]
	if first.Measurement != "article" {
		t.Errorf("Measurement = %q, want article", first.Measurement)
	}
	if first.Fields["title"] != "Bitcoin ETF inflows hit record" {
		t.Errorf("title = %q, want trimmed title", first.Fields["title"])
	}
	if first.Tags["related_asset"] != "BTC" || first.Tags["source"] != "cryptopanic" {
		t.Errorf("tags = %v", first.Tags)
	}
	if batch[1].Tags["related_asset"] != "CRYPTO" {
		t.Errorf("related_asset = %q, want CRYPTO", batch[1].Tags["related_asset"])
	}
	if !first.Timestamp.Equal(fixedTime) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, fixedTime)
	}
}

func TestFetchRSSIdempotent(t *testing.T) {
	var dupes int
	src, server := newRSSSource(t, dedup.New(100), &dupes)
	defer server.Close()

	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("first Fetch failed: %v", err)
	}
	batch, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("len(batch) = %d on repeat fetch, want 0", len(batch))
	}
	if dupes != 3 {
		t.Errorf("dupes = %d, want 3", dupes)
	}
}

func TestFetchRSSError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src := New(Config{}, nil, api.NewClient(server.URL), source.NewDeduper(dedup.New(10), nil), nil)
	_, err := src.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() expected error on 502")
	}
	if !strings.Contains(err.Error(), "get rss: api error 502") {
		t.Errorf("Fetch() error = %q, want get rss: api error 502", err)
	}
}

func TestFetchRSSMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html"))
	}))
	defer server.Close()

	src := New(Config{}, nil, api.NewClient(server.URL), source.NewDeduper(dedup.New(10), nil), nil)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("Fetch() expected error on a body that is not a feed")
	}
}

func TestFetchAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/posts/" {
			t.Errorf("path = %q, want /api/v1/posts/", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("auth_token") != "tok" || q.Get("kind") != "news" || q.Get("filter") != "important" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"results":[
			{"title":"Solana outage resolved","url":"https://x.com/a","published_at":"2026-03-02T10:00:00Z","currencies":[{"code":"SOL"},{"code":"BTC"}]},
			{"title":"Market wrap","url":"https://x.com/b","published_at":"2026-03-02T09:00:00Z"},
			{"title":"Market wrap","url":"https://x.com/a"}
		]}`))
	}))
	defer server.Close()

	d := source.NewDeduper(dedup.New(100), nil)
	src := New(Config{Token: "tok"}, api.NewClient(server.URL), nil, d, nil)

	if src.Mode() != ModeAPI {
		t.Fatalf("Mode() = %q, want %q", src.Mode(), ModeAPI)
	}

	batch, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}
	if batch[0].Tags["related_asset"] != "SOL" {
		t.Errorf("related_asset = %q, want SOL", batch[0].Tags["related_asset"])
	}
	if batch[1].Tags["related_asset"] != "CRYPTO" {
		t.Errorf("related_asset = %q, want CRYPTO", batch[1].Tags["related_asset"])
	}
	if batch[0].Fields["published"] != "2026-03-02T10:00:00Z" {
		t.Errorf("published = %v", batch[0].Fields["published"])
	}
}
