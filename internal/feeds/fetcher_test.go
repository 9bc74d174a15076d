package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func rssDocument(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Feed</title>
<link>https://feed.example</link>
<description>test</description>
` + items + `
</channel>
</rss>`
}

func serveRSS(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchNormalizesItems(t *testing.T) {
	t.Parallel()

	body := rssDocument(`
<item>
  <title>Central bank raises interest rate</title>
  <description>Policy rate up 50 basis points</description>
  <link>https://feed.example/rates</link>
  <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
</item>
<item>
  <title></title>
  <link>https://feed.example/untitled</link>
  <pubDate>Sun, 23 Aug 2026 10:00:00 GMT</pubDate>
</item>
`)
	server := serveRSS(t, body)

	fetcher := NewFetcher(FetcherOptions{})
	items, err := fetcher.Fetch(context.Background(), Source{Name: "test", URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Fetch returned %d items, want 2", len(items))
	}

	// Newest first.
	if items[0].Title != "Central bank raises interest rate" {
		t.Fatalf("items[0].Title = %q, want the newer item first", items[0].Title)
	}
	if items[0].Description != "Policy rate up 50 basis points" {
		t.Fatalf("items[0].Description = %q", items[0].Description)
	}
	if items[0].PublishedAt.IsZero() {
		t.Fatal("items[0].PublishedAt is zero")
	}

	// Empty title gets the placeholder, and the description falls back to it.
	if items[1].Title != "Untitled" {
		t.Fatalf("items[1].Title = %q, want Untitled", items[1].Title)
	}
	if items[1].Description != "Untitled" {
		t.Fatalf("items[1].Description = %q, want title fallback", items[1].Description)
	}
}

func TestFetchCapsItemCount(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, `
<item>
  <title>Item %d</title>
  <link>https://feed.example/%d</link>
  <pubDate>Mon, %02d Aug 2026 10:00:00 GMT</pubDate>
</item>`, i, i, i+1)
	}
	server := serveRSS(t, rssDocument(b.String()))

	fetcher := NewFetcher(FetcherOptions{ItemLimit: 3})
	items, err := fetcher.Fetch(context.Background(), Source{Name: "test", URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Fetch returned %d items, want 3", len(items))
	}
	if items[0].Title != "Item 9" {
		t.Fatalf("items[0].Title = %q, want the most recent item", items[0].Title)
	}
}

func TestFetchMissingDateFallsBackToNow(t *testing.T) {
	t.Parallel()

	body := rssDocument(`
<item>
  <title>No date item</title>
  <link>https://feed.example/nodate</link>
</item>
`)
	server := serveRSS(t, body)

	before := time.Now().UTC().Add(-time.Minute)
	fetcher := NewFetcher(FetcherOptions{})
	items, err := fetcher.Fetch(context.Background(), Source{Name: "test", URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Fetch returned %d items, want 1", len(items))
	}
	if items[0].PublishedAt.Before(before) {
		t.Fatalf("PublishedAt = %v, want a recent fallback timestamp", items[0].PublishedAt)
	}
}

func TestFetchErrorsArePerSource(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(FetcherOptions{})
	if _, err := fetcher.Fetch(context.Background(), Source{Name: "broken", URL: server.URL}); err == nil {
		t.Fatal("Fetch succeeded against a 500 response")
	}

	if _, err := fetcher.Fetch(context.Background(), Source{Name: "empty"}); err == nil {
		t.Fatal("Fetch succeeded with an empty URL")
	}
}

func TestTruncateRunesKeepsShortText(t *testing.T) {
	t.Parallel()

	if got := truncateRunes("short", 10); got != "short" {
		t.Fatalf("truncateRunes = %q", got)
	}
	long := strings.Repeat("ä", 30)
	if got := truncateRunes(long, 10); len([]rune(got)) != 10 {
		t.Fatalf("truncateRunes kept %d runes, want 10", len([]rune(got)))
	}
}
