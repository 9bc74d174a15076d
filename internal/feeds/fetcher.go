package feeds

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"vigil.fyi/riskradar/internal/globaltime"
)

const (
	defaultFetchTimeout  = 10 * time.Second
	defaultItemLimit     = 25
	defaultUserAgent     = "riskradar/1.0 (+https://vigil.fyi/riskradar)"
	untitledPlaceholder  = "Untitled"
	maxSummaryRuneLength = 2000
)

// Item is a normalized feed entry.
type Item struct {
	Title       string
	Description string
	Link        string
	PublishedAt time.Time
}

// Fetcher retrieves and normalizes one feed at a time. A fetch failure is a
// per-source outcome; callers accumulate errors and keep going.
type Fetcher struct {
	parser    *gofeed.Parser
	timeout   time.Duration
	itemLimit int
}

type FetcherOptions struct {
	Timeout   time.Duration
	ItemLimit int
	UserAgent string
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	itemLimit := opts.ItemLimit
	if itemLimit <= 0 {
		itemLimit = defaultItemLimit
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	return &Fetcher{
		parser:    parser,
		timeout:   timeout,
		itemLimit: itemLimit,
	}
}

// Fetch retrieves one feed and returns up to the configured number of most
// recent normalized items, newest first.
func (f *Fetcher) Fetch(ctx context.Context, source Source) ([]Item, error) {
	if f == nil || f.parser == nil {
		return nil, fmt.Errorf("fetcher is not initialized")
	}
	if strings.TrimSpace(source.URL) == "" {
		return nil, fmt.Errorf("feed source %q has no URL", source.Name)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(source.URL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %q: %w", source.Name, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		items = append(items, normalizeEntry(entry))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > f.itemLimit {
		items = items[:f.itemLimit]
	}
	return items, nil
}

func normalizeEntry(entry *gofeed.Item) Item {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = untitledPlaceholder
	}

	description := strings.TrimSpace(entry.Description)
	if description == "" {
		description = strings.TrimSpace(entry.Content)
	}
	if description == "" {
		description = title
	}
	description = truncateRunes(description, maxSummaryRuneLength)

	publishedAt := globaltime.UTC()
	if entry.PublishedParsed != nil && !entry.PublishedParsed.IsZero() {
		publishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil && !entry.UpdatedParsed.IsZero() {
		publishedAt = entry.UpdatedParsed.UTC()
	}

	return Item{
		Title:       title,
		Description: description,
		Link:        strings.TrimSpace(entry.Link),
		PublishedAt: publishedAt,
	}
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
