package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// maxEntriesPerFeed caps how many entries of a single feed are considered
// per run; feeds are ordered newest-first, the tail is stale anyway.
const maxEntriesPerFeed = 15

type Parser struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
}

func NewParser(httpClient *http.Client, userAgent string, timeout time.Duration) *Parser {
	return &Parser{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

// Fetch downloads and parses a feed URL into intake entries. Entries without
// a title, a link, or a publish timestamp are dropped here; age and blacklist
// policy stay with the caller.
func (p *Parser) Fetch(ctx context.Context, url string) ([]Entry, error) {
	data, err := p.fetchFeed(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > maxEntriesPerFeed {
		items = items[:maxEntriesPerFeed]
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entry, ok := p.normalizeItem(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) (Entry, bool) {
	title := strings.TrimSpace(item.Title)

	link := item.Link
	if i := strings.Index(link, "?"); i >= 0 {
		link = link[:i]
	}

	if title == "" || link == "" {
		return Entry{}, false
	}

	// Publish timestamp comes from feed metadata only; an entry without one
	// is skipped rather than defaulted to the current time.
	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	default:
		slog.Debug("Entry has no publish date, skipping", "title", title)
		return Entry{}, false
	}

	return Entry{
		Title:     title,
		Link:      link,
		Published: published,
	}, true
}

func (p *Parser) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
