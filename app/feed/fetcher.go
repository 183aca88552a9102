package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// FetchError is a recoverable, per-source fetch failure: timeout, non-2xx
// status, DNS or connection error. It never aborts an ingestion cycle.
type FetchError struct {
	SourceName string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed for source %s: HTTP %d", e.SourceName, e.StatusCode)
	}
	return fmt.Sprintf("fetch failed for source %s: %v", e.SourceName, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves raw feed items over HTTP with conditional-fetch
// headers. RSS, Atom, and JSON Feed syntaxes go through gofeed; the "api"
// type expects a JSON array (or single object) of items.
type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

// Fetch retrieves the feed at url and returns its raw items. A 304 from the
// conditional GET short-circuits to an empty item list without error. All
// transport failures come back as *FetchError; no transport-library error
// ever reaches the caller directly.
func (f *Fetcher) Fetch(ctx context.Context, sourceName, url, feedType string, lastSuccess *time.Time) ([]RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{SourceName: sourceName, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/json, text/xml;q=0.9, */*;q=0.8")
	if lastSuccess != nil {
		req.Header.Set("If-Modified-Since", lastSuccess.UTC().Format(http.TimeFormat))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{SourceName: sourceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		slog.Debug("Feed not modified since last fetch", "source", sourceName)
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			SourceName: sourceName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{SourceName: sourceName, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch feedType {
	case FeedTypeAPI:
		return f.parseAPIResponse(sourceName, data), nil
	default:
		return f.parseFeedResponse(sourceName, feedType, data), nil
	}
}

// parseFeedResponse parses RSS/Atom/JSON Feed data permissively: a hard
// parse failure is logged and yields an empty list rather than an error,
// since nothing is recoverable from garbage payloads.
func (f *Fetcher) parseFeedResponse(sourceName, feedType string, data []byte) []RawItem {
	parsed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Feed parse failed, no entries recoverable",
			"source", sourceName, "bytes", len(data), "error", err)
		return nil
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		items = append(items, f.normalizeEntry(feedType, entry))
	}

	return items
}

// normalizeEntry extracts item fields, trying content sources in priority
// order. A missing field yields an empty string, never an error.
func (f *Fetcher) normalizeEntry(feedType string, entry *gofeed.Item) RawItem {
	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	item := RawItem{
		Kind:       feedType,
		Title:      entry.Title,
		URL:        entry.Link,
		Content:    content,
		Summary:    entry.Description,
		Categories: entry.Categories,
	}

	if entry.PublishedParsed != nil {
		published := *entry.PublishedParsed
		item.PublishedAt = &published
	} else if entry.UpdatedParsed != nil {
		updated := *entry.UpdatedParsed
		item.PublishedAt = &updated
	}

	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		item.Author = entry.Authors[0].Name
	} else if entry.Author != nil {
		item.Author = entry.Author.Name
	}

	return item
}

// apiItem tolerates the field-name drift seen across JSON content APIs
type apiItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Link        string `json:"link"`
	Content     string `json:"content"`
	Body        string `json:"body"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
}

func (f *Fetcher) parseAPIResponse(sourceName string, data []byte) []RawItem {
	var raw []apiItem
	if err := json.Unmarshal(data, &raw); err != nil {
		var single apiItem
		if err := json.Unmarshal(data, &single); err != nil {
			slog.Warn("API response parse failed, no entries recoverable",
				"source", sourceName, "bytes", len(data), "error", err)
			return nil
		}
		raw = []apiItem{single}
	}

	items := make([]RawItem, 0, len(raw))
	for _, entry := range raw {
		url := entry.URL
		if url == "" {
			url = entry.Link
		}

		content := entry.Content
		if content == "" {
			content = entry.Body
		}
		if content == "" {
			content = entry.Description
		}
		if content == "" {
			content = entry.Summary
		}

		summary := entry.Summary
		if summary == "" {
			summary = entry.Description
		}

		item := RawItem{
			Kind:    FeedTypeAPI,
			Title:   entry.Title,
			URL:     url,
			Content: content,
			Summary: summary,
			Author:  entry.Author,
		}

		if entry.PublishedAt != "" {
			if published, err := time.Parse(time.RFC3339, entry.PublishedAt); err == nil {
				item.PublishedAt = &published
			}
		}

		items = append(items, item)
	}

	return items
}
