package feed

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ParseError is a recoverable, per-snapshot parse failure; the snapshot is
// marked failed with the message retained for operator inspection.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ArticleParser extracts structured article fields from a raw snapshot
// payload. HTML-heavy payloads go through readability extraction; short or
// plain payloads get a simple tag strip.
type ArticleParser struct{}

func NewArticleParser() *ArticleParser {
	return &ArticleParser{}
}

func (p *ArticleParser) Parse(payload []byte) (*ParsedArticle, error) {
	var raw RawItem
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &ParseError{Reason: "failed to decode snapshot payload", Err: err}
	}

	title := strings.TrimSpace(raw.Title)
	content := extractText(raw.Content)
	summary := extractText(raw.Summary)

	if title == "" && content == "" {
		return nil, &ParseError{Reason: "payload has no usable title or content"}
	}

	if summary == "" && content != "" {
		summary = truncate(content, 280)
	}

	return &ParsedArticle{
		Title:       title,
		Summary:     summary,
		Content:     content,
		Author:      strings.TrimSpace(raw.Author),
		URL:         raw.URL,
		PublishedAt: raw.PublishedAt,
	}, nil
}

// extractText returns the plain text of a possibly-HTML fragment.
// Readability handles full documents; fragments fall back to tag stripping.
func extractText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if !strings.Contains(s, "<") {
		return collapseWhitespace(s)
	}

	if looksLikeDocument(s) {
		if article, err := readability.FromReader(strings.NewReader(s), nil); err == nil {
			if text := collapseWhitespace(article.TextContent); text != "" {
				return text
			}
		}
	}

	return collapseWhitespace(tagPattern.ReplaceAllString(s, " "))
}

func looksLikeDocument(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") || strings.Contains(lower, "<article")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := s[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
