package ingestion

import (
	"context"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

// Fetcher retrieves raw feed items for one source
type Fetcher interface {
	Fetch(ctx context.Context, sourceName, url, feedType string, lastSuccess *time.Time) ([]feed.RawItem, error)
}

// Parser extracts structured article fields from a raw snapshot payload.
// Returns an error (typically *feed.ParseError) when nothing usable can be
// extracted.
type Parser interface {
	Parse(payload []byte) (*feed.ParsedArticle, error)
}

// Classifier assigns category, sport/team relevances, and sentiment
type Classifier interface {
	Classify(ctx context.Context, title, content, sourceName string) (*feed.Classification, error)
}
