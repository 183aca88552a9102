package feed

import (
	"time"
)

// Feed source types
const (
	FeedTypeRSS  = "rss"
	FeedTypeJSON = "json"
	FeedTypeAPI  = "api"
)

// RawItem is one raw feed entry as fetched, before parsing or
// classification. Kind tags which feed syntax produced it; the raw form is
// confined to the snapshot payload and never propagated past the parser.
type RawItem struct {
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Content     string     `json:"content"`
	Summary     string     `json:"summary"`
	Author      string     `json:"author"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
}

// DedupText is the concatenation hashed and shingled for both exact
// content hashing and MinHash signatures.
func (i RawItem) DedupText() string {
	return i.Title + " " + i.Content + " " + i.Summary
}

// ParsedArticle holds the structured fields extracted from a snapshot payload
type ParsedArticle struct {
	Title       string
	Summary     string
	Content     string
	Author      string
	URL         string
	PublishedAt *time.Time
}

// DedupText mirrors RawItem.DedupText over the parsed fields
func (a *ParsedArticle) DedupText() string {
	return a.Title + " " + a.Content + " " + a.Summary
}

// SportRelevance scores how relevant an article is to one sport
type SportRelevance struct {
	Sport     string
	Relevance float64
}

// TeamRelevance scores how relevant an article is to one team, with the
// notable players mentioned in the text
type TeamRelevance struct {
	Team             string
	Relevance        float64
	MentionedPlayers []string
}

// Classification is the content classifier's verdict for one article
type Classification struct {
	Category  string
	Sentiment float64 // [-1, 1]
	Sports    []SportRelevance
	Teams     []TeamRelevance
}

// Configuration types

type SourceConfig struct {
	Name     string            // Derived from filename (without .yml extension)
	URL      string            `yaml:"url"`
	Type     string            `yaml:"type"`
	Settings SourceSettings    `yaml:"settings"`
	Extra    map[string]string `yaml:"extra"` // opaque per-source config, stored alongside the source
}

type SourceSettings struct {
	Enabled       bool `yaml:"enabled"`
	FetchInterval int  `yaml:"fetch_interval"` // seconds
	Timeout       int  `yaml:"timeout"`        // seconds
	MaxItems      int  `yaml:"max_items"`
}
