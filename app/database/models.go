package database

import (
	"time"
)

// Snapshot processing statuses. A snapshot starts pending and transitions
// exactly once to one of the terminal statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"
)

// Source represents a configured content origin
type Source struct {
	ID                  string // Database UUID
	Name                string // Source identifier derived from config filename
	URL                 string
	FeedType            string // rss, json, api
	Enabled             bool
	FetchInterval       int // seconds
	LastFetchedAt       *time.Time
	LastSuccessAt       *time.Time
	ConsecutiveFailures int
	Config              []byte // arbitrary per-source config blob (JSON)
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Snapshot is an immutable capture of one raw feed item at fetch time,
// the unit of exact deduplication
type Snapshot struct {
	ID           string
	SourceID     string
	URLHash      string
	ContentHash  string
	Signature    []byte // serialized MinHash signature
	RawItem      []byte // raw feed item payload (JSON)
	Status       string
	ErrorMessage string
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}

// SignatureRecord is the slice of a completed snapshot needed for
// near-duplicate comparison
type SignatureRecord struct {
	ID          string
	ContentHash string
	Signature   []byte
}

// Article is a deduplicated, classified content record
type Article struct {
	ID             string
	SnapshotID     string
	Title          string
	Summary        string
	Content        string
	Author         string
	SourceName     string
	URL            string
	PublishedAt    *time.Time
	Category       string
	WordCount      int
	ReadingTime    int // minutes
	Sentiment      float64
	RelevanceScore float64
	Active         bool
	Featured       bool
	ViewCount      int
	ShareCount     int
	LikeCount      int
	CreatedAt      time.Time
}

// SportAssociation links an article to a sport with a relevance score
type SportAssociation struct {
	Sport     string
	Relevance float64
}

// TeamAssociation links an article to a team with a relevance score and
// the players mentioned in the article
type TeamAssociation struct {
	Team             string
	Relevance        float64
	MentionedPlayers []string
}
