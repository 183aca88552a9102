package database

import (
	"context"
	"errors"
	"time"
)

// ErrSourceNotFound is returned by SourceRepository.GetSource when no
// source with the given name exists. Callers rely on GetSource never
// returning (nil, nil).
var ErrSourceNotFound = errors.New("source not found")

// StorageError wraps a persistence failure so callers can distinguish it
// from fetch and parse failures when aggregating per-item outcomes.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage error during " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type SourceRepository interface {
	// UpsertSource registers a configured source, updating URL, type,
	// interval, enabled flag, and config blob when it already exists.
	UpsertSource(ctx context.Context, name, url, feedType string, fetchInterval int, enabled bool, config []byte) (string, error)

	GetSource(ctx context.Context, name string) (*Source, error)
	GetActiveSources(ctx context.Context) ([]Source, error)

	// GetDueSources returns active sources never fetched or last fetched
	// before the cutoff.
	GetDueSources(ctx context.Context, cutoff time.Time) ([]Source, error)

	RecordFetchAttempt(ctx context.Context, sourceID string) error
	RecordSuccess(ctx context.Context, sourceID string) error
	RecordFailure(ctx context.Context, sourceID string) error

	GetSourceCount(ctx context.Context) (int, error)
}

type SnapshotRepository interface {
	// ExistingURLHashes returns which of the given URL hashes already have
	// a snapshot for the source. This is the exact-dedup gate.
	ExistingURLHashes(ctx context.Context, sourceID string, urlHashes []string) (map[string]bool, error)

	// InsertSnapshots batch-inserts snapshots in one transaction, skipping
	// rows that collide with the (source_id, url_hash) unique constraint.
	// Returns the snapshots that were actually inserted, with IDs assigned.
	InsertSnapshots(ctx context.Context, snapshots []Snapshot) ([]Snapshot, error)

	MarkCompleted(ctx context.Context, snapshotID string) error
	MarkDuplicate(ctx context.Context, snapshotID string) error
	MarkFailed(ctx context.Context, snapshotID string, message string) error

	// GetRecentSignatures returns signatures of snapshots completed at or
	// after the cutoff, excluding the given snapshot.
	GetRecentSignatures(ctx context.Context, cutoff time.Time, excludeID string) ([]SignatureRecord, error)

	GetStatusCounts(ctx context.Context) (map[string]int, error)
}

type ArticleRepository interface {
	// InsertArticle persists the article and its sport/team associations in
	// one transaction, so an article is never visible without them.
	InsertArticle(ctx context.Context, article Article, sports []SportAssociation, teams []TeamAssociation) (string, error)

	GetArticleCount(ctx context.Context) (int, error)
}
