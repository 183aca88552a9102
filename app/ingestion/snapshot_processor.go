package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/dedup"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

// SnapshotProcessor turns fetched raw items into persisted snapshot
// records. It is the sole gate enforcing the at-most-one-snapshot-per
// (source, URL hash) invariant: the exact-dedup check happens here, before
// any parsing or classification work is spent on an item.
type SnapshotProcessor struct {
	snapshots database.SnapshotRepository
	hasher    *dedup.MinHasher
}

func NewSnapshotProcessor(snapshots database.SnapshotRepository, hasher *dedup.MinHasher) *SnapshotProcessor {
	return &SnapshotProcessor{
		snapshots: snapshots,
		hasher:    hasher,
	}
}

// CreateSnapshots persists pending snapshots for the items that are new to
// this source and returns only those. Items without a URL are skipped;
// so are items whose canonical URL already has a snapshot, whether from an
// earlier fetch or earlier in the same batch.
func (p *SnapshotProcessor) CreateSnapshots(ctx context.Context, source *database.Source, items []feed.RawItem) ([]database.Snapshot, error) {
	if len(items) == 0 {
		return nil, nil
	}

	type candidate struct {
		item    feed.RawItem
		urlHash string
	}

	seen := make(map[string]bool, len(items))
	candidates := make([]candidate, 0, len(items))
	urlHashes := make([]string, 0, len(items))
	skippedNoURL := 0

	for _, item := range items {
		if item.URL == "" {
			skippedNoURL++
			continue
		}

		urlHash := dedup.HashURL(item.URL)
		if seen[urlHash] {
			continue
		}
		seen[urlHash] = true

		candidates = append(candidates, candidate{item: item, urlHash: urlHash})
		urlHashes = append(urlHashes, urlHash)
	}

	if skippedNoURL > 0 {
		slog.Debug("Skipped items without a URL", "source", source.Name, "count", skippedNoURL)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	existing, err := p.snapshots.ExistingURLHashes(ctx, source.ID, urlHashes)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing snapshots: %w", err)
	}

	snapshots := make([]database.Snapshot, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.urlHash] {
			continue
		}

		rawItem, err := json.Marshal(c.item)
		if err != nil {
			slog.Warn("Failed to encode raw item, skipping",
				"source", source.Name, "url", c.item.URL, "error", err)
			continue
		}

		dedupText := c.item.DedupText()
		snapshots = append(snapshots, database.Snapshot{
			SourceID:    source.ID,
			URLHash:     c.urlHash,
			ContentHash: dedup.HashText(dedupText),
			Signature:   p.hasher.Signature(dedupText).Serialize(),
			RawItem:     rawItem,
		})
	}

	inserted, err := p.snapshots.InsertSnapshots(ctx, snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshots: %w", err)
	}

	slog.Debug("Snapshots created",
		"source", source.Name,
		"fetched", len(items),
		"new", len(inserted),
		"known", len(candidates)-len(snapshots))

	return inserted, nil
}
