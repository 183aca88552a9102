package ingestion

import (
	"context"
	"testing"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/dedup"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

func testSource() *database.Source {
	return &database.Source{ID: "src-1", Name: "espn", Enabled: true}
}

func TestCreateSnapshotsNewItems(t *testing.T) {
	repo := newFakeSnapshotRepo()
	processor := NewSnapshotProcessor(repo, dedup.NewMinHasher(16, 1))

	items := []feed.RawItem{
		{Title: "Lakers win opener", URL: "https://example.com/lakers-win", Content: "The Lakers won."},
		{Title: "Celtics trade rumors", URL: "https://example.com/celtics-trade", Content: "Trade talk."},
	}

	snapshots, err := processor.CreateSnapshots(context.Background(), testSource(), items)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snapshots))
	}

	for _, snapshot := range snapshots {
		if snapshot.ID == "" {
			t.Error("Expected snapshot ID to be assigned")
		}
		if snapshot.URLHash == "" || snapshot.ContentHash == "" {
			t.Error("Expected URL and content hashes to be set")
		}
		if len(snapshot.Signature) == 0 {
			t.Error("Expected serialized signature to be set")
		}
		if stored := repo.get(snapshot.ID); stored == nil || stored.Status != database.StatusPending {
			t.Errorf("Expected stored snapshot %s pending", snapshot.ID)
		}
	}
}

func TestCreateSnapshotsSkipsKnownURLs(t *testing.T) {
	repo := newFakeSnapshotRepo()
	processor := NewSnapshotProcessor(repo, dedup.NewMinHasher(16, 1))
	source := testSource()

	items := []feed.RawItem{
		{Title: "Lakers win opener", URL: "https://example.com/lakers-win", Content: "The Lakers won."},
	}

	first, err := processor.CreateSnapshots(context.Background(), source, items)
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 snapshot on first pass, got %d", len(first))
	}

	second, err := processor.CreateSnapshots(context.Background(), source, items)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("Expected 0 snapshots on refetch, got %d", len(second))
	}
}

func TestCreateSnapshotsIntraBatchURLDedup(t *testing.T) {
	repo := newFakeSnapshotRepo()
	processor := NewSnapshotProcessor(repo, dedup.NewMinHasher(16, 1))

	// Same article twice with tracking params varied; both canonicalize to
	// the same URL hash.
	items := []feed.RawItem{
		{Title: "Lakers win opener", URL: "https://example.com/lakers-win?utm_source=a", Content: "The Lakers won."},
		{Title: "Lakers win opener", URL: "https://www.example.com/lakers-win/", Content: "The Lakers won."},
	}

	snapshots, err := processor.CreateSnapshots(context.Background(), testSource(), items)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(snapshots) != 1 {
		t.Errorf("Expected 1 snapshot for same canonical URL, got %d", len(snapshots))
	}
}

func TestCreateSnapshotsSkipsItemsWithoutURL(t *testing.T) {
	repo := newFakeSnapshotRepo()
	processor := NewSnapshotProcessor(repo, dedup.NewMinHasher(16, 1))

	items := []feed.RawItem{
		{Title: "No link here", Content: "Body."},
		{Title: "Has a link", URL: "https://example.com/story", Content: "Body."},
	}

	snapshots, err := processor.CreateSnapshots(context.Background(), testSource(), items)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(snapshots) != 1 {
		t.Errorf("Expected 1 snapshot, got %d", len(snapshots))
	}
}

func TestCreateSnapshotsEmptyBatch(t *testing.T) {
	repo := newFakeSnapshotRepo()
	processor := NewSnapshotProcessor(repo, dedup.NewMinHasher(16, 1))

	snapshots, err := processor.CreateSnapshots(context.Background(), testSource(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(snapshots) != 0 {
		t.Errorf("Expected no snapshots, got %d", len(snapshots))
	}
}
