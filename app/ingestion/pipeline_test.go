package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/dedup"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

type pipelineFixture struct {
	sources      *fakeSourceRepo
	snapshots    *fakeSnapshotRepo
	articles     *fakeArticleRepo
	fetcher      *fakeFetcher
	orchestrator *Orchestrator
}

func newPipelineFixture() *pipelineFixture {
	sources := newFakeSourceRepo()
	snapshots := newFakeSnapshotRepo()
	articles := newFakeArticleRepo()
	fetcher := newFakeFetcher()
	hasher := dedup.NewMinHasher(64, 1)

	snapshotProc := NewSnapshotProcessor(snapshots, hasher)
	contentProc := NewContentProcessor(snapshots, articles, passthroughParser{}, sportsClassifier(), hasher, 0.85, 30*24*time.Hour)

	return &pipelineFixture{
		sources:      sources,
		snapshots:    snapshots,
		articles:     articles,
		fetcher:      fetcher,
		orchestrator: NewOrchestrator(sources, fetcher, snapshotProc, contentProc, 15*time.Minute),
	}
}

func TestRunCycleSameURLTwiceYieldsOneArticle(t *testing.T) {
	fixture := newPipelineFixture()
	fixture.sources.add(database.Source{Name: "espn", URL: "https://feeds.example.com/espn", FeedType: "rss", Enabled: true})

	// The feed repeats the same story under two URL spellings that
	// canonicalize identically.
	content := strings.Repeat("lakers clinch the series behind a dominant second half ", 8)
	fixture.fetcher.items["espn"] = []feed.RawItem{
		{Title: "Lakers clinch", URL: "https://example.com/lakers-clinch?utm_campaign=x", Content: content},
		{Title: "Lakers clinch", URL: "https://www.example.com/lakers-clinch/", Content: content},
	}

	metrics, err := fixture.orchestrator.RunCycle(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if metrics.SourcesProcessed != 1 {
		t.Errorf("Expected 1 source processed, got %d", metrics.SourcesProcessed)
	}
	if metrics.FetchedItems != 2 {
		t.Errorf("Expected 2 fetched items, got %d", metrics.FetchedItems)
	}
	if metrics.ProcessedItems != 1 {
		t.Errorf("Expected 1 processed item, got %d", metrics.ProcessedItems)
	}
	if metrics.DuplicatesFound != 0 {
		t.Errorf("Expected 0 near duplicates for an exact URL repeat, got %d", metrics.DuplicatesFound)
	}

	counts, _ := fixture.snapshots.GetStatusCounts(context.Background())
	if counts[database.StatusCompleted] != 1 {
		t.Errorf("Expected 1 completed snapshot, got %d", counts[database.StatusCompleted])
	}
	if got, _ := fixture.articles.GetArticleCount(context.Background()); got != 1 {
		t.Errorf("Expected 1 article, got %d", got)
	}
}

func TestRunCycleSourceFailureIsolation(t *testing.T) {
	fixture := newPipelineFixture()
	broken := fixture.sources.add(database.Source{Name: "broken", URL: "https://feeds.example.com/broken", FeedType: "rss", Enabled: true})
	healthy := fixture.sources.add(database.Source{Name: "healthy", URL: "https://feeds.example.com/healthy", FeedType: "rss", Enabled: true})

	fixture.fetcher.errors["broken"] = &feed.FetchError{SourceName: "broken", Err: fmt.Errorf("connection refused")}
	fixture.fetcher.items["healthy"] = []feed.RawItem{
		{Title: "Healthy story", URL: "https://example.com/healthy-story",
			Content: strings.Repeat("the club announced a new broadcast deal on tuesday ", 8)},
	}

	metrics, err := fixture.orchestrator.RunCycle(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("Expected cycle to survive a failing source, got %v", err)
	}

	if metrics.SourcesProcessed != 1 {
		t.Errorf("Expected 1 source processed, got %d", metrics.SourcesProcessed)
	}
	if metrics.Errors != 1 {
		t.Errorf("Expected 1 error, got %d", metrics.Errors)
	}
	if got, _ := fixture.articles.GetArticleCount(context.Background()); got != 1 {
		t.Errorf("Expected 1 article from the healthy source, got %d", got)
	}
	if fixture.sources.failures[broken.ID] != 1 {
		t.Errorf("Expected 1 recorded failure for broken source, got %d", fixture.sources.failures[broken.ID])
	}
	if fixture.sources.successes[healthy.ID] != 1 {
		t.Errorf("Expected 1 recorded success for healthy source, got %d", fixture.sources.successes[healthy.ID])
	}
}

func TestRunCycleRespectsRefetchInterval(t *testing.T) {
	fixture := newPipelineFixture()
	recent := time.Now().Add(-1 * time.Minute)
	fixture.sources.add(database.Source{Name: "espn", URL: "https://feeds.example.com/espn", FeedType: "rss", Enabled: true, LastFetchedAt: &recent})

	metrics, err := fixture.orchestrator.RunCycle(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if metrics.SourcesProcessed != 0 {
		t.Errorf("Expected recently fetched source to be skipped, got %d processed", metrics.SourcesProcessed)
	}
	if fixture.fetcher.fetches["espn"] != 0 {
		t.Errorf("Expected no fetch, got %d", fixture.fetcher.fetches["espn"])
	}
}

func TestRunCycleForceIgnoresRefetchInterval(t *testing.T) {
	fixture := newPipelineFixture()
	recent := time.Now().Add(-1 * time.Minute)
	fixture.sources.add(database.Source{Name: "espn", URL: "https://feeds.example.com/espn", FeedType: "rss", Enabled: true, LastFetchedAt: &recent})
	fixture.fetcher.items["espn"] = nil

	metrics, err := fixture.orchestrator.RunCycle(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if metrics.SourcesProcessed != 1 {
		t.Errorf("Expected forced run to process the source, got %d", metrics.SourcesProcessed)
	}
	if fixture.fetcher.fetches["espn"] != 1 {
		t.Errorf("Expected 1 fetch, got %d", fixture.fetcher.fetches["espn"])
	}
}

func TestRunCycleNamedSources(t *testing.T) {
	fixture := newPipelineFixture()
	fixture.sources.add(database.Source{Name: "espn", URL: "https://feeds.example.com/espn", FeedType: "rss", Enabled: true})
	fixture.sources.add(database.Source{Name: "bleacher", URL: "https://feeds.example.com/bleacher", FeedType: "rss", Enabled: true})

	if _, err := fixture.orchestrator.RunCycle(context.Background(), []string{"espn"}, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fixture.fetcher.fetches["espn"] != 1 {
		t.Errorf("Expected espn fetched once, got %d", fixture.fetcher.fetches["espn"])
	}
	if fixture.fetcher.fetches["bleacher"] != 0 {
		t.Errorf("Expected bleacher untouched, got %d fetches", fixture.fetcher.fetches["bleacher"])
	}

	if _, err := fixture.orchestrator.RunCycle(context.Background(), []string{"nope"}, false); err == nil {
		t.Error("Expected error for unknown source name")
	}
}

func TestRunCycleUnknownSourceReturnsNotFound(t *testing.T) {
	fixture := newPipelineFixture()
	fixture.sources.add(database.Source{Name: "espn", URL: "https://feeds.example.com/espn", FeedType: "rss", Enabled: true})

	metrics, err := fixture.orchestrator.RunCycle(context.Background(), []string{"no-such-source"}, false)
	if err == nil {
		t.Fatal("Expected error for unknown source name")
	}
	if !errors.Is(err, database.ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got %v", err)
	}
	if metrics == nil {
		t.Fatal("Expected metrics even on selection failure")
	}
	if fixture.fetcher.fetches["espn"] != 0 {
		t.Errorf("Expected no fetches after selection failure, got %d", fixture.fetcher.fetches["espn"])
	}
}

func TestRunCycleRefetchCreatesNoNewSnapshots(t *testing.T) {
	fixture := newPipelineFixture()
	fixture.sources.add(database.Source{Name: "espn", URL: "https://feeds.example.com/espn", FeedType: "rss", Enabled: true})
	fixture.fetcher.items["espn"] = []feed.RawItem{
		{Title: "Stable story", URL: "https://example.com/stable",
			Content: strings.Repeat("the veteran forward signed a two year extension on friday ", 8)},
	}

	if _, err := fixture.orchestrator.RunCycle(context.Background(), nil, true); err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	metrics, err := fixture.orchestrator.RunCycle(context.Background(), nil, true)
	if err != nil {
		t.Fatalf("Second cycle failed: %v", err)
	}

	if metrics.ProcessedItems != 0 {
		t.Errorf("Expected no new articles on refetch, got %d", metrics.ProcessedItems)
	}
	if got, _ := fixture.articles.GetArticleCount(context.Background()); got != 1 {
		t.Errorf("Expected 1 article total, got %d", got)
	}
}
