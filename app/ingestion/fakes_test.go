package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

// In-memory repository fakes shared by the tests in this package.

type fakeSourceRepo struct {
	mu             sync.Mutex
	sources        map[string]*database.Source
	attempts       map[string]int
	successes      map[string]int
	failures       map[string]int
	failGetSources bool
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{
		sources:   make(map[string]*database.Source),
		attempts:  make(map[string]int),
		successes: make(map[string]int),
		failures:  make(map[string]int),
	}
}

func (r *fakeSourceRepo) add(source database.Source) *database.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	if source.ID == "" {
		source.ID = "src-" + source.Name
	}
	r.sources[source.Name] = &source
	return &source
}

func (r *fakeSourceRepo) UpsertSource(_ context.Context, name, url, feedType string, fetchInterval int, enabled bool, config []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sources[name]
	if ok {
		existing.URL = url
		existing.FeedType = feedType
		existing.FetchInterval = fetchInterval
		existing.Enabled = enabled
		existing.Config = config
		return existing.ID, nil
	}
	source := &database.Source{
		ID:            "src-" + name,
		Name:          name,
		URL:           url,
		FeedType:      feedType,
		FetchInterval: fetchInterval,
		Enabled:       enabled,
		Config:        config,
	}
	r.sources[name] = source
	return source.ID, nil
}

func (r *fakeSourceRepo) GetSource(_ context.Context, name string) (*database.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	source, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", name, database.ErrSourceNotFound)
	}
	copied := *source
	return &copied, nil
}

func (r *fakeSourceRepo) GetActiveSources(_ context.Context) ([]database.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGetSources {
		return nil, fmt.Errorf("sources unavailable")
	}
	var result []database.Source
	for _, source := range r.sources {
		if source.Enabled {
			result = append(result, *source)
		}
	}
	return result, nil
}

func (r *fakeSourceRepo) GetDueSources(_ context.Context, cutoff time.Time) ([]database.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []database.Source
	for _, source := range r.sources {
		if !source.Enabled {
			continue
		}
		if source.LastFetchedAt == nil || source.LastFetchedAt.Before(cutoff) {
			result = append(result, *source)
		}
	}
	return result, nil
}

func (r *fakeSourceRepo) RecordFetchAttempt(_ context.Context, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[sourceID]++
	now := time.Now()
	for _, source := range r.sources {
		if source.ID == sourceID {
			source.LastFetchedAt = &now
		}
	}
	return nil
}

func (r *fakeSourceRepo) RecordSuccess(_ context.Context, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes[sourceID]++
	return nil
}

func (r *fakeSourceRepo) RecordFailure(_ context.Context, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[sourceID]++
	return nil
}

func (r *fakeSourceRepo) GetSourceCount(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources), nil
}

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]*database.Snapshot
	nextID    int

	failInsert     bool
	failSignatures bool
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]*database.Snapshot)}
}

func (r *fakeSnapshotRepo) get(id string) *database.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[id]
}

func (r *fakeSnapshotRepo) ExistingURLHashes(_ context.Context, sourceID string, urlHashes []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	known := make(map[string]bool)
	for _, snapshot := range r.snapshots {
		if snapshot.SourceID == sourceID {
			known[snapshot.URLHash] = true
		}
	}
	result := make(map[string]bool)
	for _, hash := range urlHashes {
		if known[hash] {
			result[hash] = true
		}
	}
	return result, nil
}

func (r *fakeSnapshotRepo) InsertSnapshots(_ context.Context, snapshots []database.Snapshot) ([]database.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failInsert {
		return nil, &database.StorageError{Op: "insert snapshots", Err: fmt.Errorf("insert refused")}
	}
	inserted := make([]database.Snapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		collision := false
		for _, existing := range r.snapshots {
			if existing.SourceID == snapshot.SourceID && existing.URLHash == snapshot.URLHash {
				collision = true
				break
			}
		}
		if collision {
			continue
		}
		r.nextID++
		snapshot.ID = fmt.Sprintf("snap-%d", r.nextID)
		snapshot.Status = database.StatusPending
		snapshot.CreatedAt = time.Now()
		stored := snapshot
		r.snapshots[snapshot.ID] = &stored
		inserted = append(inserted, snapshot)
	}
	return inserted, nil
}

func (r *fakeSnapshotRepo) markTerminal(id, status, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, ok := r.snapshots[id]
	if !ok {
		return fmt.Errorf("snapshot %q not found", id)
	}
	if snapshot.Status != database.StatusPending {
		return fmt.Errorf("snapshot %q already %s", id, snapshot.Status)
	}
	now := time.Now()
	snapshot.Status = status
	snapshot.ErrorMessage = message
	snapshot.ProcessedAt = &now
	return nil
}

func (r *fakeSnapshotRepo) MarkCompleted(_ context.Context, snapshotID string) error {
	return r.markTerminal(snapshotID, database.StatusCompleted, "")
}

func (r *fakeSnapshotRepo) MarkDuplicate(_ context.Context, snapshotID string) error {
	return r.markTerminal(snapshotID, database.StatusDuplicate, "")
}

func (r *fakeSnapshotRepo) MarkFailed(_ context.Context, snapshotID string, message string) error {
	return r.markTerminal(snapshotID, database.StatusFailed, message)
}

func (r *fakeSnapshotRepo) GetRecentSignatures(_ context.Context, cutoff time.Time, excludeID string) ([]database.SignatureRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSignatures {
		return nil, fmt.Errorf("signatures unavailable")
	}
	var result []database.SignatureRecord
	for _, snapshot := range r.snapshots {
		if snapshot.ID == excludeID || snapshot.Status != database.StatusCompleted {
			continue
		}
		if snapshot.CreatedAt.Before(cutoff) || len(snapshot.Signature) == 0 {
			continue
		}
		result = append(result, database.SignatureRecord{
			ID:          snapshot.ID,
			ContentHash: snapshot.ContentHash,
			Signature:   snapshot.Signature,
		})
	}
	return result, nil
}

func (r *fakeSnapshotRepo) GetStatusCounts(_ context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, snapshot := range r.snapshots {
		counts[snapshot.Status]++
	}
	return counts, nil
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles []database.Article
	nextID   int

	failFor map[string]bool // snapshot IDs whose insert should fail
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{failFor: make(map[string]bool)}
}

func (r *fakeArticleRepo) InsertArticle(_ context.Context, article database.Article, sports []database.SportAssociation, teams []database.TeamAssociation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[article.SnapshotID] {
		return "", &database.StorageError{Op: "insert article", Err: fmt.Errorf("insert refused")}
	}
	r.nextID++
	article.ID = fmt.Sprintf("article-%d", r.nextID)
	r.articles = append(r.articles, article)
	return article.ID, nil
}

func (r *fakeArticleRepo) GetArticleCount(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.articles), nil
}

// fakeFetcher returns a canned item list per source name.
type fakeFetcher struct {
	mu      sync.Mutex
	items   map[string][]feed.RawItem
	errors  map[string]error
	fetches map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		items:   make(map[string][]feed.RawItem),
		errors:  make(map[string]error),
		fetches: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, sourceName, _, _ string, _ *time.Time) ([]feed.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[sourceName]++
	if err := f.errors[sourceName]; err != nil {
		return nil, err
	}
	return f.items[sourceName], nil
}

// passthroughParser decodes the snapshot payload back into the fields the
// fake fetcher produced. Payloads whose title starts with "BROKEN" fail.
type passthroughParser struct{}

func (passthroughParser) Parse(payload []byte) (*feed.ParsedArticle, error) {
	var item feed.RawItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return nil, &feed.ParseError{Reason: "invalid payload", Err: err}
	}
	if len(item.Title) >= 6 && item.Title[:6] == "BROKEN" {
		return nil, &feed.ParseError{Reason: "unparseable item"}
	}
	return &feed.ParsedArticle{
		Title:       item.Title,
		Summary:     item.Summary,
		Content:     item.Content,
		Author:      item.Author,
		URL:         item.URL,
		PublishedAt: item.PublishedAt,
	}, nil
}

// staticClassifier returns the same classification for every article.
type staticClassifier struct {
	classification feed.Classification
	err            error
}

func (c *staticClassifier) Classify(_ context.Context, _, _, _ string) (*feed.Classification, error) {
	if c.err != nil {
		return nil, c.err
	}
	copied := c.classification
	return &copied, nil
}

func sportsClassifier() *staticClassifier {
	return &staticClassifier{classification: feed.Classification{
		Category:  "basketball",
		Sentiment: 0.4,
		Sports:    []feed.SportRelevance{{Sport: "basketball", Relevance: 0.9}},
		Teams:     []feed.TeamRelevance{{Team: "Los Angeles Lakers", Relevance: 0.6, MentionedPlayers: []string{"LeBron James"}}},
	}}
}
