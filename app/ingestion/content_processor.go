package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/dedup"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

const (
	DefaultNearDupThreshold = 0.85
	DefaultNearDupWindow    = 30 * 24 * time.Hour

	readingWordsPerMinute = 225
)

// ProcessStatus is the terminal outcome for one snapshot
type ProcessStatus string

const (
	StatusCompleted ProcessStatus = database.StatusCompleted
	StatusDuplicate ProcessStatus = database.StatusDuplicate
	StatusFailed    ProcessStatus = database.StatusFailed
)

// ProcessResult is the explicit per-item outcome. Failures travel as
// values aggregated by the caller, not as exceptions that abort the batch.
type ProcessResult struct {
	SnapshotID  string
	Status      ProcessStatus
	ArticleID   string
	DuplicateOf string
	Reason      string
}

// ContentProcessor parses snapshot payloads into articles, classifies
// them, performs the near-duplicate MinHash check against a trailing
// window of completed snapshots, and persists the survivors.
type ContentProcessor struct {
	snapshots  database.SnapshotRepository
	articles   database.ArticleRepository
	parser     Parser
	classifier Classifier
	hasher     *dedup.MinHasher
	threshold  float64
	window     time.Duration
}

func NewContentProcessor(snapshots database.SnapshotRepository, articles database.ArticleRepository,
	parser Parser, classifier Classifier, hasher *dedup.MinHasher,
	threshold float64, window time.Duration) *ContentProcessor {

	if threshold <= 0 || threshold > 1 {
		threshold = DefaultNearDupThreshold
	}
	if window <= 0 {
		window = DefaultNearDupWindow
	}

	return &ContentProcessor{
		snapshots:  snapshots,
		articles:   articles,
		parser:     parser,
		classifier: classifier,
		hasher:     hasher,
		threshold:  threshold,
		window:     window,
	}
}

// Process drives each pending snapshot to a terminal status. One bad item
// never aborts the batch; only a store-level failure does, since no
// terminal bookkeeping is possible without the store. No snapshot in the
// given batch is left pending on a nil-error return.
func (p *ContentProcessor) Process(ctx context.Context, snapshots []database.Snapshot, sourceName string) ([]ProcessResult, error) {
	results := make([]ProcessResult, 0, len(snapshots))

	for i := range snapshots {
		result, err := p.processOne(ctx, &snapshots[i], sourceName)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (p *ContentProcessor) processOne(ctx context.Context, snapshot *database.Snapshot, sourceName string) (ProcessResult, error) {
	article, err := p.parser.Parse(snapshot.RawItem)
	if err != nil {
		return p.fail(ctx, snapshot, fmt.Sprintf("parse failed: %v", err))
	}

	classification, err := p.classifier.Classify(ctx, article.Title, article.Content, sourceName)
	if err != nil {
		return p.fail(ctx, snapshot, fmt.Sprintf("classification failed: %v", err))
	}

	signature := p.hasher.Signature(article.DedupText())

	duplicateOf, err := p.findNearDuplicate(ctx, snapshot, signature)
	if err != nil {
		return ProcessResult{}, err
	}
	if duplicateOf != "" {
		if err := p.snapshots.MarkDuplicate(ctx, snapshot.ID); err != nil {
			return ProcessResult{}, err
		}
		slog.Debug("Near duplicate detected",
			"source", sourceName, "snapshot", snapshot.ID, "duplicate_of", duplicateOf)
		return ProcessResult{SnapshotID: snapshot.ID, Status: StatusDuplicate, DuplicateOf: duplicateOf}, nil
	}

	articleID, err := p.storeArticle(ctx, snapshot, article, classification, sourceName)
	if err != nil {
		return p.fail(ctx, snapshot, fmt.Sprintf("store failed: %v", err))
	}

	if err := p.snapshots.MarkCompleted(ctx, snapshot.ID); err != nil {
		return ProcessResult{}, err
	}

	return ProcessResult{SnapshotID: snapshot.ID, Status: StatusCompleted, ArticleID: articleID}, nil
}

func (p *ContentProcessor) fail(ctx context.Context, snapshot *database.Snapshot, reason string) (ProcessResult, error) {
	if err := p.snapshots.MarkFailed(ctx, snapshot.ID, reason); err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{SnapshotID: snapshot.ID, Status: StatusFailed, Reason: reason}, nil
}

// findNearDuplicate compares the recomputed signature against completed
// snapshots inside the trailing window. Candidates with an identical
// content hash are skipped: those would have been caught by the URL gate
// already, and comparing them is wasted work. A candidate with a corrupt
// stored signature is logged and skipped rather than failing the incoming
// snapshot.
func (p *ContentProcessor) findNearDuplicate(ctx context.Context, snapshot *database.Snapshot, signature dedup.Signature) (string, error) {
	cutoff := time.Now().Add(-p.window)

	candidates, err := p.snapshots.GetRecentSignatures(ctx, cutoff, snapshot.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load recent signatures: %w", err)
	}

	for _, candidate := range candidates {
		if candidate.ContentHash == snapshot.ContentHash {
			continue
		}

		candidateSig, err := dedup.DeserializeSignature(candidate.Signature, p.hasher.NumPerm())
		if err != nil {
			slog.Warn("Skipping candidate with invalid stored signature",
				"candidate", candidate.ID, "error", err)
			continue
		}

		if p.hasher.Similarity(signature, candidateSig) >= p.threshold {
			return candidate.ID, nil
		}
	}

	return "", nil
}

func (p *ContentProcessor) storeArticle(ctx context.Context, snapshot *database.Snapshot,
	parsed *feed.ParsedArticle, classification *feed.Classification, sourceName string) (string, error) {

	wordCount := len(strings.Fields(parsed.Content))

	article := database.Article{
		SnapshotID:     snapshot.ID,
		Title:          parsed.Title,
		Summary:        parsed.Summary,
		Content:        parsed.Content,
		Author:         parsed.Author,
		SourceName:     sourceName,
		URL:            dedup.NormalizeURL(parsed.URL),
		PublishedAt:    parsed.PublishedAt,
		Category:       classification.Category,
		WordCount:      wordCount,
		ReadingTime:    readingTime(wordCount),
		Sentiment:      classification.Sentiment,
		RelevanceScore: relevanceScore(classification),
		Active:         true,
	}

	sports := make([]database.SportAssociation, 0, len(classification.Sports))
	for _, sport := range classification.Sports {
		sports = append(sports, database.SportAssociation{Sport: sport.Sport, Relevance: sport.Relevance})
	}

	teams := make([]database.TeamAssociation, 0, len(classification.Teams))
	for _, team := range classification.Teams {
		teams = append(teams, database.TeamAssociation{
			Team:             team.Team,
			Relevance:        team.Relevance,
			MentionedPlayers: team.MentionedPlayers,
		})
	}

	return p.articles.InsertArticle(ctx, article, sports, teams)
}

func readingTime(wordCount int) int {
	if wordCount == 0 {
		return 0
	}
	minutes := (wordCount + readingWordsPerMinute - 1) / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// relevanceScore blends the strongest sport signal with a bonus for
// concrete team associations, capped at 1.
func relevanceScore(classification *feed.Classification) float64 {
	score := 0.0
	if len(classification.Sports) > 0 {
		score = classification.Sports[0].Relevance
	}
	if len(classification.Teams) > 0 {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
