package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
)

const DefaultMinRefetchInterval = 15 * time.Minute

// Orchestrator drives the full fetch, snapshot, and content pipeline for
// configured sources. A per-source mutex keeps concurrent runs of the same
// source from racing each other while still allowing distinct sources to
// run in parallel.
type Orchestrator struct {
	sources       database.SourceRepository
	fetcher       Fetcher
	snapshotProc  *SnapshotProcessor
	contentProc   *ContentProcessor
	minRefetch    time.Duration
	sourceLocksMu sync.Mutex
	sourceLocks   map[string]*sync.Mutex
}

func NewOrchestrator(sources database.SourceRepository, fetcher Fetcher,
	snapshotProc *SnapshotProcessor, contentProc *ContentProcessor,
	minRefetch time.Duration) *Orchestrator {

	if minRefetch <= 0 {
		minRefetch = DefaultMinRefetchInterval
	}

	return &Orchestrator{
		sources:      sources,
		fetcher:      fetcher,
		snapshotProc: snapshotProc,
		contentProc:  contentProc,
		minRefetch:   minRefetch,
		sourceLocks:  make(map[string]*sync.Mutex),
	}
}

// RunCycle runs one ingestion pass. With sourceNames set, exactly those
// sources run regardless of schedule; with force set, all active sources
// run; otherwise only sources past the minimum refetch interval run.
// A source failing never stops the others; failures surface in the
// returned metrics.
func (o *Orchestrator) RunCycle(ctx context.Context, sourceNames []string, force bool) (*IngestionMetrics, error) {
	metrics := NewMetrics()

	sources, err := o.selectSources(ctx, sourceNames, force)
	if err != nil {
		return metrics.Finish(), err
	}

	if len(sources) == 0 {
		slog.Debug("No sources due for ingestion")
		return metrics.Finish(), nil
	}

	for i := range sources {
		sourceMetrics, err := o.ProcessSource(ctx, &sources[i])
		metrics.Merge(sourceMetrics)
		if err != nil {
			metrics.Errors++
			slog.Error("Source ingestion failed",
				"source", sources[i].Name, "error", err)
			continue
		}
		metrics.SourcesProcessed++
	}

	metrics.Finish()
	slog.Info("Ingestion cycle finished",
		"sources", metrics.SourcesProcessed,
		"fetched", metrics.FetchedItems,
		"processed", metrics.ProcessedItems,
		"duplicates", metrics.DuplicatesFound,
		"errors", metrics.Errors,
		"elapsed", metrics.Elapsed)

	return metrics, nil
}

func (o *Orchestrator) selectSources(ctx context.Context, sourceNames []string, force bool) ([]database.Source, error) {
	if len(sourceNames) > 0 {
		sources := make([]database.Source, 0, len(sourceNames))
		for _, name := range sourceNames {
			source, err := o.sources.GetSource(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("unknown source %q: %w", name, err)
			}
			sources = append(sources, *source)
		}
		return sources, nil
	}

	if force {
		return o.sources.GetActiveSources(ctx)
	}

	return o.sources.GetDueSources(ctx, time.Now().Add(-o.minRefetch))
}

// ProcessSource runs the pipeline for one source: fetch, snapshot the new
// items, then drive each pending snapshot to a terminal status.
func (o *Orchestrator) ProcessSource(ctx context.Context, source *database.Source) (*IngestionMetrics, error) {
	lock := o.lockFor(source.ID)
	lock.Lock()
	defer lock.Unlock()

	metrics := NewMetrics()

	if err := o.sources.RecordFetchAttempt(ctx, source.ID); err != nil {
		return metrics.Finish(), err
	}

	items, err := o.fetcher.Fetch(ctx, source.Name, source.URL, source.FeedType, source.LastSuccessAt)
	if err != nil {
		if recordErr := o.sources.RecordFailure(ctx, source.ID); recordErr != nil {
			slog.Error("Failed to record fetch failure",
				"source", source.Name, "error", recordErr)
		}
		return metrics.Finish(), err
	}
	metrics.FetchedItems = len(items)

	snapshots, err := o.snapshotProc.CreateSnapshots(ctx, source, items)
	if err != nil {
		if recordErr := o.sources.RecordFailure(ctx, source.ID); recordErr != nil {
			slog.Error("Failed to record fetch failure",
				"source", source.Name, "error", recordErr)
		}
		return metrics.Finish(), err
	}

	results, err := o.contentProc.Process(ctx, snapshots, source.Name)
	for _, result := range results {
		switch result.Status {
		case StatusCompleted:
			metrics.ProcessedItems++
		case StatusDuplicate:
			metrics.DuplicatesFound++
		case StatusFailed:
			metrics.Errors++
		}
	}
	if err != nil {
		if recordErr := o.sources.RecordFailure(ctx, source.ID); recordErr != nil {
			slog.Error("Failed to record fetch failure",
				"source", source.Name, "error", recordErr)
		}
		return metrics.Finish(), err
	}

	if err := o.sources.RecordSuccess(ctx, source.ID); err != nil {
		return metrics.Finish(), err
	}

	slog.Debug("Source processed",
		"source", source.Name,
		"fetched", metrics.FetchedItems,
		"articles", metrics.ProcessedItems,
		"duplicates", metrics.DuplicatesFound,
		"failed", metrics.Errors)

	return metrics.Finish(), nil
}

func (o *Orchestrator) lockFor(sourceID string) *sync.Mutex {
	o.sourceLocksMu.Lock()
	defer o.sourceLocksMu.Unlock()

	lock, ok := o.sourceLocks[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		o.sourceLocks[sourceID] = lock
	}
	return lock
}
