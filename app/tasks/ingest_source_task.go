package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/ingestion"
)

// IngestSourceTask runs the full pipeline for one source: fetch, exact
// URL dedup into snapshots, then parse, classify, near-dup check, and
// store.
type IngestSourceTask struct {
	Task
	sourceRepo   database.SourceRepository
	orchestrator *ingestion.Orchestrator
}

func NewIngestSourceTask(sourceName string, sourceRepo database.SourceRepository, orchestrator *ingestion.Orchestrator) *IngestSourceTask {
	return &IngestSourceTask{
		Task:         NewTask(TaskTypeIngestSource, sourceName),
		sourceRepo:   sourceRepo,
		orchestrator: orchestrator,
	}
}

func (t *IngestSourceTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	source, err := t.sourceRepo.GetSource(ctx, t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}

	metrics, err := t.orchestrator.ProcessSource(ctx, source)
	if err != nil {
		slog.Error("Task failed", "type", "IngestSource", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to ingest source: %w", err)
	}

	slog.Info("Task completed",
		"type", "IngestSource",
		"source", t.SourceName,
		"fetched", metrics.FetchedItems,
		"articles", metrics.ProcessedItems,
		"duplicates", metrics.DuplicatesFound,
		"failed", metrics.Errors,
		"duration", t.GetDuration())

	return nil
}
