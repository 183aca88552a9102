package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
)

// SyncSourceConfigTask mirrors one source configuration file into the
// sources table so the pipeline can schedule it.
type SyncSourceConfigTask struct {
	Task
	SourceConfig *feed.SourceConfig
	sourceRepo   database.SourceRepository
}

func NewSyncSourceConfigTask(sourceName string, sourceConfig *feed.SourceConfig, sourceRepo database.SourceRepository) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:         NewTask(TaskTypeSyncSourceConfig, sourceName),
		SourceConfig: sourceConfig,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var configBlob []byte
	if len(t.SourceConfig.Extra) > 0 {
		blob, err := json.Marshal(t.SourceConfig.Extra)
		if err != nil {
			return fmt.Errorf("failed to encode source config: %w", err)
		}
		configBlob = blob
	}

	_, err := t.sourceRepo.UpsertSource(ctx,
		t.SourceConfig.Name,
		t.SourceConfig.URL,
		t.SourceConfig.Type,
		t.SourceConfig.Settings.FetchInterval,
		t.SourceConfig.Settings.Enabled,
		configBlob)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSourceConfig", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSourceConfig",
		"source", t.SourceName,
		"duration", t.GetDuration())

	return nil
}
