package api

import (
	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
	"github.com/CornerLeague/Media-Page-sub001/app/ingestion"
	"github.com/CornerLeague/Media-Page-sub001/app/tasks"
)

type Handler struct {
	sourceRepo   database.SourceRepository
	snapshotRepo database.SnapshotRepository
	articleRepo  database.ArticleRepository
	configCache  *feed.ConfigCache
	scheduler    tasks.TaskSchedulerInterface
	orchestrator *ingestion.Orchestrator
	version      string
}
