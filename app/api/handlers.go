package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
	"github.com/CornerLeague/Media-Page-sub001/app/ingestion"
	"github.com/CornerLeague/Media-Page-sub001/app/tasks"
	"github.com/gin-gonic/gin"
)

func NewHandler(configCache *feed.ConfigCache, sourceRepo database.SourceRepository,
	snapshotRepo database.SnapshotRepository, articleRepo database.ArticleRepository,
	scheduler tasks.TaskSchedulerInterface, orchestrator *ingestion.Orchestrator, version string) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		snapshotRepo: snapshotRepo,
		articleRepo:  articleRepo,
		configCache:  configCache,
		scheduler:    scheduler,
		orchestrator: orchestrator,
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(c.Request.Context()); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	counts, err := h.snapshotRepo.GetStatusCounts(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_status_counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["snapshots"] = map[string]interface{}{
		"pending":   counts[database.StatusPending],
		"completed": counts[database.StatusCompleted],
		"duplicate": counts[database.StatusDuplicate],
		"failed":    counts[database.StatusFailed],
	}

	if articleCount, err := h.articleRepo.GetArticleCount(ctx); err == nil {
		stats["articles"] = articleCount
	}
	if sourceCount, err := h.sourceRepo.GetSourceCount(ctx); err == nil {
		stats["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":           sourceConfig.Name,
			"url":            sourceConfig.URL,
			"type":           sourceConfig.Type,
			"enabled":        sourceConfig.Settings.Enabled,
			"max_items":      sourceConfig.Settings.MaxItems,
			"fetch_interval": (time.Duration(sourceConfig.Settings.FetchInterval) * time.Second).String(),
		}

		if source, err := h.sourceRepo.GetSource(c.Request.Context(), sourceConfig.Name); err == nil {
			sourceInfo["last_fetched_at"] = source.LastFetchedAt
			sourceInfo["last_success_at"] = source.LastSuccessAt
			sourceInfo["consecutive_failures"] = source.ConsecutiveFailures
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

// APITriggerIngest enqueues ingestion out of schedule. With ?source= only
// that source runs; otherwise every enabled source is enqueued.
func (h *Handler) APITriggerIngest(c *gin.Context) {
	sourceName := c.Query("source")

	var configs map[string]*feed.SourceConfig
	if sourceName != "" {
		sourceConfig, err := h.configCache.GetConfig(sourceName)
		if err != nil {
			slog.Error("Source configuration not found", "source", sourceName, "error", err)
			c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
			return
		}
		configs = map[string]*feed.SourceConfig{sourceName: sourceConfig}
	} else {
		configs = h.configCache.GetEnabledConfigs()
	}

	if len(configs) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "No enabled sources", "tasks": []gin.H{}})
		return
	}

	enqueued := make([]gin.H, 0, len(configs))
	for _, sourceConfig := range configs {
		task := tasks.NewIngestSourceTask(sourceConfig.Name, h.sourceRepo, h.orchestrator)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing ingest task", "source", sourceConfig.Name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to enqueue ingest task",
				"details": err.Error(),
			})
			return
		}
		enqueued = append(enqueued, gin.H{
			"id":     task.GetID(),
			"type":   task.GetType(),
			"source": task.GetSourceName(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Ingestion tasks enqueued successfully",
		"tasks":   enqueued,
	})
}

// APIReloadSource re-reads one source configuration file from disk and
// syncs it to the database before re-ingesting.
func (h *Handler) APIReloadSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	sourceConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(name, sourceConfig, h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	ingestTask := tasks.NewIngestSourceTask(name, h.sourceRepo, h.orchestrator)
	if err := h.scheduler.EnqueueTask(ingestTask); err != nil {
		slog.Error("Error enqueueing ingest task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue ingest task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and tasks enqueued successfully",
		"source": gin.H{
			"name": name,
			"url":  sourceConfig.URL,
		},
		"tasks": []gin.H{
			{"id": syncTask.ID, "type": syncTask.Type},
			{"id": ingestTask.GetID(), "type": ingestTask.GetType()},
		},
	})
}
