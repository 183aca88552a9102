package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/api"
	"github.com/CornerLeague/Media-Page-sub001/app/cache"
	"github.com/CornerLeague/Media-Page-sub001/app/cfg"
	"github.com/CornerLeague/Media-Page-sub001/app/database"
	"github.com/CornerLeague/Media-Page-sub001/app/dedup"
	"github.com/CornerLeague/Media-Page-sub001/app/feed"
	"github.com/CornerLeague/Media-Page-sub001/app/ingestion"
	"github.com/CornerLeague/Media-Page-sub001/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Corner League Media ingestion service", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	sourceRepo := database.NewSourceRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)
	articleRepo := database.NewArticleRepository(db)

	resolverCache := newResolverCache(appCfg.RedisAddr)
	resolver := feed.NewTeamResolver(resolverCache)
	classifier := feed.NewClassifier(resolver)
	parser := feed.NewArticleParser()
	fetcher := feed.NewFetcher(&http.Client{Timeout: 30 * time.Second}, appCfg.UserAgent)
	hasher := dedup.NewMinHasher(appCfg.MinHashPermutations, appCfg.MinHashSeed)

	snapshotProc := ingestion.NewSnapshotProcessor(snapshotRepo, hasher)
	contentProc := ingestion.NewContentProcessor(snapshotRepo, articleRepo, parser, classifier, hasher,
		appCfg.NearDupThreshold, time.Duration(appCfg.NearDupWindowDays)*24*time.Hour)
	orchestrator := ingestion.NewOrchestrator(sourceRepo, fetcher, snapshotProc, contentProc,
		time.Duration(appCfg.MinRefetchInterval)*time.Minute)

	syncSources(configCache, sourceRepo)

	if appCfg.RunOnce {
		os.Exit(runOnce(orchestrator, appCfg))
	}

	runServer(appCfg, configCache, sourceRepo, snapshotRepo, articleRepo, orchestrator)
}

func newResolverCache(redisAddr string) cache.Cache {
	if redisAddr == "" {
		return cache.NewMemoryCache(cache.DefaultMemoryCacheSize)
	}

	redisCache, err := cache.NewRedisCache(redisAddr)
	if err != nil {
		slog.Warn("Redis unavailable, falling back to in-memory cache", "addr", redisAddr, "error", err)
		return cache.NewMemoryCache(cache.DefaultMemoryCacheSize)
	}
	slog.Info("Using Redis resolver cache", "addr", redisAddr)
	return redisCache
}

// syncSources mirrors every loaded configuration into the sources table so
// the pipeline and the scheduler see them immediately.
func syncSources(configCache *feed.ConfigCache, sourceRepo database.SourceRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, sourceConfig := range configCache.GetConfigs() {
		task := tasks.NewSyncSourceConfigTask(sourceConfig.Name, sourceConfig, sourceRepo)
		if err := task.Execute(ctx); err != nil {
			slog.Warn("Failed to register source", "source", sourceConfig.Name, "error", err)
		}
	}
}

func runOnce(orchestrator *ingestion.Orchestrator, appCfg *cfg.Cfg) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sourceNames []string
	if appCfg.SourceName != "" {
		sourceNames = strings.Split(appCfg.SourceName, ",")
	}

	metrics, err := orchestrator.RunCycle(ctx, sourceNames, appCfg.ForceFetch)
	if err != nil {
		slog.Error("Ingestion cycle failed", "error", err)
		return 1
	}

	fmt.Printf("Sources processed: %d\n", metrics.SourcesProcessed)
	fmt.Printf("Items fetched:     %d\n", metrics.FetchedItems)
	fmt.Printf("Articles stored:   %d\n", metrics.ProcessedItems)
	fmt.Printf("Near duplicates:   %d (%.1f%%)\n", metrics.DuplicatesFound, metrics.DuplicateRate())
	fmt.Printf("Errors:            %d\n", metrics.Errors)
	fmt.Printf("Success rate:      %.1f%%\n", metrics.SuccessRate())
	fmt.Printf("Elapsed:           %s\n", metrics.Elapsed.Round(time.Millisecond))

	return 0
}

func runServer(appCfg *cfg.Cfg, configCache *feed.ConfigCache,
	sourceRepo database.SourceRepository, snapshotRepo database.SnapshotRepository,
	articleRepo database.ArticleRepository, orchestrator *ingestion.Orchestrator) {

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, sourceRepo, orchestrator)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, sourceRepo, snapshotRepo, articleRepo, scheduler, orchestrator, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
