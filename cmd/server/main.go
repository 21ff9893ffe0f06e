// Package main is the entry point for the Sentinel intelligence-enrichment
// engine. Given a target domain, it runs a DAG of intelligence modules
// across four dependency waves against external data sources, producing a
// fully source-cited intelligence record.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/sentinel/internal/batch"
	"github.com/aristath/sentinel/internal/citationstore"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/enrichment"
	"github.com/aristath/sentinel/internal/modules"
	"github.com/aristath/sentinel/internal/progress"
	"github.com/aristath/sentinel/internal/scheduler"
	"github.com/aristath/sentinel/internal/server"
	"github.com/aristath/sentinel/internal/snapshotstore"
	"github.com/aristath/sentinel/internal/sysmetrics"
	"github.com/aristath/sentinel/pkg/logger"
)

// main orchestrates the application's startup sequence:
//  1. Load configuration from environment variables.
//  2. Initialize structured logging.
//  3. Build the module registry and the wave-scheduled orchestrator.
//  4. Open the citation audit ledger and, if configured, the S3 snapshot store.
//  5. Wire the batch orchestrator and progress tracker on top of the orchestrator.
//  6. Start the optional nightly watchlist re-enrichment job.
//  7. Start the HTTP server.
//  8. Wait for a shutdown signal and drain gracefully.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	log.Info().Msg("starting sentinel enrichment engine")

	registry := modules.NewDefaultRegistry()

	orchCfg := enrichment.DefaultOrchestratorConfig()
	orchCfg.JobTimeoutSeconds = cfg.JobTimeoutSeconds
	if len(cfg.CriticalModules) > 0 {
		orchCfg.CriticalModules = cfg.CriticalModules
	}
	orchestrator := enrichment.NewOrchestrator(registry, orchCfg, log)
	log.Info().Int("waves", len(orchestrator.Plan().Waves)).Msg("execution plan built")

	citationStore, err := citationstore.New(filepath.Join(cfg.DataDir, "citations.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open citation store")
	}
	defer citationStore.Close()
	log.Info().Msg("citation store opened")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	snapStore, err := snapshotstore.New(startupCtx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	startupCancel()
	if err != nil {
		log.Warn().Err(err).Msg("snapshot store unavailable, continuing without S3 snapshotting")
	} else if snapStore == nil {
		log.Info().Msg("snapshot store disabled (no bucket configured)")
	} else {
		log.Info().Str("bucket", cfg.S3Bucket).Msg("snapshot store opened")
	}

	progressManager := progress.NewManager()
	batchOrch := batch.NewBatchOrchestrator(orchestrator, batch.Config{MaxConcurrent: cfg.MaxConcurrentJobs})
	metricsCollector := sysmetrics.NewCollector()

	cron := scheduler.New(log)
	if cfg.CronSpec != "" {
		job := scheduler.NewWatchlistJob(scheduler.WatchlistJobConfig{
			Log:           log,
			WatchlistPath: filepath.Join(cfg.DataDir, "watchlist.json"),
			Batch:         batchOrch,
			CitationStore: citationStore,
			SnapshotStore: snapStore,
		})
		if err := cron.AddJob(cfg.CronSpec, job); err != nil {
			log.Error().Err(err).Msg("failed to register nightly watchlist job")
		} else {
			cron.Start()
			defer cron.Stop()
		}
	}

	srv := server.New(server.Config{
		Log:           log,
		Port:          cfg.Port,
		DevMode:       cfg.DevMode,
		Orchestrator:  orchestrator,
		Batch:         batchOrch,
		Progress:      progressManager,
		CitationStore: citationStore,
		SnapshotStore: snapStore,
		SysMetrics:    metricsCollector,
		JobTimeout:    time.Duration(cfg.JobTimeoutSeconds) * time.Second,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("server started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}
