// Package maintenance runs the periodic housekeeping worker: it keeps the
// reputation cache warm for the most-reported entries and surfaces how many
// scans are waiting for the archiver.
package maintenance

import (
	"context"
	"fmt"
	"time"

	archiver "github.com/rakshalabs/raksha/internal/archive"
	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/redis"
	"github.com/rakshalabs/raksha/internal/reputation"
	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/rakshalabs/raksha/internal/worker/core"
	"github.com/rakshalabs/raksha/pkg/utils"
	"go.uber.org/zap"
)

const (
	// maintenanceInterval spaces runs so quiet entries never lapse between
	// runs. Actively reported entries carry shorter warm TTLs and refresh
	// from Postgres on demand instead.
	maintenanceInterval = 30 * time.Minute

	// warmBatchSize caps how many blacklist entries are re-warmed per run.
	warmBatchSize = 100
)

// Worker handles all maintenance operations.
type Worker struct {
	db         database.Client
	reputation *reputation.Manager
	reporter   *core.StatusReporter
	cutoffDays int
	logger     *zap.Logger
}

// New creates a maintenance worker from the application configuration.
func New(app *setup.App, logger *zap.Logger) (*Worker, error) {
	cacheClient, err := app.RedisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	cutoffDays := app.Config.Archive.CutoffDays
	if cutoffDays <= 0 {
		cutoffDays = archiver.DefaultCutoffDays
	}

	return &Worker{
		db:         app.DB,
		reputation: reputation.NewManager(app.DB.Model().Blacklist(), cacheClient, logger),
		reporter:   core.NewStatusReporter(app.StatusClient, "maintenance", app.Config.Worker.StatusHeartbeatSeconds, logger),
		cutoffDays: cutoffDays,
		logger:     logger.Named("maintenance_worker"),
	}, nil
}

// Start begins the maintenance worker's main loop.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Maintenance worker started",
		zap.String("workerID", w.reporter.GetWorkerID()))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		w.reporter.SetHealthy(true)

		// Step 1: Re-warm the reputation cache (50%)
		w.warmReputationCache(ctx)

		if utils.ContextGuard(ctx) {
			w.logger.Info("Context cancelled, stopping maintenance worker")
			return
		}

		// Step 2: Report purge candidates (90%)
		w.reportPurgeCandidates(ctx)

		// Step 3: Completed (100%)
		w.reporter.UpdateStatus("Completed", 100)

		if utils.ContextSleep(ctx, maintenanceInterval) == utils.SleepCancelled {
			w.logger.Info("Context cancelled, stopping maintenance worker")
			return
		}
	}
}

// warmReputationCache refreshes cache entries for the most-reported
// blacklist rows so hot lookups skip the database.
func (w *Worker) warmReputationCache(ctx context.Context) {
	w.reporter.UpdateStatus("Warming reputation cache", 50)

	entries, err := w.db.Model().Blacklist().MostReported(ctx, warmBatchSize)
	if err != nil {
		w.logger.Error("Failed to load most reported entries", zap.Error(err))
		w.reporter.SetHealthy(false)

		return
	}

	if len(entries) == 0 {
		w.logger.Debug("No blacklist entries to warm")
		return
	}

	warmed := w.reputation.Warm(ctx, entries)
	w.logger.Info("Re-warmed reputation cache", zap.Int("entries", warmed))
}

// reportPurgeCandidates counts scans old enough for the archiver and
// surfaces the number through the status heartbeat.
func (w *Worker) reportPurgeCandidates(ctx context.Context) {
	w.reporter.UpdateStatus("Counting archivable scans", 90)

	cutoff := time.Now().UTC().Add(-time.Duration(w.cutoffDays) * 24 * time.Hour)

	count, err := w.db.Model().Scan().CountOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error("Failed to count archivable scans", zap.Error(err))
		w.reporter.SetHealthy(false)

		return
	}

	if count > 0 {
		w.logger.Info("Scans awaiting archival",
			zap.Int("count", count),
			zap.Time("cutoff", cutoff))
	}

	w.reporter.UpdateStatus(fmt.Sprintf("%d scans awaiting archival", count), 95)
}
