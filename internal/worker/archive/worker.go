// Package archive runs the scheduled worker that drains aged scans to cold
// storage.
package archive

import (
	"context"
	"time"

	archiver "github.com/rakshalabs/raksha/internal/archive"
	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/rakshalabs/raksha/internal/worker/core"
	"github.com/rakshalabs/raksha/pkg/utils"
	"go.uber.org/zap"
)

const (
	// defaultIntervalHours spaces archive runs one day apart when no interval
	// is configured.
	defaultIntervalHours = 24

	// errorRetryInterval is how long a failed run waits before retrying,
	// instead of sitting out the full interval.
	errorRetryInterval = 15 * time.Minute
)

// Worker periodically archives scans past the configured age.
type Worker struct {
	archiver   *archiver.Archiver
	reporter   *core.StatusReporter
	interval   time.Duration
	cutoffDays int
	logger     *zap.Logger
}

// New creates an archive worker from the application configuration.
func New(app *setup.App, logger *zap.Logger) (*Worker, error) {
	provider, err := archiver.NewProvider(&app.Config.Archive, logger)
	if err != nil {
		return nil, err
	}

	hours := app.Config.Archive.IntervalHours
	if hours <= 0 {
		hours = defaultIntervalHours
	}

	return &Worker{
		archiver:   archiver.New(app.DB.Model().Scan(), provider, logger),
		reporter:   core.NewStatusReporter(app.StatusClient, "archive", app.Config.Worker.StatusHeartbeatSeconds, logger),
		interval:   time.Duration(hours) * time.Hour,
		cutoffDays: app.Config.Archive.CutoffDays,
		logger:     logger.Named("archive_worker"),
	}, nil
}

// Start begins the archive worker's main loop.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Archive worker started",
		zap.String("workerID", w.reporter.GetWorkerID()),
		zap.Duration("interval", w.interval))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		w.reporter.SetHealthy(true)
		w.reporter.UpdateStatus("Archiving old scans", 50)

		result, err := w.archiver.Run(ctx, w.cutoffDays)
		if err != nil {
			w.logger.Error("Archive run failed", zap.Error(err))
			w.reporter.SetHealthy(false)

			if !utils.ErrorSleep(ctx, errorRetryInterval, w.logger, "archive worker") {
				return
			}

			continue
		}

		switch {
		case result.Warning != "":
			w.logger.Warn("Archive run needs reconciliation",
				zap.String("warning", result.Warning),
				zap.String("path", result.Path))
			w.reporter.SetHealthy(false)
		case result.ArchivedCount > 0:
			w.logger.Info("Archive run completed",
				zap.Int("archived", result.ArchivedCount),
				zap.String("path", result.Path),
				zap.String("provider", result.Provider))
		}

		w.reporter.UpdateStatus("Waiting for next run", 100)

		if utils.ContextSleep(ctx, w.interval) == utils.SleepCancelled {
			w.logger.Info("Context cancelled, stopping archive worker")
			return
		}
	}
}
