package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakshalabs/raksha/internal/setup"
	"github.com/rakshalabs/raksha/internal/setup/logging"
	"github.com/rakshalabs/raksha/internal/worker/archive"
	"github.com/rakshalabs/raksha/internal/worker/maintenance"
	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// ArchiveWorker moves expired scans into cold storage.
	ArchiveWorker = "archive"

	// MaintenanceWorker prunes stale OTPs, alerts, and cache entries.
	MaintenanceWorker = "maintenance"

	// restartDelay is how long a crashed worker waits before restarting.
	restartDelay = 5 * time.Second
)

// worker is the common surface of the background loops. Start blocks until
// the context is cancelled.
type worker interface {
	Start(ctx context.Context)
}

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start a raksha background worker",
		Commands: []*cli.Command{
			{
				Name:  ArchiveWorker,
				Usage: "Start the scan archive worker",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runWorker(ctx, ArchiveWorker)
				},
			},
			{
				Name:  MaintenanceWorker,
				Usage: "Start the retention maintenance worker",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runWorker(ctx, MaintenanceWorker)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, os.Args)
}

// runWorker initializes the application and runs one worker until the
// context is cancelled, restarting it after panics.
func runWorker(ctx context.Context, workerType string) error {
	app, err := setup.InitializeApp(ctx, WorkerLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(context.Background())

	// Stagger startup so workers do not hammer the database together after
	// a fleet-wide restart.
	if delay := app.Config.Worker.StartupDelay; delay > 0 {
		if utils.ContextSleep(ctx, time.Duration(delay)*time.Millisecond) == utils.SleepCancelled {
			return nil
		}
	}

	// Each worker writes to its own file in the session directory.
	logger := logging.WorkerLogger(
		fmt.Sprintf("%s_worker", workerType), WorkerLogDir, app.Config.Debug.LogLevel)

	var w worker

	switch workerType {
	case ArchiveWorker:
		w, err = archive.New(app, logger)
	case MaintenanceWorker:
		w, err = maintenance.New(app, logger)
	default:
		return fmt.Errorf("invalid worker type: %s", workerType)
	}

	if err != nil {
		return fmt.Errorf("failed to create %s worker: %w", workerType, err)
	}

	log.Printf("Started %s worker", workerType)
	runLoop(ctx, w, logger)
	log.Println("Worker has finished. Exiting.")

	return nil
}

// runLoop runs a worker with panic recovery, restarting it until the
// context is cancelled.
func runLoop(ctx context.Context, w worker, logger *zap.Logger) {
	for {
		if ctx.Err() != nil {
			logger.Info("Context cancelled, stopping worker")
			return
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Worker execution failed",
						zap.String("worker_type", fmt.Sprintf("%T", w)),
						zap.Any("panic", r),
					)
				}
			}()

			logger.Info("Starting worker")
			w.Start(ctx)
		}()

		if ctx.Err() != nil {
			continue
		}

		logger.Warn("Worker stopped unexpectedly, restarting in 5 seconds",
			zap.String("worker_type", fmt.Sprintf("%T", w)),
		)

		if utils.ContextSleep(ctx, restartDelay) == utils.SleepCancelled {
			return
		}
	}
}
