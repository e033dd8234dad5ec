package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// StatusReporter handles automatic status reporting for workers.
type StatusReporter struct {
	monitor  *Monitor
	status   Status
	interval time.Duration
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewStatusReporter creates a new status reporter for a worker. A
// non-positive heartbeatSeconds falls back to the default interval.
func NewStatusReporter(client rueidis.Client, workerType string, heartbeatSeconds int, logger *zap.Logger) *StatusReporter {
	interval := DefaultHeartbeatInterval
	if heartbeatSeconds > 0 {
		interval = time.Duration(heartbeatSeconds) * time.Second
	}

	return &StatusReporter{
		monitor: NewMonitor(client, logger),
		status: Status{
			WorkerID:   uuid.New().String(),
			WorkerType: workerType,
			IsHealthy:  true,
		},
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logger.Named("status_reporter"),
	}
}

// Start begins periodic status reporting until the context is cancelled or
// Stop is called.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()

	if r.stopped {
		r.mu.Unlock()
		return
	}

	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		// Report initial status
		r.report(ctx)

		for {
			select {
			case <-ticker.C:
				r.report(ctx)
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}()
}

// report snapshots the current status under the lock and sends it.
func (r *StatusReporter) report(ctx context.Context) {
	r.mu.Lock()
	status := r.status
	r.mu.Unlock()

	if err := r.monitor.ReportStatus(ctx, status); err != nil {
		r.logger.Error("Failed to report status", zap.Error(err))
	}
}

// Stop ends status reporting.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.stopped {
		close(r.stopChan)
		r.stopped = true
	}
}

// UpdateStatus updates the current task and progress.
func (r *StatusReporter) UpdateStatus(task string, progress int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.CurrentTask = task
	r.status.Progress = progress
}

// SetHealthy updates the health status.
func (r *StatusReporter) SetHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.IsHealthy = healthy
}

// GetWorkerID returns the unique worker ID.
func (r *StatusReporter) GetWorkerID() string {
	return r.status.WorkerID
}
