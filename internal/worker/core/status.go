// Package core provides the shared worker plumbing: status heartbeats kept
// in redis so operators can see which workers are alive and what they are
// doing.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// DefaultHeartbeatInterval is how often workers report their status when
	// no interval is configured.
	DefaultHeartbeatInterval = 10 * time.Second

	// HeartbeatTTL is how long a worker's status remains in redis. A worker
	// that stops heartbeating simply ages out.
	HeartbeatTTL = 90 * time.Second

	// StaleThreshold is how long before a still-present worker is considered
	// offline.
	StaleThreshold = 1 * time.Minute

	// statusKeyPrefix namespaces heartbeat keys in the status database.
	statusKeyPrefix = "worker_status:"
)

// Status represents a worker's current state.
type Status struct {
	WorkerID    string    `json:"workerId"`
	WorkerType  string    `json:"workerType"`
	LastSeen    time.Time `json:"lastSeen"`
	CurrentTask string    `json:"currentTask,omitempty"`
	Progress    int       `json:"progress"`
	IsHealthy   bool      `json:"isHealthy"`
}

// Stale reports whether the worker has not been seen recently enough to be
// trusted as running.
func (s Status) Stale() bool {
	return time.Since(s.LastSeen) > StaleThreshold
}

// Monitor handles worker status reporting and querying.
type Monitor struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewMonitor creates a new worker status monitor.
func NewMonitor(client rueidis.Client, logger *zap.Logger) *Monitor {
	return &Monitor{
		client: client,
		logger: logger,
	}
}

// ReportStatus updates a worker's status in redis with a TTL.
func (m *Monitor) ReportStatus(ctx context.Context, status Status) error {
	status.LastSeen = time.Now()

	data, err := sonic.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	key := fmt.Sprintf("%s%s:%s", statusKeyPrefix, status.WorkerType, status.WorkerID)

	err = m.client.Do(ctx, m.client.B().Set().Key(key).Value(string(data)).Ex(HeartbeatTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to store status: %w", err)
	}

	return nil
}

// GetAllStatuses retrieves every live worker status. Malformed or vanished
// entries are skipped, not fatal.
func (m *Monitor) GetAllStatuses(ctx context.Context) ([]Status, error) {
	keys, err := m.client.Do(ctx, m.client.B().Keys().Pattern(statusKeyPrefix+"*").Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to get worker keys: %w", err)
	}

	statuses := make([]Status, 0, len(keys))

	for _, key := range keys {
		data, err := m.client.Do(ctx, m.client.B().Get().Key(key).Build()).AsBytes()
		if err != nil {
			if !rueidis.IsRedisNil(err) {
				m.logger.Error("Failed to get worker status", zap.String("key", key), zap.Error(err))
			}

			continue
		}

		var status Status
		if err := sonic.Unmarshal(data, &status); err != nil {
			m.logger.Error("Failed to unmarshal worker status", zap.String("key", key), zap.Error(err))
			continue
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}
