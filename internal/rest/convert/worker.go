package convert

import (
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/rakshalabs/raksha/internal/worker/core"
)

// WorkerStatuses converts worker heartbeats, resolving staleness at call
// time.
func WorkerStatuses(statuses []core.Status) []restTypes.WorkerStatusResponse {
	result := make([]restTypes.WorkerStatusResponse, len(statuses))
	for i, s := range statuses {
		result[i] = restTypes.WorkerStatusResponse{
			WorkerID:    s.WorkerID,
			WorkerType:  s.WorkerType,
			CurrentTask: s.CurrentTask,
			Progress:    s.Progress,
			IsHealthy:   s.IsHealthy,
			Stale:       s.Stale(),
			LastSeen:    s.LastSeen,
		}
	}

	return result
}
