package handler

import (
	"net/http"

	"github.com/rakshalabs/raksha/internal/rest/convert"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/rakshalabs/raksha/internal/worker/core"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// StatusHandler exposes worker heartbeats for operators.
type StatusHandler struct {
	monitor *core.Monitor
	logger  *zap.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(monitor *core.Monitor, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		monitor: monitor,
		logger:  logger,
	}
}

// Workers lists every worker heartbeat still present in redis.
func (h *StatusHandler) Workers(w http.ResponseWriter, req bunrouter.Request) error {
	statuses, err := h.monitor.GetAllStatuses(req.Context())
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.WorkersResponse{
		Workers: convert.WorkerStatuses(statuses),
	})
}
