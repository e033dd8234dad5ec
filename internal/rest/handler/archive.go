package handler

import (
	"fmt"
	"net/http"

	"github.com/rakshalabs/raksha/internal/archive"
	"github.com/rakshalabs/raksha/internal/database/types"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ArchiveHandler triggers archive passes on demand; the scheduled passes run
// in the worker process.
type ArchiveHandler struct {
	archiver *archive.Archiver
	logger   *zap.Logger
}

// NewArchiveHandler creates a new archive handler.
func NewArchiveHandler(archiver *archive.Archiver, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archiver: archiver,
		logger:   logger,
	}
}

// Run archives scans older than cutoff_days. An empty body or a zero cutoff
// uses the default retention window.
func (h *ArchiveHandler) Run(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.ArchiveRunRequest

	if req.ContentLength != 0 {
		if err := decodeBody(req, &body); err != nil {
			return writeError(w, h.logger, err)
		}
	}

	if body.CutoffDays < 0 {
		return writeError(w, h.logger,
			fmt.Errorf("%w: cutoff_days cannot be negative", types.ErrValidation))
	}

	result, err := h.archiver.Run(req.Context(), body.CutoffDays)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, result)
}
