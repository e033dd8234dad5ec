package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/export"
	"github.com/rakshalabs/raksha/internal/export/jsonl"
	"github.com/rakshalabs/raksha/internal/reputation"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	// defaultExportLimit keeps inline export responses modest; bulk pulls go
	// through the export CLI.
	defaultExportLimit = 1000
	maxExportLimit     = 10000
)

// ReputationHandler serves the community blacklist endpoints.
type ReputationHandler struct {
	manager *reputation.Manager
	db      database.Client
	logger  *zap.Logger
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(manager *reputation.Manager, db database.Client, logger *zap.Logger) *ReputationHandler {
	return &ReputationHandler{
		manager: manager,
		db:      db,
		logger:  logger,
	}
}

// Report files one community report against a scam artifact and answers with
// the updated report tally.
func (h *ReputationHandler) Report(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.ReportRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	count, err := h.manager.Report(req.Context(), &reputation.ReportInput{
		Value:      body.Value,
		Type:       body.Type,
		ReportedBy: userID,
		Reason:     body.Reason,
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.ReportResponse{ReportsCount: count})
}

// Check looks one artifact up in the blacklist. Negative lookups answer 200
// with is_blacklisted false; they are not errors.
func (h *ReputationHandler) Check(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	value := query.Get("value")
	if value == "" {
		return writeError(w, h.logger, fmt.Errorf("%w: value is required", types.ErrValidation))
	}

	artifactType := query.Get("type")
	if !enum.ValidBlacklistType(artifactType) {
		return writeError(w, h.logger,
			fmt.Errorf("%w: unknown artifact type %q", types.ErrValidation, artifactType))
	}

	hit, err := h.manager.Check(req.Context(), value, enum.BlacklistType(artifactType))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, hit)
}

// Export returns training samples inline. Only jsonl and csv shapes are
// served over HTTP; sqlite exports are file-only through the export CLI.
func (h *ReputationHandler) Export(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	format := query.Get("format")
	if format == "" {
		format = string(export.FormatJSONL)
	}

	minConfidence := export.DefaultMinConfidence

	if raw := query.Get("min_confidence"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return writeError(w, h.logger,
				fmt.Errorf("%w: min_confidence must be between 0 and 1", types.ErrValidation))
		}

		minConfidence = parsed
	}

	verifiedOnly := query.Get("verified_only") == "true"

	limit, err := queryInt(req, "limit", defaultExportLimit)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if limit <= 0 || limit > maxExportLimit {
		limit = defaultExportLimit
	}

	entries, err := h.db.Model().Blacklist().SelectForTraining(req.Context(), minConfidence, verifiedOnly, limit)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	samples := export.ToTrainingSamples(entries)

	resp := restTypes.ExportResponse{
		Format:        format,
		TotalEntries:  len(samples),
		MinConfidence: minConfidence,
		VerifiedOnly:  verifiedOnly,
	}

	switch export.Format(format) {
	case export.FormatJSONL:
		resp.Data = jsonl.Records(samples)
	case export.FormatCSV:
		resp.Data = samples
	default:
		return writeError(w, h.logger,
			fmt.Errorf("%w: inline export supports jsonl and csv, not %q", types.ErrValidation, format))
	}

	return bunrouter.JSON(w, resp)
}
