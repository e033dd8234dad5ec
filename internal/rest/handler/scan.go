package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection"
	"github.com/rakshalabs/raksha/internal/rest/convert"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	// MaxBatchItems bounds one batch analyze call.
	MaxBatchItems = 50

	// batchConcurrency caps parallel pipeline runs per batch request.
	batchConcurrency = 8

	// maxImageMemory is the in-memory budget for parsing multipart uploads.
	maxImageMemory = 10 << 20

	defaultScanPageSize = 20
	maxScanPageSize     = 100
)

// ScanHandler serves analysis, scan history, and feedback endpoints.
type ScanHandler struct {
	pipeline *detection.Pipeline
	db       database.Client
	logger   *zap.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(pipeline *detection.Pipeline, db database.Client, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{
		pipeline: pipeline,
		db:       db,
		logger:   logger,
	}
}

// Analyze runs one artifact through the detection pipeline and answers with
// the verdict, its explanation, and the persisted scan ID.
func (h *ScanHandler) Analyze(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.AnalyzeRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	verdict, err := h.pipeline.Analyze(req.Context(), &detection.Request{
		Content:     body.Content,
		Sender:      body.Sender,
		ContentType: detection.NormalizeContentType(body.ContentType),
		UserID:      userID,
		Platform:    enum.NormalizePlatform(body.Platform),
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Verdict(verdict))
}

// AnalyzeBatch runs up to MaxBatchItems artifacts concurrently. Items fail
// independently; the response reports every item in submission order.
func (h *ScanHandler) AnalyzeBatch(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.BatchAnalyzeRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	if len(body.Items) == 0 {
		return writeError(w, h.logger, fmt.Errorf("%w: empty batch", types.ErrValidation))
	}

	if len(body.Items) > MaxBatchItems {
		return writeError(w, h.logger,
			fmt.Errorf("%w: batch exceeds %d items", types.ErrValidation, MaxBatchItems))
	}

	results := make([]restTypes.BatchItemResult, len(body.Items))

	p := pool.New().WithMaxGoroutines(batchConcurrency)
	for i, item := range body.Items {
		p.Go(func() {
			verdict, err := h.pipeline.Analyze(req.Context(), &detection.Request{
				Content:     item.Content,
				Sender:      item.Sender,
				ContentType: detection.NormalizeContentType(item.ContentType),
				UserID:      userID,
				Platform:    enum.NormalizePlatform(item.Platform),
			})
			if err != nil {
				results[i] = restTypes.BatchItemResult{Index: i, Error: itemError(err)}
				return
			}

			results[i] = restTypes.BatchItemResult{Index: i, Result: convert.Verdict(verdict)}
		})
	}

	p.Wait()

	resp := restTypes.BatchAnalyzeResponse{Results: results}

	for _, result := range results {
		if result.Error != "" {
			resp.Failed++
		} else {
			resp.Analyzed++
		}
	}

	return bunrouter.JSON(w, resp)
}

// itemError keeps non-validation failures opaque inside batch results.
func itemError(err error) string {
	if errors.Is(err, types.ErrValidation) {
		return err.Error()
	}

	return "analysis failed"
}

// AnalyzeImage classifies a message screenshot. The image arrives either as
// a multipart upload with an "image" part or as a JSON body with base64
// bytes.
func (h *ScanHandler) AnalyzeImage(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	imageReq, err := parseImageRequest(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	imageReq.UserID = userID

	verdict, err := h.pipeline.AnalyzeImage(req.Context(), imageReq)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Verdict(verdict))
}

func parseImageRequest(req bunrouter.Request) (*detection.ImageRequest, error) {
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
		if err := req.ParseMultipartForm(maxImageMemory); err != nil {
			return nil, fmt.Errorf("%w: malformed multipart body", types.ErrValidation)
		}

		file, header, err := req.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("%w: missing image part", types.ErrValidation)
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, ai.MaxImageBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read image part: %w", err)
		}

		return &detection.ImageRequest{
			Data:     data,
			MimeType: header.Header.Get("Content-Type"),
			Sender:   req.FormValue("sender"),
			Platform: enum.NormalizePlatform(req.FormValue("platform")),
		}, nil
	}

	var body restTypes.ImageAnalyzeRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(body.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: image_base64 is not valid base64", types.ErrValidation)
	}

	return &detection.ImageRequest{
		Data:     data,
		MimeType: body.MimeType,
		Sender:   body.Sender,
		Platform: enum.NormalizePlatform(body.Platform),
	}, nil
}

// List returns the caller's recent scans, previews only, optionally filtered
// by risk level.
func (h *ScanHandler) List(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	limit, err := queryInt(req, "limit", defaultScanPageSize)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if limit <= 0 || limit > maxScanPageSize {
		limit = defaultScanPageSize
	}

	var level *enum.RiskLevel

	if raw := req.URL.Query().Get("level"); raw != "" {
		switch parsed := enum.RiskLevel(raw); parsed {
		case enum.RiskLevelHigh, enum.RiskLevelMedium, enum.RiskLevelLow, enum.RiskLevelUnknown:
			level = &parsed
		default:
			return writeError(w, h.logger, fmt.Errorf("%w: unknown level %q", types.ErrValidation, raw))
		}
	}

	scans, err := h.db.Model().Scan().Recent(req.Context(), userID, level, limit)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.ListScansResponse{
		Scans: convert.Scans(scans),
		Count: len(scans),
	})
}

// Stats aggregates the caller's scan history per risk level.
func (h *ScanHandler) Stats(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	stats, err := h.db.Model().Scan().Stats(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	blocked, err := h.db.Model().Sender().CountBlocked(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	stats.BlockedSenders = int64(blocked)

	return bunrouter.JSON(w, convert.ScanStats(stats))
}

// Feedback records whether the caller agreed with a verdict. One feedback
// row per scan; repeats answer 409.
func (h *ScanHandler) Feedback(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	scanID, err := paramInt64(req, "id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.FeedbackRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	if body.WasCorrect == nil {
		return writeError(w, h.logger, fmt.Errorf("%w: was_correct is required", types.ErrValidation))
	}

	err = h.db.Model().Scan().AddFeedback(req.Context(), &types.Feedback{
		UserID:     userID,
		ScanID:     scanID,
		WasCorrect: *body.WasCorrect,
		Comment:    body.Comment,
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
