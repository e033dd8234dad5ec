// Package archive drains aged scans from the hot database into cold file
// storage. Rows are deleted only after the archive file is safely written,
// so a failed run never loses data.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types"
	"go.uber.org/zap"
)

// DefaultCutoffDays is the scan age used when no cutoff is configured.
const DefaultCutoffDays = 180

const archiveTimeFormat = "20060102T150405Z"

// ScanStore is the database surface the archiver needs.
type ScanStore interface {
	SelectOlderThan(ctx context.Context, cutoff time.Time) ([]*types.Scan, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// Result reports what one archive run did. Warning is set when the archive
// file was written but the database delete failed; the operator reconciles
// using Path.
type Result struct {
	ArchivedCount int    `json:"archived_count"`
	Path          string `json:"path,omitempty"`
	Provider      string `json:"provider,omitempty"`
	Warning       string `json:"warning,omitempty"`
}

// Archiver moves old scans to a storage provider as NDJSON.
type Archiver struct {
	scans   ScanStore
	storage StorageProvider
	logger  *zap.Logger
}

// New creates an archiver backed by the given store and storage provider.
func New(scans ScanStore, storage StorageProvider, logger *zap.Logger) *Archiver {
	return &Archiver{
		scans:   scans,
		storage: storage,
		logger:  logger.Named("archiver"),
	}
}

// Run archives every scan older than cutoffDays. The rows are deleted only
// after the archive file is written; a delete failure is reported through
// Result.Warning rather than an error so the saved file is not re-archived
// blindly.
func (a *Archiver) Run(ctx context.Context, cutoffDays int) (*Result, error) {
	if cutoffDays <= 0 {
		cutoffDays = DefaultCutoffDays
	}

	cutoff := time.Now().UTC().Add(-time.Duration(cutoffDays) * 24 * time.Hour)

	scans, err := a.scans.SelectOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	if len(scans) == 0 {
		a.logger.Debug("No scans old enough to archive",
			zap.Time("cutoff", cutoff))

		return &Result{}, nil
	}

	content, err := encodeScans(scans)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("scans_%s.jsonl", time.Now().UTC().Format(archiveTimeFormat))

	path, err := a.storage.Save(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save archive: %w", err)
	}

	a.logger.Info("Archived scans",
		zap.Int("count", len(scans)),
		zap.String("path", path),
		zap.String("provider", a.storage.Name()))

	ids := make([]int64, len(scans))
	for i, scan := range scans {
		ids[i] = scan.ID
	}

	result := &Result{
		ArchivedCount: len(scans),
		Path:          path,
		Provider:      a.storage.Name(),
	}

	if err := a.scans.DeleteByIDs(ctx, ids); err != nil {
		a.logger.Error("Archive cleanup failed",
			zap.String("path", path),
			zap.Error(err))

		result.Warning = "archive file created but database delete failed"

		return result, nil
	}

	a.logger.Info("Deleted archived scans", zap.Int("count", len(ids)))

	return result, nil
}

// encodeScans serializes scans as NDJSON, one line per scan. Scans stored
// without a body fall back to their preview.
func encodeScans(scans []*types.Scan) ([]byte, error) {
	var buf bytes.Buffer

	for _, scan := range scans {
		message := scan.Preview
		if scan.Message != nil {
			message = *scan.Message
		}

		line, err := sonic.Marshal(types.ArchivedScan{
			ID:        scan.ID,
			UserID:    scan.UserID,
			Sender:    scan.Sender,
			Message:   message,
			RiskLevel: scan.Level,
			CreatedAt: scan.CreatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode scan %d: %w", scan.ID, err)
		}

		buf.Write(line)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
