package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/dbretry"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ScanModel handles database operations for scan records.
type ScanModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewScan creates a new scan model.
func NewScan(db *bun.DB, logger *zap.Logger) *ScanModel {
	return &ScanModel{
		db:     db,
		logger: logger.Named("db_scan"),
	}
}

// Create persists a scan record and fills in its generated ID.
// LOW verdicts must arrive with a nil Message; the preview column carries
// whatever survives for display.
func (m *ScanModel) Create(ctx context.Context, scan *types.Scan) error {
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(scan).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create scan: %w", err)
		}

		return nil
	})
}

// GetByID retrieves one scan owned by the given user.
func (m *ScanModel) GetByID(ctx context.Context, userID, scanID int64) (*types.Scan, error) {
	var scan types.Scan

	err := m.db.NewSelect().
		Model(&scan).
		Where("id = ?", scanID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrScanNotFound
		}

		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return &scan, nil
}

// Recent returns the newest scans for a user, optionally filtered to one
// risk level. Message bodies are excluded; callers only see previews.
func (m *ScanModel) Recent(ctx context.Context, userID int64, level *enum.RiskLevel, limit int) ([]*types.Scan, error) {
	var scans []*types.Scan

	query := m.db.NewSelect().
		Model(&scans).
		ExcludeColumn("message").
		Where("user_id = ?", userID)

	if level != nil {
		query = query.Where("level = ?", *level)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent scans: %w", err)
	}

	return scans, nil
}

// Stats aggregates per-level scan counts for a user.
func (m *ScanModel) Stats(ctx context.Context, userID int64) (*types.ScanStats, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.ScanStats, error) {
		var rows []struct {
			Level enum.RiskLevel `bun:"level"`
			Count int64          `bun:"count"`
		}

		err := m.db.NewSelect().
			Model((*types.Scan)(nil)).
			ColumnExpr("level, COUNT(*) AS count").
			Where("user_id = ?", userID).
			GroupExpr("level").
			Scan(ctx, &rows)
		if err != nil {
			return nil, fmt.Errorf("failed to count scans: %w", err)
		}

		stats := &types.ScanStats{}
		for _, row := range rows {
			stats.TotalScans += row.Count

			switch row.Level {
			case enum.RiskLevelHigh:
				stats.HighRisk = row.Count
			case enum.RiskLevelMedium:
				stats.MediumRisk = row.Count
			case enum.RiskLevelLow:
				stats.LowRisk = row.Count
			case enum.RiskLevelUnknown:
			}
		}

		var lastScan time.Time

		err = m.db.NewSelect().
			Model((*types.Scan)(nil)).
			Column("created_at").
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(1).
			Scan(ctx, &lastScan)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to get last scan time: %w", err)
		}

		if !lastScan.IsZero() {
			stats.LastScanAt = &lastScan
		}

		return stats, nil
	})
}

// AddFeedback records whether the user agreed with a verdict. The scan must
// belong to the user, and only one feedback row per scan is allowed.
func (m *ScanModel) AddFeedback(ctx context.Context, feedback *types.Feedback) error {
	exists, err := m.db.NewSelect().
		Model((*types.Scan)(nil)).
		Where("id = ?", feedback.ScanID).
		Where("user_id = ?", feedback.UserID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check scan: %w", err)
	}

	if !exists {
		return types.ErrScanNotFound
	}

	feedback.CreatedAt = time.Now()

	res, err := m.db.NewInsert().
		Model(feedback).
		On("CONFLICT (user_id, scan_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add feedback: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return types.ErrFeedbackExists
	}

	return nil
}

// SelectOlderThan returns scans created before the cutoff, oldest first.
// Used by the archiver to build its export batch.
func (m *ScanModel) SelectOlderThan(ctx context.Context, cutoff time.Time) ([]*types.Scan, error) {
	var scans []*types.Scan

	err := m.db.NewSelect().
		Model(&scans).
		Where("created_at < ?", cutoff).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select scans for archival: %w", err)
	}

	return scans, nil
}

// DeleteByIDs removes scans in one statement after a successful archive save.
func (m *ScanModel) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := m.db.NewDelete().
		Model((*types.Scan)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete archived scans: %w", err)
	}

	return nil
}

// CountOlderThan reports how many scans would be archived at the cutoff.
// Used by the maintenance worker to surface purge candidates.
func (m *ScanModel) CountOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	count, err := m.db.NewSelect().
		Model((*types.Scan)(nil)).
		Where("created_at < ?", cutoff).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count archivable scans: %w", err)
	}

	return count, nil
}
