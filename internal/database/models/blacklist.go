package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/dbretry"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BlacklistModel handles database operations for the shared reputation
// blacklist. Entries never delete; repeat reports only increment counters.
type BlacklistModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBlacklist creates a new blacklist model.
func NewBlacklist(db *bun.DB, logger *zap.Logger) *BlacklistModel {
	return &BlacklistModel{
		db:     db,
		logger: logger.Named("db_blacklist"),
	}
}

// GetByHash retrieves one entry by its normalized-value hash.
func (m *BlacklistModel) GetByHash(ctx context.Context, hash []byte) (*types.BlacklistEntry, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.BlacklistEntry, error) {
		var entry types.BlacklistEntry

		err := m.db.NewSelect().
			Model(&entry).
			Where("value_hash = ?", hash).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrBlacklistEntryNotFound
			}

			return nil, fmt.Errorf("failed to get blacklist entry: %w", err)
		}

		return &entry, nil
	})
}

// Upsert inserts a new entry or bumps the report counter of an existing one.
// Training fields on conflict are only overwritten when the incoming report
// carries them (consented submitters); a non-consented repeat report never
// erases earlier consented data. Returns the resulting reports count.
func (m *BlacklistModel) Upsert(ctx context.Context, entry *types.BlacklistEntry) (int, error) {
	now := time.Now()
	if entry.FirstReportedAt.IsZero() {
		entry.FirstReportedAt = now
	}

	entry.LastReportedAt = now
	if entry.ReportsCount == 0 {
		entry.ReportsCount = 1
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(entry).
			On("CONFLICT (value_hash) DO UPDATE").
			Set("reports_count = blacklist_entry.reports_count + 1").
			Set("last_reported_at = EXCLUDED.last_reported_at").
			Set("full_message = COALESCE(EXCLUDED.full_message, blacklist_entry.full_message)").
			Set("ai_reasoning = COALESCE(EXCLUDED.ai_reasoning, blacklist_entry.ai_reasoning)").
			Set("scam_type = COALESCE(EXCLUDED.scam_type, blacklist_entry.scam_type)").
			Set("confidence = COALESCE(EXCLUDED.confidence, blacklist_entry.confidence)").
			Set("language = COALESCE(EXCLUDED.language, blacklist_entry.language)").
			Returning("id, reports_count, verified").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert blacklist entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return entry.ReportsCount, nil
}

// SelectForTraining returns entries suitable for model training, ordered by
// confidence. Redaction of non-consented rows happens in the exporter.
func (m *BlacklistModel) SelectForTraining(
	ctx context.Context, minConfidence float64, verifiedOnly bool, limit int,
) ([]*types.BlacklistEntry, error) {
	var entries []*types.BlacklistEntry

	query := m.db.NewSelect().
		Model(&entries).
		Where("confidence IS NOT NULL").
		Where("confidence >= ?", minConfidence)

	if verifiedOnly {
		query = query.Where("verified = true")
	}

	err := query.
		Order("confidence DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select training entries: %w", err)
	}

	return entries, nil
}

// MostReported returns the hottest entries for cache re-warming, most
// recently reported first.
func (m *BlacklistModel) MostReported(ctx context.Context, limit int) ([]*types.BlacklistEntry, error) {
	var entries []*types.BlacklistEntry

	err := m.db.NewSelect().
		Model(&entries).
		Order("reports_count DESC").
		Order("last_reported_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to select most reported entries: %w", err)
	}

	return entries, nil
}
