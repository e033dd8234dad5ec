package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Scan history and stats lookups
			CREATE INDEX IF NOT EXISTS idx_scans_user_time
			ON scans (user_id, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_scans_user_level
			ON scans (user_id, level, created_at DESC);

			-- Archiver cutoff selection
			CREATE INDEX IF NOT EXISTS idx_scans_created_at
			ON scans (created_at);

			-- Reputation lookups hit the hash; training export scans confidence
			CREATE INDEX IF NOT EXISTS idx_blacklist_entries_confidence
			ON blacklist_entries (confidence DESC)
			WHERE confidence IS NOT NULL;

			CREATE INDEX IF NOT EXISTS idx_blacklist_entries_reports
			ON blacklist_entries (reports_count DESC, last_reported_at DESC);

			-- Guardian link graph checks run on both sides
			CREATE INDEX IF NOT EXISTS idx_guardian_links_protected
			ON guardian_links (protected_user_id, status);

			CREATE INDEX IF NOT EXISTS idx_guardian_links_guardian
			ON guardian_links (guardian_user_id, status);

			-- Guardian inbox
			CREATE INDEX IF NOT EXISTS idx_guardian_alerts_guardian_status
			ON guardian_alerts (guardian_user_id, status, created_at DESC);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_scans_user_time;
			DROP INDEX IF EXISTS idx_scans_user_level;
			DROP INDEX IF EXISTS idx_scans_created_at;
			DROP INDEX IF EXISTS idx_blacklist_entries_confidence;
			DROP INDEX IF EXISTS idx_blacklist_entries_reports;
			DROP INDEX IF EXISTS idx_guardian_links_protected;
			DROP INDEX IF EXISTS idx_guardian_links_guardian;
			DROP INDEX IF EXISTS idx_guardian_alerts_guardian_status;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
