package migrations

import (
	"context"
	"fmt"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.User)(nil),
			(*types.UserSettings)(nil),
			(*types.Scan)(nil),
			(*types.TrustedSender)(nil),
			(*types.BlockedSender)(nil),
			(*types.BlacklistEntry)(nil),
			(*types.GuardianLink)(nil),
			(*types.GuardianAlert)(nil),
			(*types.Feedback)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		// Uniqueness constraints the models rely on for their upserts
		_, err := db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_trusted_senders_user_sender
			ON trusted_senders (user_id, sender);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_blocked_senders_user_sender
			ON blocked_senders (user_id, sender);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_feedbacks_user_scan
			ON feedbacks (user_id, scan_id);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create unique indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		tables := []string{
			"feedbacks",
			"guardian_alerts",
			"guardian_links",
			"blacklist_entries",
			"blocked_senders",
			"trusted_senders",
			"scans",
			"user_settings",
			"users",
		}

		for _, table := range tables {
			if _, err := db.NewRaw(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}

		return nil
	})
}
