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

// GuardianModel handles database operations for guardian links and alerts.
type GuardianModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGuardian creates a new guardian model.
func NewGuardian(db *bun.DB, logger *zap.Logger) *GuardianModel {
	return &GuardianModel{
		db:     db,
		logger: logger.Named("db_guardian"),
	}
}

// HasActiveAsGuardian reports whether the user guards anyone. Used to keep
// the link graph bipartite: someone who guards cannot become protected.
func (m *GuardianModel) HasActiveAsGuardian(ctx context.Context, userID int64) (bool, error) {
	exists, err := m.db.NewSelect().
		Model((*types.GuardianLink)(nil)).
		Where("guardian_user_id = ?", userID).
		Where("status = ?", enum.LinkStatusActive).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check guardian links: %w", err)
	}

	return exists, nil
}

// HasActiveAsProtected reports whether the user is guarded by anyone.
func (m *GuardianModel) HasActiveAsProtected(ctx context.Context, userID int64) (bool, error) {
	exists, err := m.db.NewSelect().
		Model((*types.GuardianLink)(nil)).
		Where("protected_user_id = ?", userID).
		Where("status = ?", enum.LinkStatusActive).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check protected links: %w", err)
	}

	return exists, nil
}

// FindActiveLink retrieves the active link between a protected user and a
// guardian, if one exists.
func (m *GuardianModel) FindActiveLink(ctx context.Context, protectedID, guardianID int64) (*types.GuardianLink, error) {
	var link types.GuardianLink

	err := m.db.NewSelect().
		Model(&link).
		Where("protected_user_id = ?", protectedID).
		Where("guardian_user_id = ?", guardianID).
		Where("status = ?", enum.LinkStatusActive).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrLinkNotFound
		}

		return nil, fmt.Errorf("failed to find link: %w", err)
	}

	return &link, nil
}

// ActiveLinksForProtected returns all active links where the user is the
// protected side. This is the fan-out set for their scans.
func (m *GuardianModel) ActiveLinksForProtected(ctx context.Context, userID int64) ([]*types.GuardianLink, error) {
	var links []*types.GuardianLink

	err := m.db.NewSelect().
		Model(&links).
		Where("protected_user_id = ?", userID).
		Where("status = ?", enum.LinkStatusActive).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	return links, nil
}

// CreateLink inserts a verified, active guardian link.
func (m *GuardianModel) CreateLink(ctx context.Context, link *types.GuardianLink) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	_, err := m.db.NewInsert().
		Model(link).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// DeleteLink revokes a link by hard delete. Either side of the link may
// revoke it.
func (m *GuardianModel) DeleteLink(ctx context.Context, linkID, requesterID int64) error {
	res, err := m.db.NewDelete().
		Model((*types.GuardianLink)(nil)).
		Where("id = ?", linkID).
		WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.
				Where("protected_user_id = ?", requesterID).
				WhereOr("guardian_user_id = ?", requesterID)
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return types.ErrLinkNotFound
	}

	return nil
}

// ListGuardians returns the protected user's active guardians with their
// contact details.
func (m *GuardianModel) ListGuardians(ctx context.Context, protectedID int64) ([]*types.LinkedGuardian, error) {
	var guardians []*types.LinkedGuardian

	err := m.db.NewSelect().
		Model((*types.GuardianLink)(nil)).
		ColumnExpr("guardian_link.id AS link_id").
		ColumnExpr("u.id AS guardian_id").
		ColumnExpr("u.display_name").
		ColumnExpr("u.email").
		ColumnExpr("guardian_link.verified_at").
		Join("JOIN users AS u ON u.id = guardian_link.guardian_user_id").
		Where("guardian_link.protected_user_id = ?", protectedID).
		Where("guardian_link.status = ?", enum.LinkStatusActive).
		Order("guardian_link.created_at DESC").
		Scan(ctx, &guardians)
	if err != nil {
		return nil, fmt.Errorf("failed to list guardians: %w", err)
	}

	return guardians, nil
}

// CreateAlerts inserts one pending alert per guardian and marks the scan as
// alerted, all in one transaction so the alert rows and the scan flag can
// never disagree.
func (m *GuardianModel) CreateAlerts(ctx context.Context, scanID int64, alerts []*types.GuardianAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	now := time.Now()
	for _, alert := range alerts {
		alert.Status = enum.AlertStatusPending
		alert.CreatedAt = now
	}

	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(&alerts).
			Returning("id").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert alerts: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*types.Scan)(nil)).
			Set("guardian_alerted = true").
			Where("id = ?", scanID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to mark scan alerted: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("alert fan-out transaction failed: %w", err)
	}

	return nil
}

// PendingAlerts returns the guardian's open alerts joined with scan previews
// and the protected users' names, newest first.
func (m *GuardianModel) PendingAlerts(ctx context.Context, guardianID int64) ([]*types.PendingAlert, error) {
	var alerts []*types.PendingAlert

	err := m.db.NewSelect().
		Model((*types.GuardianAlert)(nil)).
		ColumnExpr("guardian_alert.id AS alert_id").
		ColumnExpr("u.display_name AS protected_user").
		ColumnExpr("s.sender").
		ColumnExpr("s.preview").
		ColumnExpr("s.level").
		ColumnExpr("s.scam_type").
		ColumnExpr("s.confidence").
		ColumnExpr("guardian_alert.created_at").
		Join("JOIN scans AS s ON s.id = guardian_alert.scan_id").
		Join("JOIN users AS u ON u.id = guardian_alert.protected_user_id").
		Where("guardian_alert.guardian_user_id = ?", guardianID).
		Where("guardian_alert.status = ?", enum.AlertStatusPending).
		Order("guardian_alert.created_at DESC").
		Scan(ctx, &alerts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending alerts: %w", err)
	}

	return alerts, nil
}

// getAlert fetches an alert owned by the guardian.
func (m *GuardianModel) getAlert(ctx context.Context, alertID, guardianID int64) (*types.GuardianAlert, error) {
	var alert types.GuardianAlert

	err := m.db.NewSelect().
		Model(&alert).
		Where("id = ?", alertID).
		Where("guardian_user_id = ?", guardianID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrAlertNotFound
		}

		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &alert, nil
}

// MarkSeen transitions a pending alert to seen. Calling it again is a no-op;
// alerts in a terminal state reject the transition.
func (m *GuardianModel) MarkSeen(ctx context.Context, alertID, guardianID int64) (*types.GuardianAlert, error) {
	alert, err := m.getAlert(ctx, alertID, guardianID)
	if err != nil {
		return nil, err
	}

	switch alert.Status {
	case enum.AlertStatusSeen:
		return alert, nil
	case enum.AlertStatusActioned, enum.AlertStatusDismissed:
		return nil, types.ErrAlertTerminal
	case enum.AlertStatusPending:
	}

	now := time.Now()
	alert.Status = enum.AlertStatusSeen
	alert.SeenAt = &now

	_, err = m.db.NewUpdate().
		Model(alert).
		Column("status", "seen_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to mark alert seen: %w", err)
	}

	return alert, nil
}

// ActionAlert resolves an alert with the guardian's chosen action. The
// dismissed action maps to the dismissed status; anything else lands on
// actioned. Terminal alerts reject further transitions.
func (m *GuardianModel) ActionAlert(
	ctx context.Context, alertID, guardianID int64, action enum.AlertAction, notes *string,
) (*types.GuardianAlert, error) {
	alert, err := m.getAlert(ctx, alertID, guardianID)
	if err != nil {
		return nil, err
	}

	if alert.Status.Terminal() {
		return nil, types.ErrAlertTerminal
	}

	now := time.Now()
	actionStr := string(action)
	alert.Action = &actionStr
	alert.Notes = notes
	alert.ActionedAt = &now

	if action == enum.AlertActionDismissed {
		alert.Status = enum.AlertStatusDismissed
	} else {
		alert.Status = enum.AlertStatusActioned
	}

	_, err = m.db.NewUpdate().
		Model(alert).
		Column("status", "action", "notes", "actioned_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to action alert: %w", err)
	}

	return alert, nil
}
