package models

import (
	"context"
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// SenderModel handles the per-user trusted and blocked sender lists that
// short-circuit the detection pipeline.
type SenderModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewSender creates a new sender model.
func NewSender(db *bun.DB, logger *zap.Logger) *SenderModel {
	return &SenderModel{
		db:     db,
		logger: logger.Named("db_sender"),
	}
}

// IsTrusted reports whether the user marked this sender as trusted.
func (m *SenderModel) IsTrusted(ctx context.Context, userID int64, sender string) (bool, error) {
	exists, err := m.db.NewSelect().
		Model((*types.TrustedSender)(nil)).
		Where("user_id = ?", userID).
		Where("sender = ?", sender).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check trusted sender: %w", err)
	}

	return exists, nil
}

// IsBlocked reports whether the user blocked this sender.
func (m *SenderModel) IsBlocked(ctx context.Context, userID int64, sender string) (bool, error) {
	exists, err := m.db.NewSelect().
		Model((*types.BlockedSender)(nil)).
		Where("user_id = ?", userID).
		Where("sender = ?", sender).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked sender: %w", err)
	}

	return exists, nil
}

// Trust adds a sender to the user's trusted list. Duplicate entries are a
// conflict.
func (m *SenderModel) Trust(ctx context.Context, userID int64, sender string) error {
	trusted := &types.TrustedSender{
		UserID:    userID,
		Sender:    sender,
		CreatedAt: time.Now(),
	}

	res, err := m.db.NewInsert().
		Model(trusted).
		On("CONFLICT (user_id, sender) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to trust sender: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return types.ErrSenderExists
	}

	return nil
}

// Untrust removes a sender from the user's trusted list.
func (m *SenderModel) Untrust(ctx context.Context, userID int64, sender string) error {
	res, err := m.db.NewDelete().
		Model((*types.TrustedSender)(nil)).
		Where("user_id = ?", userID).
		Where("sender = ?", sender).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to untrust sender: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return types.ErrSenderNotFound
	}

	return nil
}

// Block adds a sender to the user's blocked list. Blocking an already
// blocked sender is a no-op so auto-block can fire repeatedly.
func (m *SenderModel) Block(ctx context.Context, userID int64, sender, reason string) error {
	blocked := &types.BlockedSender{
		UserID:    userID,
		Sender:    sender,
		Reason:    reason,
		CreatedAt: time.Now(),
	}

	_, err := m.db.NewInsert().
		Model(blocked).
		On("CONFLICT (user_id, sender) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to block sender: %w", err)
	}

	return nil
}

// Unblock removes a sender from the user's blocked list.
func (m *SenderModel) Unblock(ctx context.Context, userID int64, sender string) error {
	res, err := m.db.NewDelete().
		Model((*types.BlockedSender)(nil)).
		Where("user_id = ?", userID).
		Where("sender = ?", sender).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unblock sender: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return types.ErrSenderNotFound
	}

	return nil
}

// ListBlocked returns all senders the user has blocked, newest first.
func (m *SenderModel) ListBlocked(ctx context.Context, userID int64) ([]*types.BlockedSender, error) {
	var blocked []*types.BlockedSender

	err := m.db.NewSelect().
		Model(&blocked).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked senders: %w", err)
	}

	return blocked, nil
}

// CountBlocked reports how many senders the user has blocked.
func (m *SenderModel) CountBlocked(ctx context.Context, userID int64) (int, error) {
	count, err := m.db.NewSelect().
		Model((*types.BlockedSender)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count blocked senders: %w", err)
	}

	return count, nil
}

// ListTrusted returns all senders the user trusts, newest first.
func (m *SenderModel) ListTrusted(ctx context.Context, userID int64) ([]*types.TrustedSender, error) {
	var trusted []*types.TrustedSender

	err := m.db.NewSelect().
		Model(&trusted).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted senders: %w", err)
	}

	return trusted, nil
}
