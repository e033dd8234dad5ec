// Package guardian implements protected-user to guardian linking and the
// alert fan-out that keeps guardians informed about risky scans. Links are
// established by a one-time code the protected user hands to their guardian
// out of band; codes live only in redis and expire on their own.
package guardian

import (
	"context"
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/notify"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// LinkStore is the persistent link graph and alert log behind the service.
type LinkStore interface {
	HasActiveAsGuardian(ctx context.Context, userID int64) (bool, error)
	HasActiveAsProtected(ctx context.Context, userID int64) (bool, error)
	FindActiveLink(ctx context.Context, protectedID, guardianID int64) (*types.GuardianLink, error)
	ActiveLinksForProtected(ctx context.Context, userID int64) ([]*types.GuardianLink, error)
	CreateLink(ctx context.Context, link *types.GuardianLink) error
	DeleteLink(ctx context.Context, linkID, requesterID int64) error
	ListGuardians(ctx context.Context, protectedID int64) ([]*types.LinkedGuardian, error)
	CreateAlerts(ctx context.Context, scanID int64, alerts []*types.GuardianAlert) error
	PendingAlerts(ctx context.Context, guardianID int64) ([]*types.PendingAlert, error)
	MarkSeen(ctx context.Context, alertID, guardianID int64) (*types.GuardianAlert, error)
	ActionAlert(ctx context.Context, alertID, guardianID int64, action enum.AlertAction, notes *string) (*types.GuardianAlert, error)
}

// UserStore resolves guardian contact details for notification dispatch.
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (*types.User, error)
}

// Service coordinates OTP linking, alert fan-out, and the alert lifecycle.
type Service struct {
	links         LinkStore
	users         UserStore
	otp           rueidis.Client
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        *zap.Logger
}

// NewService creates a guardian service. The otp client must point at the
// dedicated OTP redis database; notifier may be nil to disable dispatch.
func NewService(
	links LinkStore, users UserStore, otp rueidis.Client,
	notifier notify.Notifier, notifyTimeout time.Duration, logger *zap.Logger,
) *Service {
	return &Service{
		links:         links,
		users:         users,
		otp:           otp,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		logger:        logger.Named("guardian"),
	}
}

// ListGuardians returns the protected user's active guardians.
func (s *Service) ListGuardians(ctx context.Context, protectedID int64) ([]*types.LinkedGuardian, error) {
	return s.links.ListGuardians(ctx, protectedID)
}

// RevokeLink removes a link on behalf of either side.
func (s *Service) RevokeLink(ctx context.Context, linkID, requesterID int64) error {
	if err := s.links.DeleteLink(ctx, linkID, requesterID); err != nil {
		return err
	}

	s.logger.Info("Guardian link revoked",
		zap.Int64("linkID", linkID),
		zap.Int64("requestedBy", requesterID))

	return nil
}

// PendingAlerts returns the guardian's open alert inbox.
func (s *Service) PendingAlerts(ctx context.Context, guardianID int64) ([]*types.PendingAlert, error) {
	return s.links.PendingAlerts(ctx, guardianID)
}

// MarkSeen acknowledges an alert. Re-acknowledging is a no-op.
func (s *Service) MarkSeen(ctx context.Context, alertID, guardianID int64) (*types.GuardianAlert, error) {
	return s.links.MarkSeen(ctx, alertID, guardianID)
}

// Action resolves an alert with what the guardian did about it.
func (s *Service) Action(
	ctx context.Context, alertID, guardianID int64, action string, notes *string,
) (*types.GuardianAlert, error) {
	if !enum.ValidAlertAction(action) {
		return nil, fmt.Errorf("%w: unknown alert action %q", types.ErrValidation, action)
	}

	return s.links.ActionAlert(ctx, alertID, guardianID, enum.AlertAction(action), notes)
}
