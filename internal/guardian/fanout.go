package guardian

import (
	"context"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/notify"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// AlertGuardians fans a risky scan out to every active guardian of the
// submitting user. Alert rows and the scan's alerted flag commit in one
// transaction; notification dispatch happens after commit and is strictly
// best-effort, so a dead messenger never loses an alert. Returns how many
// alerts were created.
func (s *Service) AlertGuardians(
	ctx context.Context, scan *types.Scan, user *types.User, settings *types.UserSettings,
) (int, error) {
	if !settings.AlertThreshold.Covers(scan.Level) {
		return 0, nil
	}

	links, err := s.links.ActiveLinksForProtected(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	if len(links) == 0 {
		return 0, nil
	}

	alerts := make([]*types.GuardianAlert, 0, len(links))
	for _, link := range links {
		alerts = append(alerts, &types.GuardianAlert{
			GuardianUserID:  link.GuardianUserID,
			ProtectedUserID: user.ID,
			ScanID:          scan.ID,
		})
	}

	if err := s.links.CreateAlerts(ctx, scan.ID, alerts); err != nil {
		return 0, err
	}

	s.logger.Info("Guardian alerts created",
		zap.Int64("scanID", scan.ID),
		zap.Int64("protectedID", user.ID),
		zap.Int("guardians", len(alerts)))

	s.dispatch(ctx, scan, user, alerts)

	return len(alerts), nil
}

// dispatch sends one notification per alerted guardian. Failures are logged
// and dropped; the pending alert row is the durable artefact.
func (s *Service) dispatch(ctx context.Context, scan *types.Scan, user *types.User, alerts []*types.GuardianAlert) {
	if s.notifier == nil {
		return
	}

	text := notify.FormatAlert(user.DisplayName, scan.Level, scan.Preview, scan.ScamType, scan.Confidence)

	p := pool.New().WithContext(ctx)

	for _, alert := range alerts {
		p.Go(func(ctx context.Context) error {
			guardian, err := s.users.GetByID(ctx, alert.GuardianUserID)
			if err != nil {
				s.logger.Warn("Failed to resolve guardian for dispatch",
					zap.Int64("guardianID", alert.GuardianUserID),
					zap.Error(err))

				return nil
			}

			var handle string
			if guardian.Handle != nil {
				handle = *guardian.Handle
			}

			sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
			defer cancel()

			if err := s.notifier.Send(sendCtx, handle, text); err != nil {
				s.logger.Warn("Failed to notify guardian",
					zap.Int64("guardianID", alert.GuardianUserID),
					zap.Error(err))
			}

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		s.logger.Warn("Guardian dispatch pool failed", zap.Error(err))
	}
}
