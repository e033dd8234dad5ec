package convert

import (
	"github.com/rakshalabs/raksha/internal/database/types"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
)

// Link converts a guardian link to the REST response.
func Link(link *types.GuardianLink) *restTypes.LinkResponse {
	if link == nil {
		return nil
	}

	return &restTypes.LinkResponse{
		LinkID:          link.ID,
		ProtectedUserID: link.ProtectedUserID,
		GuardianUserID:  link.GuardianUserID,
		Status:          string(link.Status),
		VerifiedAt:      link.VerifiedAt,
		CreatedAt:       link.CreatedAt,
	}
}

// LinkedGuardians converts the protected user's guardian list.
func LinkedGuardians(guardians []*types.LinkedGuardian) []restTypes.LinkedGuardianResponse {
	result := make([]restTypes.LinkedGuardianResponse, len(guardians))
	for i, g := range guardians {
		result[i] = restTypes.LinkedGuardianResponse{
			LinkID:      g.LinkID,
			GuardianID:  g.GuardianID,
			DisplayName: g.DisplayName,
			Email:       g.Email,
			VerifiedAt:  g.VerifiedAt,
		}
	}

	return result
}

// PendingAlerts converts a guardian's alert inbox.
func PendingAlerts(alerts []*types.PendingAlert) []restTypes.PendingAlertResponse {
	result := make([]restTypes.PendingAlertResponse, len(alerts))
	for i, a := range alerts {
		result[i] = restTypes.PendingAlertResponse{
			AlertID:       a.AlertID,
			ProtectedUser: a.ProtectedUser,
			Sender:        a.Sender,
			Preview:       a.Preview,
			Level:         string(a.Level),
			ScamType:      a.ScamType,
			Confidence:    a.Confidence,
			CreatedAt:     a.CreatedAt,
		}
	}

	return result
}

// Alert converts a guardian alert after a lifecycle transition.
func Alert(alert *types.GuardianAlert) *restTypes.AlertResponse {
	if alert == nil {
		return nil
	}

	return &restTypes.AlertResponse{
		AlertID:    alert.ID,
		ScanID:     alert.ScanID,
		Status:     string(alert.Status),
		Action:     alert.Action,
		Notes:      alert.Notes,
		SeenAt:     alert.SeenAt,
		ActionedAt: alert.ActionedAt,
	}
}
