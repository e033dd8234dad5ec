package convert

import (
	"github.com/rakshalabs/raksha/internal/database/types"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
)

// Settings converts stored user preferences to the REST response.
func Settings(settings *types.UserSettings) *restTypes.SettingsResponse {
	if settings == nil {
		return nil
	}

	return &restTypes.SettingsResponse{
		Language:          settings.Language,
		AutoBlockHighRisk: settings.AutoBlockHighRisk,
		AlertThreshold:    string(settings.AlertThreshold),
		ReceiveTips:       settings.ReceiveTips,
		UpdatedAt:         settings.UpdatedAt,
	}
}

// Consent converts a user's privacy consents to the REST response.
func Consent(user *types.User) *restTypes.ConsentResponse {
	if user == nil {
		return nil
	}

	return &restTypes.ConsentResponse{
		TrainingData: user.ConsentTrainingData,
		Analytics:    user.ConsentAnalytics,
		Version:      user.ConsentVersion,
		GrantedAt:    user.ConsentGrantedAt,
	}
}

// TrustedSenders converts a trusted sender list.
func TrustedSenders(senders []*types.TrustedSender) []restTypes.SenderEntry {
	result := make([]restTypes.SenderEntry, len(senders))
	for i, s := range senders {
		result[i] = restTypes.SenderEntry{
			Sender:    s.Sender,
			CreatedAt: s.CreatedAt,
		}
	}

	return result
}

// BlockedSenders converts a blocked sender list.
func BlockedSenders(senders []*types.BlockedSender) []restTypes.SenderEntry {
	result := make([]restTypes.SenderEntry, len(senders))
	for i, s := range senders {
		result[i] = restTypes.SenderEntry{
			Sender:    s.Sender,
			Reason:    s.Reason,
			CreatedAt: s.CreatedAt,
		}
	}

	return result
}
