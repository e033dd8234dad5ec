package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/rest/convert"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// UserHandler serves the caller's settings, consents, and sender lists.
type UserHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(db database.Client, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		logger: logger,
	}
}

// GetSettings returns the caller's preferences, defaults when never saved.
func (h *UserHandler) GetSettings(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	settings, err := h.db.Model().User().GetSettings(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Settings(settings))
}

// UpdateSettings merges the submitted fields into the caller's preferences.
// Absent fields keep their current value.
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.SettingsRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	settings, err := h.db.Model().User().GetSettings(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if body.Language != nil {
		settings.Language = *body.Language
	}

	if body.AutoBlockHighRisk != nil {
		settings.AutoBlockHighRisk = *body.AutoBlockHighRisk
	}

	if body.AlertThreshold != nil {
		switch parsed := enum.AlertThreshold(*body.AlertThreshold); parsed {
		case enum.AlertThresholdHigh, enum.AlertThresholdMedium, enum.AlertThresholdAll:
			settings.AlertThreshold = parsed
		default:
			return writeError(w, h.logger,
				fmt.Errorf("%w: unknown alert threshold %q", types.ErrValidation, *body.AlertThreshold))
		}
	}

	if body.ReceiveTips != nil {
		settings.ReceiveTips = *body.ReceiveTips
	}

	if err := h.db.Model().User().SaveSettings(req.Context(), settings); err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Settings(settings))
}

// GetConsent returns the caller's privacy consents.
func (h *UserHandler) GetConsent(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	user, err := h.db.Model().User().GetByID(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Consent(user))
}

// UpdateConsent replaces the caller's privacy consents. Consent is granted
// against a policy version so revocations are auditable.
func (h *UserHandler) UpdateConsent(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.ConsentRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	if body.Version == "" {
		return writeError(w, h.logger, fmt.Errorf("%w: version is required", types.ErrValidation))
	}

	err = h.db.Model().User().UpdateConsent(req.Context(), userID, body.TrainingData, body.Analytics, body.Version)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	user, err := h.db.Model().User().GetByID(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Consent(user))
}

// ListSenders returns both of the caller's sender lists.
func (h *UserHandler) ListSenders(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	trusted, err := h.db.Model().Sender().ListTrusted(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	blocked, err := h.db.Model().Sender().ListBlocked(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.SenderListsResponse{
		Trusted: convert.TrustedSenders(trusted),
		Blocked: convert.BlockedSenders(blocked),
	})
}

// AddTrustedSender adds a sender to the caller's trusted list. Duplicates
// answer 409.
func (h *UserHandler) AddTrustedSender(w http.ResponseWriter, req bunrouter.Request) error {
	userID, body, err := senderMutation(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if err := h.db.Model().Sender().Trust(req.Context(), userID, body.Sender); err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// RemoveTrustedSender removes a sender from the caller's trusted list.
func (h *UserHandler) RemoveTrustedSender(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	sender := req.Param("sender")
	if sender == "" {
		return writeError(w, h.logger, fmt.Errorf("%w: sender is required", types.ErrValidation))
	}

	if err := h.db.Model().Sender().Untrust(req.Context(), userID, sender); err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// AddBlockedSender adds a sender to the caller's blocked list. Blocking an
// already blocked sender is a no-op.
func (h *UserHandler) AddBlockedSender(w http.ResponseWriter, req bunrouter.Request) error {
	userID, body, err := senderMutation(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if err := h.db.Model().Sender().Block(req.Context(), userID, body.Sender, body.Reason); err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// RemoveBlockedSender removes a sender from the caller's blocked list.
func (h *UserHandler) RemoveBlockedSender(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	sender := req.Param("sender")
	if sender == "" {
		return writeError(w, h.logger, fmt.Errorf("%w: sender is required", types.ErrValidation))
	}

	if err := h.db.Model().Sender().Unblock(req.Context(), userID, sender); err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// senderMutation pulls the caller and a validated request body out of an
// add-sender call.
func senderMutation(req bunrouter.Request) (int64, restTypes.SenderRequest, error) {
	var body restTypes.SenderRequest

	userID, err := callerID(req)
	if err != nil {
		return 0, body, err
	}

	if err := decodeBody(req, &body); err != nil {
		return 0, body, err
	}

	body.Sender = strings.TrimSpace(body.Sender)
	if body.Sender == "" {
		return 0, body, fmt.Errorf("%w: sender is required", types.ErrValidation)
	}

	return userID, body, nil
}
