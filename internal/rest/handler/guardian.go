package handler

import (
	"net/http"

	"github.com/rakshalabs/raksha/internal/database"
	"github.com/rakshalabs/raksha/internal/guardian"
	"github.com/rakshalabs/raksha/internal/rest/convert"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// GuardianHandler serves OTP linking and the guardian alert inbox.
type GuardianHandler struct {
	service *guardian.Service
	db      database.Client
	logger  *zap.Logger
}

// NewGuardianHandler creates a new guardian handler.
func NewGuardianHandler(service *guardian.Service, db database.Client, logger *zap.Logger) *GuardianHandler {
	return &GuardianHandler{
		service: service,
		db:      db,
		logger:  logger,
	}
}

// GenerateOTP issues a single-use linking code for the calling user, who is
// the protected side of the future link.
func (h *GuardianHandler) GenerateOTP(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	user, err := h.db.Model().User().GetByID(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	grant, err := h.service.GenerateOTP(req.Context(), user)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, grant)
}

// VerifyOTP redeems a linking code. The caller becomes the guardian of the
// user named by protected_email.
func (h *GuardianHandler) VerifyOTP(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.VerifyOTPRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	user, err := h.db.Model().User().GetByID(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	link, err := h.service.VerifyOTP(req.Context(), user, body.ProtectedEmail, body.Code)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Link(link))
}

// ListGuardians returns the caller's active guardians.
func (h *GuardianHandler) ListGuardians(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	guardians, err := h.service.ListGuardians(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.ListGuardiansResponse{
		Guardians: convert.LinkedGuardians(guardians),
	})
}

// RevokeLink hard-deletes a guardian link. Either side of the link may
// revoke it.
func (h *GuardianHandler) RevokeLink(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	linkID, err := paramInt64(req, "id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if err := h.service.RevokeLink(req.Context(), linkID, userID); err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// PendingAlerts returns the caller's open alert inbox. The caller is the
// guardian side here.
func (h *GuardianHandler) PendingAlerts(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	alerts, err := h.service.PendingAlerts(req.Context(), userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.PendingAlertsResponse{
		Alerts: convert.PendingAlerts(alerts),
		Count:  len(alerts),
	})
}

// MarkSeen acknowledges an alert. Re-acknowledging is a no-op, not an error.
func (h *GuardianHandler) MarkSeen(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	alertID, err := paramInt64(req, "id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	alert, err := h.service.MarkSeen(req.Context(), alertID, userID)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Alert(alert))
}

// Action resolves an alert with what the guardian did about it. Alerts in a
// terminal state answer 409.
func (h *GuardianHandler) Action(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := callerID(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	alertID, err := paramInt64(req, "id")
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.AlertActionRequest
	if err := decodeBody(req, &body); err != nil {
		return writeError(w, h.logger, err)
	}

	alert, err := h.service.Action(req.Context(), alertID, userID, body.Action, body.Notes)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, convert.Alert(alert))
}
