package enum

// LinkStatus tracks the lifecycle of a guardian link.
type LinkStatus string

const (
	// LinkStatusPending marks a link awaiting OTP verification.
	LinkStatusPending LinkStatus = "pending"
	// LinkStatusActive marks a verified link that produces alerts.
	LinkStatusActive LinkStatus = "active"
	// LinkStatusRevoked marks a link withdrawn by either side.
	LinkStatusRevoked LinkStatus = "revoked"
)

// AlertStatus tracks the lifecycle of a guardian alert. Transitions are
// monotonic: pending -> seen -> actioned/dismissed, with actioned and
// dismissed terminal.
type AlertStatus string

const (
	// AlertStatusPending marks a freshly created alert.
	AlertStatusPending AlertStatus = "pending"
	// AlertStatusSeen marks an alert the guardian has opened.
	AlertStatusSeen AlertStatus = "seen"
	// AlertStatusActioned marks an alert the guardian resolved.
	AlertStatusActioned AlertStatus = "actioned"
	// AlertStatusDismissed marks an alert the guardian waved off.
	AlertStatusDismissed AlertStatus = "dismissed"
)

// Terminal reports whether no further transitions are allowed.
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusActioned || s == AlertStatusDismissed
}

// AlertAction records what a guardian did about an alert.
type AlertAction string

const (
	// AlertActionContactedUser means the guardian reached the protected user.
	AlertActionContactedUser AlertAction = "contacted_user"
	// AlertActionBlockedSender means the guardian blocked the sender on the
	// protected user's behalf.
	AlertActionBlockedSender AlertAction = "blocked_sender"
	// AlertActionDismissed means the guardian judged the alert harmless.
	AlertActionDismissed AlertAction = "dismissed"
	// AlertActionOther covers anything outside the enumerated actions.
	AlertActionOther AlertAction = "other"
)

// ValidAlertAction reports whether s is a recognized action.
func ValidAlertAction(s string) bool {
	switch AlertAction(s) {
	case AlertActionContactedUser, AlertActionBlockedSender, AlertActionDismissed, AlertActionOther:
		return true
	default:
		return false
	}
}

// AlertThreshold selects which risk levels trigger guardian fan-out.
type AlertThreshold string

const (
	// AlertThresholdHigh alerts guardians only on HIGH verdicts.
	AlertThresholdHigh AlertThreshold = "HIGH"
	// AlertThresholdMedium alerts guardians on HIGH and MEDIUM verdicts.
	AlertThresholdMedium AlertThreshold = "MEDIUM"
	// AlertThresholdAll alerts guardians on every verdict.
	AlertThresholdAll AlertThreshold = "ALL"
)

// Covers reports whether a verdict at the given level should fan out under
// this threshold.
func (t AlertThreshold) Covers(level RiskLevel) bool {
	switch t {
	case AlertThresholdMedium:
		return level.AtLeast(RiskLevelMedium)
	case AlertThresholdAll:
		return true
	case AlertThresholdHigh:
		return level.AtLeast(RiskLevelHigh)
	default:
		return level.AtLeast(RiskLevelHigh)
	}
}
