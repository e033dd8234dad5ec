package types

import (
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

var (
	// ErrLinkNotFound is returned when a guardian link lookup matches nothing.
	ErrLinkNotFound = fmt.Errorf("guardian link %w", ErrNotFound)
	// ErrAlertNotFound is returned when a guardian alert lookup matches nothing.
	ErrAlertNotFound = fmt.Errorf("guardian alert %w", ErrNotFound)
	// ErrLinkChain is returned when a link would make someone both guardian
	// and protected user, which the bipartite graph forbids.
	ErrLinkChain = fmt.Errorf("link would form a chain: %w", ErrConflict)
	// ErrSelfLink is returned when a user tries to guard themselves.
	ErrSelfLink = fmt.Errorf("cannot link to yourself: %w", ErrConflict)
	// ErrInvalidOTP is returned for unknown, expired, or already-consumed
	// codes, and for email mismatches after consumption.
	ErrInvalidOTP = fmt.Errorf("invalid or expired code: %w", ErrValidation)
	// ErrAlertTerminal is returned for transitions out of actioned/dismissed.
	ErrAlertTerminal = fmt.Errorf("alert already resolved: %w", ErrConflict)
)

// GuardianLink connects a protected user to a guardian who receives alerts
// about their scans. Revocation is a hard delete, so persisted rows are
// effectively always active.
type GuardianLink struct {
	ID              int64           `bun:",pk,autoincrement" json:"id"`
	ProtectedUserID int64           `bun:",notnull"          json:"protectedUserId"`
	GuardianUserID  int64           `bun:",notnull"          json:"guardianUserId"`
	Status          enum.LinkStatus `bun:",notnull"          json:"status"`
	VerifiedAt      *time.Time      `bun:""                  json:"verifiedAt,omitempty"`
	CreatedAt       time.Time       `bun:",notnull"          json:"createdAt"`
}

// GuardianAlert is one notification row fanned out to a guardian when a
// protected user's scan crosses their alert threshold.
type GuardianAlert struct {
	ID              int64            `bun:",pk,autoincrement" json:"id"`
	GuardianUserID  int64            `bun:",notnull"          json:"guardianUserId"`
	ProtectedUserID int64            `bun:",notnull"          json:"protectedUserId"`
	ScanID          int64            `bun:",notnull"          json:"scanId"`
	Status          enum.AlertStatus `bun:",notnull"          json:"status"`
	Action          *string          `bun:""                  json:"action,omitempty"`
	Notes           *string          `bun:""                  json:"notes,omitempty"`
	CreatedAt       time.Time        `bun:",notnull"          json:"createdAt"`
	SeenAt          *time.Time       `bun:""                  json:"seenAt,omitempty"`
	ActionedAt      *time.Time       `bun:""                  json:"actionedAt,omitempty"`
}

// PendingAlert is the guardian-inbox projection: the alert joined with the
// scan preview and the protected user's display name.
type PendingAlert struct {
	AlertID       int64          `json:"alertId"`
	ProtectedUser string         `json:"protectedUser"`
	Sender        string         `json:"sender"`
	Preview       string         `json:"preview"`
	Level         enum.RiskLevel `json:"level"`
	ScamType      *string        `json:"scamType,omitempty"`
	Confidence    float64        `json:"confidence"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// LinkedGuardian is the protected user's view of one of their guardians.
type LinkedGuardian struct {
	LinkID      int64      `json:"linkId"`
	GuardianID  int64      `json:"guardianId"`
	DisplayName string     `json:"displayName"`
	Email       string     `json:"email"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
}
