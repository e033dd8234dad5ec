package types

import (
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

var (
	// ErrUserNotFound is returned when a user lookup matches nothing.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrSenderExists is returned when inserting a duplicate trusted or
	// blocked sender for the same user.
	ErrSenderExists = fmt.Errorf("sender already listed: %w", ErrConflict)
	// ErrSenderNotFound is returned when removing a sender that was never
	// listed.
	ErrSenderNotFound = fmt.Errorf("sender %w", ErrNotFound)
	// ErrFeedbackExists is returned on a second feedback submission for the
	// same scan by the same user.
	ErrFeedbackExists = fmt.Errorf("feedback already recorded: %w", ErrConflict)
)

// User is an account that submits scans and may be linked to guardians.
// Authentication lives in a separate service; this table carries only what
// detection and alerting need.
type User struct {
	ID                  int64      `bun:",pk,autoincrement"      json:"id"`
	DisplayName         string     `bun:",notnull"               json:"displayName"`
	Email               string     `bun:",notnull,unique"        json:"email"`
	Handle              *string    `bun:""                       json:"handle,omitempty"`
	ConsentTrainingData bool       `bun:",notnull,default:false" json:"consentTrainingData"`
	ConsentAnalytics    bool       `bun:",notnull,default:false" json:"consentAnalytics"`
	ConsentVersion      string     `bun:",notnull,default:''"    json:"consentVersion"`
	ConsentGrantedAt    *time.Time `bun:""                       json:"consentGrantedAt,omitempty"`
	CreatedAt           time.Time  `bun:",notnull"               json:"createdAt"`
}

// UserSettings carries per-user detection and alerting preferences.
type UserSettings struct {
	UserID            int64               `bun:",pk"                    json:"userId"`
	Language          string              `bun:",notnull,default:'en'"  json:"language"`
	AutoBlockHighRisk bool                `bun:",notnull,default:false" json:"autoBlockHighRisk"`
	AlertThreshold    enum.AlertThreshold `bun:",notnull"               json:"alertThreshold"`
	ReceiveTips       bool                `bun:",notnull,default:true"  json:"receiveTips"`
	UpdatedAt         time.Time           `bun:",notnull"               json:"updatedAt"`
}

// DefaultUserSettings returns the settings a user holds before ever saving
// their own.
func DefaultUserSettings(userID int64) *UserSettings {
	return &UserSettings{
		UserID:         userID,
		Language:       "en",
		AlertThreshold: enum.AlertThresholdHigh,
		ReceiveTips:    true,
		UpdatedAt:      time.Now(),
	}
}

// TrustedSender marks a sender whose messages skip analysis for one user.
type TrustedSender struct {
	ID        int64     `bun:",pk,autoincrement" json:"id"`
	UserID    int64     `bun:",notnull"          json:"userId"`
	Sender    string    `bun:",notnull"          json:"sender"`
	CreatedAt time.Time `bun:",notnull"          json:"createdAt"`
}

// BlockedSender marks a sender whose messages are flagged HIGH without
// analysis for one user. Rows come from manual blocks and from auto-block on
// HIGH verdicts.
type BlockedSender struct {
	ID        int64     `bun:",pk,autoincrement"   json:"id"`
	UserID    int64     `bun:",notnull"            json:"userId"`
	Sender    string    `bun:",notnull"            json:"sender"`
	Reason    string    `bun:",notnull,default:''" json:"reason"`
	CreatedAt time.Time `bun:",notnull"            json:"createdAt"`
}

// Feedback records whether a user agreed with a verdict. One row per
// (user, scan).
type Feedback struct {
	ID         int64     `bun:",pk,autoincrement" json:"id"`
	UserID     int64     `bun:",notnull"          json:"userId"`
	ScanID     int64     `bun:",notnull"          json:"scanId"`
	WasCorrect bool      `bun:",notnull"          json:"wasCorrect"`
	Comment    *string   `bun:""                  json:"comment,omitempty"`
	CreatedAt  time.Time `bun:",notnull"          json:"createdAt"`
}
