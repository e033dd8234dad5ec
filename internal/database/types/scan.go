package types

import (
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/pkg/utils"
)

// ErrScanNotFound is returned when a scan lookup matches nothing.
var ErrScanNotFound = fmt.Errorf("scan %w", ErrNotFound)

// PreviewRunes caps how many leading runes of a message survive into the
// always-kept preview column.
const PreviewRunes = 200

// Scan records one analyzed message and its verdict.
//
// Message is nullable on purpose: LOW verdicts store no body at all, only the
// preview, so clean traffic never accumulates raw content.
type Scan struct {
	ID              int64          `bun:",pk,autoincrement"      json:"id"`
	UserID          int64          `bun:",notnull"               json:"userId"`
	Sender          string         `bun:",notnull,default:''"    json:"sender"`
	Message         *string        `bun:""                       json:"message,omitempty"`
	Preview         string         `bun:",notnull"               json:"preview"`
	Platform        enum.Platform  `bun:",notnull"               json:"platform"`
	Level           enum.RiskLevel `bun:",notnull"               json:"level"`
	Reason          string         `bun:",notnull"               json:"reason"`
	ScamType        *string        `bun:""                       json:"scamType,omitempty"`
	Confidence      float64        `bun:",notnull"               json:"confidence"`
	Language        string         `bun:",notnull,default:'en'"  json:"language"`
	Blocked         bool           `bun:",notnull,default:false" json:"blocked"`
	GuardianAlerted bool           `bun:",notnull,default:false" json:"guardianAlerted"`
	CreatedAt       time.Time      `bun:",notnull"               json:"createdAt"`
}

// MakePreview truncates a message body to the preview length.
func MakePreview(message string) string {
	return utils.TruncateRunes(message, PreviewRunes)
}

// ScanStats aggregates per-level scan counts for one user.
type ScanStats struct {
	TotalScans     int64      `json:"totalScans"`
	HighRisk       int64      `json:"highRisk"`
	MediumRisk     int64      `json:"mediumRisk"`
	LowRisk        int64      `json:"lowRisk"`
	BlockedSenders int64      `json:"blockedSenders"`
	LastScanAt     *time.Time `json:"lastScanAt,omitempty"`
}

// ArchivedScan is the NDJSON projection written by the archiver. Message
// falls back to the preview when the body was never stored.
type ArchivedScan struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Sender    string         `json:"sender"`
	Message   string         `json:"message"`
	RiskLevel enum.RiskLevel `json:"risk_level"`
	CreatedAt time.Time      `json:"created_at"`
}
