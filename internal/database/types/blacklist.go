package types

import (
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

// ErrBlacklistEntryNotFound is returned when a hash lookup matches nothing.
var ErrBlacklistEntryNotFound = fmt.Errorf("blacklist entry %w", ErrNotFound)

// BlacklistEntry is one community-reported or auto-extracted scam artifact.
// Entries are append-only: reports increment counters, nothing deletes rows.
//
// The training columns (FullMessage through Features) stay null unless the
// contributing submitter consented to training-data use.
type BlacklistEntry struct {
	ID              int64                `bun:",pk,autoincrement"      json:"id"`
	Type            enum.BlacklistType   `bun:",notnull"               json:"type"`
	Value           string               `bun:",notnull"               json:"value"`
	ValueHash       []byte               `bun:",notnull,unique"        json:"valueHash"`
	Source          enum.BlacklistSource `bun:",notnull"               json:"source"`
	ReportsCount    int                  `bun:",notnull,default:1"     json:"reportsCount"`
	FirstReportedAt time.Time            `bun:",notnull"               json:"firstReportedAt"`
	LastReportedAt  time.Time            `bun:",notnull"               json:"lastReportedAt"`
	Verified        bool                 `bun:",notnull,default:false" json:"verified"`
	FullMessage     *string              `bun:""                       json:"fullMessage,omitempty"`
	AIReasoning     *string              `bun:""                       json:"aiReasoning,omitempty"`
	ScamType        *string              `bun:""                       json:"scamType,omitempty"`
	Confidence      *float64             `bun:""                       json:"confidence,omitempty"`
	Language        *string              `bun:""                       json:"language,omitempty"`
	Features        map[string]any       `bun:",type:jsonb"            json:"features,omitempty"`
}

// TrainingSample is the export projection of a blacklist entry. Rows whose
// submitter never consented carry "[REDACTED]" in place of the message.
type TrainingSample struct {
	Value       string  `json:"value"`
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	AIReasoning string  `json:"ai_reasoning"`
	ScamType    string  `json:"scam_type"`
	Confidence  float64 `json:"confidence"`
	Language    string  `json:"language"`
}
