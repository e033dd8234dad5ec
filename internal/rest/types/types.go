// Package types defines the request and response shapes of the REST API.
// Wire names are snake_case; conversion from the storage types happens in
// the convert package.
package types

import (
	"time"

	"github.com/rakshalabs/raksha/internal/explain"
	"github.com/rakshalabs/raksha/internal/reputation"
)

// AnalyzeRequest submits one artifact for analysis.
type AnalyzeRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"` // text, url, phone, or auto
	Sender      string `json:"sender"`
	Platform    string `json:"platform"` // sms, im, or other
}

// AnalyzeResponse is the verdict for one analyzed artifact.
type AnalyzeResponse struct {
	ScanID      int64                `json:"scan_id"`
	Level       string               `json:"level"`
	Reason      string               `json:"reason"`
	ScamType    *string              `json:"scam_type,omitempty"`
	Confidence  float64              `json:"confidence"`
	Language    string               `json:"language"`
	Stage       string               `json:"stage"`
	Adjusted    bool                 `json:"adjusted"`
	Reputation  *reputation.Hit      `json:"reputation,omitempty"`
	Explanation *explain.Explanation `json:"explanation"`
	Tip         string               `json:"tip,omitempty"`
}

// BatchAnalyzeRequest submits up to MaxBatchItems artifacts at once.
type BatchAnalyzeRequest struct {
	Items []AnalyzeRequest `json:"items"`
}

// BatchItemResult pairs one batch item with its verdict or failure.
type BatchItemResult struct {
	Index  int              `json:"index"`
	Result *AnalyzeResponse `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// BatchAnalyzeResponse reports every batch item in submission order.
type BatchAnalyzeResponse struct {
	Results  []BatchItemResult `json:"results"`
	Analyzed int               `json:"analyzed"`
	Failed   int               `json:"failed"`
}

// ImageAnalyzeRequest submits a screenshot as base64 when the client cannot
// send multipart.
type ImageAnalyzeRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Sender      string `json:"sender"`
	Platform    string `json:"platform"`
}

// ScanSummary is the preview-only projection of a recorded scan.
type ScanSummary struct {
	ID              int64     `json:"id"`
	Sender          string    `json:"sender"`
	Preview         string    `json:"preview"`
	Platform        string    `json:"platform"`
	Level           string    `json:"level"`
	ScamType        *string   `json:"scam_type,omitempty"`
	Confidence      float64   `json:"confidence"`
	Blocked         bool      `json:"blocked"`
	GuardianAlerted bool      `json:"guardian_alerted"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListScansResponse pages through a user's recent scans.
type ListScansResponse struct {
	Scans []ScanSummary `json:"scans"`
	Count int           `json:"count"`
}

// ScanStatsResponse aggregates one user's scan history.
type ScanStatsResponse struct {
	TotalScans     int64      `json:"total_scans"`
	HighRisk       int64      `json:"high_risk"`
	MediumRisk     int64      `json:"medium_risk"`
	LowRisk        int64      `json:"low_risk"`
	BlockedSenders int64      `json:"blocked_senders"`
	LastScanAt     *time.Time `json:"last_scan_at,omitempty"`
}

// FeedbackRequest records whether the user agreed with a verdict.
type FeedbackRequest struct {
	WasCorrect *bool   `json:"was_correct"`
	Comment    *string `json:"comment,omitempty"`
}

// ReportRequest files a community report against an artifact.
type ReportRequest struct {
	Value  string `json:"value"`
	Type   string `json:"type"` // url, phone, or domain
	Reason string `json:"reason"`
}

// ReportResponse acknowledges a report with the updated tally.
type ReportResponse struct {
	ReportsCount int `json:"reports_count"`
}

// ExportResponse returns training samples inline for small pulls.
type ExportResponse struct {
	Format        string  `json:"format"`
	TotalEntries  int     `json:"total_entries"`
	MinConfidence float64 `json:"min_confidence"`
	VerifiedOnly  bool    `json:"verified_only"`
	Data          any     `json:"data"`
}

// VerifyOTPRequest redeems a linking code on behalf of a guardian.
type VerifyOTPRequest struct {
	ProtectedEmail string `json:"protected_email"`
	Code           string `json:"code"`
}

// LinkResponse describes one guardian link.
type LinkResponse struct {
	LinkID          int64      `json:"link_id"`
	ProtectedUserID int64      `json:"protected_user_id"`
	GuardianUserID  int64      `json:"guardian_user_id"`
	Status          string     `json:"status"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// LinkedGuardianResponse is the protected user's view of one guardian.
type LinkedGuardianResponse struct {
	LinkID      int64      `json:"link_id"`
	GuardianID  int64      `json:"guardian_id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

// ListGuardiansResponse lists the caller's active guardians.
type ListGuardiansResponse struct {
	Guardians []LinkedGuardianResponse `json:"guardians"`
}

// PendingAlertResponse is one row of a guardian's alert inbox.
type PendingAlertResponse struct {
	AlertID       int64     `json:"alert_id"`
	ProtectedUser string    `json:"protected_user"`
	Sender        string    `json:"sender"`
	Preview       string    `json:"preview"`
	Level         string    `json:"level"`
	ScamType      *string   `json:"scam_type,omitempty"`
	Confidence    float64   `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

// PendingAlertsResponse lists a guardian's open alerts.
type PendingAlertsResponse struct {
	Alerts []PendingAlertResponse `json:"alerts"`
	Count  int                    `json:"count"`
}

// AlertResponse describes one alert after a lifecycle transition.
type AlertResponse struct {
	AlertID    int64      `json:"alert_id"`
	ScanID     int64      `json:"scan_id"`
	Status     string     `json:"status"`
	Action     *string    `json:"action,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	SeenAt     *time.Time `json:"seen_at,omitempty"`
	ActionedAt *time.Time `json:"actioned_at,omitempty"`
}

// AlertActionRequest resolves an alert with what the guardian did.
type AlertActionRequest struct {
	Action string  `json:"action"` // contacted_user, blocked_sender, dismissed, or other
	Notes  *string `json:"notes,omitempty"`
}

// SettingsRequest updates the caller's preferences. Nil fields keep their
// current value.
type SettingsRequest struct {
	Language          *string `json:"language,omitempty"`
	AutoBlockHighRisk *bool   `json:"auto_block_high_risk,omitempty"`
	AlertThreshold    *string `json:"alert_threshold,omitempty"` // HIGH, MEDIUM, or ALL
	ReceiveTips       *bool   `json:"receive_tips,omitempty"`
}

// SettingsResponse is the caller's current preferences.
type SettingsResponse struct {
	Language          string    `json:"language"`
	AutoBlockHighRisk bool      `json:"auto_block_high_risk"`
	AlertThreshold    string    `json:"alert_threshold"`
	ReceiveTips       bool      `json:"receive_tips"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ConsentRequest updates the caller's privacy consents.
type ConsentRequest struct {
	TrainingData bool   `json:"training_data"`
	Analytics    bool   `json:"analytics"`
	Version      string `json:"version"`
}

// ConsentResponse is the caller's current privacy consents.
type ConsentResponse struct {
	TrainingData bool       `json:"training_data"`
	Analytics    bool       `json:"analytics"`
	Version      string     `json:"version"`
	GrantedAt    *time.Time `json:"granted_at,omitempty"`
}

// SenderRequest adds a sender to the trusted or blocked list.
type SenderRequest struct {
	Sender string `json:"sender"`
	Reason string `json:"reason,omitempty"`
}

// SenderEntry is one row of a sender list.
type SenderEntry struct {
	Sender    string    `json:"sender"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SenderListsResponse returns both per-user sender lists.
type SenderListsResponse struct {
	Trusted []SenderEntry `json:"trusted"`
	Blocked []SenderEntry `json:"blocked"`
}

// ArchiveRunRequest triggers an archive pass with an optional cutoff.
type ArchiveRunRequest struct {
	CutoffDays int `json:"cutoff_days"`
}

// WorkerStatusResponse is one worker heartbeat as last reported.
type WorkerStatusResponse struct {
	WorkerID    string    `json:"worker_id"`
	WorkerType  string    `json:"worker_type"`
	CurrentTask string    `json:"current_task,omitempty"`
	Progress    int       `json:"progress"`
	IsHealthy   bool      `json:"is_healthy"`
	Stale       bool      `json:"stale"`
	LastSeen    time.Time `json:"last_seen"`
}

// WorkersResponse lists every known worker heartbeat.
type WorkersResponse struct {
	Workers []WorkerStatusResponse `json:"workers"`
}
