// Package detection runs submitted artifacts through the staged scam
// analysis pipeline: per-user sender overrides, the compiled pattern
// ruleset, the community reputation blacklist, an optional local model, and
// the remote model, fused into one calibrated verdict. Stages degrade
// independently; a failed stage is skipped, never surfaced to the caller.
package detection

import (
	"context"

	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/reputation"
)

// Stage names recorded on verdicts, identifying which stage decided.
const (
	StageOverride    = "override"
	StagePatterns    = "patterns"
	StageReputation  = "reputation"
	StageLocalModel  = "local_model"
	StageRemoteModel = "remote_model"
	StageFusion      = "fusion"
)

// Request is one artifact submitted for analysis.
type Request struct {
	Content     string
	Sender      string
	ContentType ContentType
	UserID      int64
	Platform    enum.Platform
}

// ImageRequest is one screenshot submitted for analysis.
type ImageRequest struct {
	Data     []byte
	MimeType string
	Sender   string
	UserID   int64
	Platform enum.Platform
}

// Verdict is the pipeline's final answer for one artifact. ScanID is zero
// when the scan row could not be persisted. Tip is set only for users who
// opted into safety tips.
type Verdict struct {
	Level         enum.RiskLevel
	Reason        string
	ScamType      *string
	Confidence    float64
	Language      string
	Stage         string
	ReputationHit *reputation.Hit
	Adjusted      bool
	ScanID        int64
	Tip           string
}

// SenderStore answers per-user sender list questions and records auto-blocks.
type SenderStore interface {
	IsTrusted(ctx context.Context, userID int64, sender string) (bool, error)
	IsBlocked(ctx context.Context, userID int64, sender string) (bool, error)
	Block(ctx context.Context, userID int64, sender, reason string) error
}

// ScanStore persists finished verdicts.
type ScanStore interface {
	Create(ctx context.Context, scan *types.Scan) error
}

// UserStore loads the scanning user and their preferences.
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (*types.User, error)
	GetSettings(ctx context.Context, userID int64) (*types.UserSettings, error)
}

// ReputationChecker consults the community blacklist and feeds it from
// high-confidence verdicts.
type ReputationChecker interface {
	Check(ctx context.Context, value string, artifactType enum.BlacklistType) (*reputation.Hit, error)
	AutoExtract(ctx context.Context, message string, training *reputation.TrainingData) int
}

// TextModel is the remote classification stage.
type TextModel interface {
	Analyze(ctx context.Context, message, sender string, hints []string) (*ai.ModelVerdict, error)
}

// LocalModel is the optional on-host classification stage.
type LocalModel interface {
	Classify(ctx context.Context, message, sender string) (*ai.ModelVerdict, error)
}

// VisionModel classifies screenshots of suspicious messages.
type VisionModel interface {
	Analyze(ctx context.Context, data []byte, mimeType, sender string) (*ai.ModelVerdict, error)
}

// Alerter fans a finished scan out to the user's guardians.
type Alerter interface {
	AlertGuardians(ctx context.Context, scan *types.Scan, user *types.User, settings *types.UserSettings) (int, error)
}
