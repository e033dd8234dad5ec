package reputation

import (
	"context"
	"regexp"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"go.uber.org/zap"
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s]+`)
	// Shortener links circulate without a scheme; match the known hosts bare.
	shortenerPattern = regexp.MustCompile(`\b(?:bit\.ly|tinyurl\.com|t\.co|goo\.gl|short\.io)/[^\s]+`)
	phonePattern     = regexp.MustCompile(`(?:\+91|91)?[6-9]\d{9}`)
)

// Artifact is one blacklistable entity found in message text.
type Artifact struct {
	Value string
	Type  enum.BlacklistType
}

// ExtractArtifacts pulls URLs and Indian mobile numbers out of message text.
// Values are normalized and de-duplicated; extraction order is stable.
func ExtractArtifacts(message string) []Artifact {
	seen := make(map[string]struct{})

	var artifacts []Artifact

	add := func(value string, artifactType enum.BlacklistType) {
		normalized := Normalize(value, artifactType)
		if normalized == "" || normalized == "+91" {
			return
		}

		if _, dup := seen[normalized]; dup {
			return
		}

		seen[normalized] = struct{}{}
		artifacts = append(artifacts, Artifact{Value: normalized, Type: artifactType})
	}

	for _, match := range urlPattern.FindAllString(message, -1) {
		add(match, enum.BlacklistTypeURL)
	}

	for _, match := range shortenerPattern.FindAllString(message, -1) {
		add(match, enum.BlacklistTypeURL)
	}

	for _, match := range phonePattern.FindAllString(message, -1) {
		add(match, enum.BlacklistTypePhone)
	}

	return artifacts
}

// TrainingData carries the verdict context persisted alongside an
// auto-extracted artifact. ScamType, Confidence, and Language are always
// stored; FullMessage, AIReasoning, and Features are stored only when the
// submitter consented. Rows without the consented columns export later with
// "[REDACTED]" in place of the message.
type TrainingData struct {
	FullMessage string
	AIReasoning string
	ScamType    *string
	Confidence  float64
	Language    string
	Features    map[string]any
	Consented   bool
}

// AutoExtract blacklists every artifact found in a high-confidence scam
// message. Each entity is upserted with the ai_auto source, so repeats from
// other victims raise the report count instead of duplicating rows. Returns
// the number of artifacts recorded.
func (m *Manager) AutoExtract(ctx context.Context, message string, training *TrainingData) int {
	artifacts := ExtractArtifacts(message)
	if len(artifacts) == 0 {
		return 0
	}

	now := time.Now()
	recorded := 0

	for _, artifact := range artifacts {
		entry := &types.BlacklistEntry{
			Type:            artifact.Type,
			Value:           artifact.Value,
			ValueHash:       HashValue(artifact.Value),
			Source:          enum.BlacklistSourceAIAuto,
			ReportsCount:    1,
			FirstReportedAt: now,
			LastReportedAt:  now,
		}

		if training != nil {
			entry.ScamType = training.ScamType
			entry.Confidence = &training.Confidence
			entry.Language = &training.Language

			if training.Consented {
				entry.FullMessage = &training.FullMessage
				entry.AIReasoning = &training.AIReasoning
				entry.Features = training.Features
			}
		}

		if _, err := m.store.Upsert(ctx, entry); err != nil {
			m.logger.Warn("Failed to record extracted artifact",
				zap.String("type", string(artifact.Type)),
				zap.Error(err))

			continue
		}

		m.invalidate(ctx, CacheKey(entry.ValueHash))

		recorded++
	}

	if recorded > 0 {
		m.logger.Info("Auto-extracted artifacts from scam message",
			zap.Int("count", recorded))
	}

	return recorded
}
