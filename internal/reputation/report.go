package reputation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"go.uber.org/zap"
)

// ReportInput carries one community report of a scam artifact. Reason is
// kept in logs for moderator review and never persisted.
type ReportInput struct {
	Value      string
	Type       string
	ReportedBy int64
	Reason     string
}

// Report records a community report. Repeat reports of the same artifact
// increment the existing entry. The cache entry for the artifact is dropped
// before returning so the next lookup reflects the new count.
func (m *Manager) Report(ctx context.Context, input *ReportInput) (int, error) {
	if !enum.ValidBlacklistType(input.Type) {
		return 0, fmt.Errorf("%w: unknown artifact type %q", types.ErrValidation, input.Type)
	}

	artifactType := enum.BlacklistType(input.Type)

	normalized := Normalize(input.Value, artifactType)
	if normalized == "" || normalized == "+" {
		return 0, fmt.Errorf("%w: empty artifact value", types.ErrValidation)
	}

	now := time.Now()
	entry := &types.BlacklistEntry{
		Type:            artifactType,
		Value:           normalized,
		ValueHash:       HashValue(normalized),
		Source:          enum.BlacklistSourceCommunity,
		ReportsCount:    1,
		FirstReportedAt: now,
		LastReportedAt:  now,
	}

	reportsCount, err := m.store.Upsert(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("failed to record report: %w", err)
	}

	m.invalidate(ctx, CacheKey(entry.ValueHash))

	m.logger.Info("Artifact reported",
		zap.String("type", input.Type),
		zap.Int("reportsCount", reportsCount),
		zap.Int64("reportedBy", input.ReportedBy),
		zap.String("reason", strings.TrimSpace(input.Reason)))

	return reportsCount, nil
}
