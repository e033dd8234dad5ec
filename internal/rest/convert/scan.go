// Package convert maps storage and domain types onto the REST API types.
package convert

import (
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/detection"
	"github.com/rakshalabs/raksha/internal/explain"
	restTypes "github.com/rakshalabs/raksha/internal/rest/types"
)

// Verdict converts a pipeline verdict to the REST analyze response, resolving
// the plain-language explanation alongside.
func Verdict(verdict *detection.Verdict) *restTypes.AnalyzeResponse {
	if verdict == nil {
		return nil
	}

	return &restTypes.AnalyzeResponse{
		ScanID:      verdict.ScanID,
		Level:       string(verdict.Level),
		Reason:      verdict.Reason,
		ScamType:    verdict.ScamType,
		Confidence:  verdict.Confidence,
		Language:    verdict.Language,
		Stage:       verdict.Stage,
		Adjusted:    verdict.Adjusted,
		Reputation:  verdict.ReputationHit,
		Explanation: explain.Explain(verdict.Level, verdict.ScamType, verdict.Language),
		Tip:         verdict.Tip,
	}
}

// Scan converts a stored scan to its preview-only summary.
func Scan(scan *types.Scan) restTypes.ScanSummary {
	return restTypes.ScanSummary{
		ID:              scan.ID,
		Sender:          scan.Sender,
		Preview:         scan.Preview,
		Platform:        string(scan.Platform),
		Level:           string(scan.Level),
		ScamType:        scan.ScamType,
		Confidence:      scan.Confidence,
		Blocked:         scan.Blocked,
		GuardianAlerted: scan.GuardianAlerted,
		CreatedAt:       scan.CreatedAt,
	}
}

// Scans converts a slice of stored scans to summaries.
func Scans(scans []*types.Scan) []restTypes.ScanSummary {
	result := make([]restTypes.ScanSummary, len(scans))
	for i, scan := range scans {
		result[i] = Scan(scan)
	}

	return result
}

// ScanStats converts aggregate scan counts to the REST response.
func ScanStats(stats *types.ScanStats) *restTypes.ScanStatsResponse {
	if stats == nil {
		return nil
	}

	return &restTypes.ScanStatsResponse{
		TotalScans:     stats.TotalScans,
		HighRisk:       stats.HighRisk,
		MediumRisk:     stats.MediumRisk,
		LowRisk:        stats.LowRisk,
		BlockedSenders: stats.BlockedSenders,
		LastScanAt:     stats.LastScanAt,
	}
}
