package utils

import (
	"math"
	"time"
)

const (
	// MinRewarmInterval is the shortest gap between cache re-warms for entries
	// that are still being reported.
	MinRewarmInterval = 15 * time.Minute
	// MaxRewarmInterval is the longest gap between cache re-warms for entries
	// that have gone quiet.
	MaxRewarmInterval = 24 * time.Hour
	// RewarmIntervalThreshold is the report age at which the maximum re-warm
	// interval is reached.
	RewarmIntervalThreshold = 14 * 24 * time.Hour
	// RewarmIntervalExponent controls the scaling curve shape.
	RewarmIntervalExponent = 1.5
)

// CalculateRewarmInterval determines how long to wait before re-warming a
// cached reputation entry based on how recently it was reported. Entries with
// fresh reports are re-warmed frequently (actively circulating scams) while
// stale entries are re-warmed rarely.
//
// The formula uses a power curve with exponent 1.5 to front-load re-warming
// on recently reported entries:
//
//	interval = min + (max - min) * (age / threshold) ^ exponent
func CalculateRewarmInterval(lastReportedAt time.Time) time.Duration {
	reportAge := time.Since(lastReportedAt)

	// Entries quiet for longer than the threshold get the maximum interval
	if reportAge >= RewarmIntervalThreshold {
		return MaxRewarmInterval
	}

	// Entries reported within the minimum interval get the minimum interval
	if reportAge < MinRewarmInterval {
		return MinRewarmInterval
	}

	// Calculate scaled interval using power curve
	ageRatio := float64(reportAge) / float64(RewarmIntervalThreshold)
	scaleFactor := math.Pow(ageRatio, RewarmIntervalExponent)
	intervalRange := float64(MaxRewarmInterval - MinRewarmInterval)
	scaledInterval := MinRewarmInterval + time.Duration(intervalRange*scaleFactor)

	return scaledInterval
}
