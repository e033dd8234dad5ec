package detection

import (
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/rakshalabs/raksha/internal/reputation"
)

// Composition weights. Reputation weighs more once a hit is verified.
const (
	weightPattern     = 0.30
	weightModel       = 0.35
	weightReputation  = 0.15
	weightVerifiedHit = 0.20
	weightContext     = 0.10
)

// Confidence band edges shared by thresholding and reconciliation.
const (
	highFloor   = 0.75
	mediumCeil  = 0.74
	mediumFloor = 0.45
	lowCeil     = 0.44
)

// reputationSuffix is appended to the reason when a blacklist hit raised a
// verdict that the other stages alone would not have reached.
const reputationSuffix = " (Also found in reputation database)"

var contextLinkPattern = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)

// ContextSignal scores circumstantial suspicion from the message itself:
// urgency phrasing, an embedded link, and anomalous length each add weight.
func ContextSignal(message string, matches []patterns.Match) float64 {
	var score float64

	if hasBucket(matches, patterns.BucketUrgency) {
		score += 0.4
	}

	if contextLinkPattern.MatchString(message) || hasBucket(matches, patterns.BucketSuspiciousLink) {
		score += 0.3
	}

	if length := utf8.RuneCountInString(message); length < 10 || length > 500 {
		score += 0.3
	}

	return math.Min(score, 1.0)
}

// Smooth nudges composite scores away from the extremes so verdicts never
// claim absolute certainty from weighted evidence alone.
func Smooth(x float64) float64 {
	x = math.Max(0, math.Min(1, x))

	switch {
	case x <= 0.1:
		return x * 1.5
	case x >= 0.9:
		return 0.85 + (x-0.9)*1.5
	default:
		return x
	}
}

// Reconcile clamps a confidence into the band of its level. The second
// return reports whether the value had to move.
func Reconcile(level enum.RiskLevel, confidence float64) (float64, bool) {
	var lo, hi float64

	switch level {
	case enum.RiskLevelHigh:
		lo, hi = highFloor, 1.0
	case enum.RiskLevelMedium:
		lo, hi = mediumFloor, mediumCeil
	case enum.RiskLevelLow, enum.RiskLevelUnknown:
		lo, hi = 0.0, lowCeil
	}

	switch {
	case confidence < lo:
		return lo, true
	case confidence > hi:
		return hi, true
	default:
		return confidence, false
	}
}

// thresholdLevel maps a composite confidence onto the risk band it falls in.
func thresholdLevel(confidence float64) enum.RiskLevel {
	switch {
	case confidence >= highFloor:
		return enum.RiskLevelHigh
	case confidence >= mediumFloor:
		return enum.RiskLevelMedium
	default:
		return enum.RiskLevelLow
	}
}

// suspicion converts a stage verdict into composition space. Only MEDIUM and
// HIGH verdicts carry scam evidence; a confident LOW carries none.
func suspicion(level enum.RiskLevel, confidence float64) float64 {
	if level == enum.RiskLevelHigh || level == enum.RiskLevelMedium {
		return math.Min(confidence, 1.0)
	}

	return 0
}

// strongerVerdict picks the model verdict that drives fusion when both the
// local and remote stages produced one. Higher level wins, then higher
// confidence.
func strongerVerdict(local, remote *ai.ModelVerdict) *ai.ModelVerdict {
	switch {
	case local == nil:
		return remote
	case remote == nil:
		return local
	case local.Level.Rank() != remote.Level.Rank():
		if local.Level.Rank() > remote.Level.Rank() {
			return local
		}

		return remote
	case local.Confidence > remote.Confidence:
		return local
	default:
		return remote
	}
}

// applyReputation raises a verdict for a blacklist hit. A verified hit
// forces HIGH, any other hit lifts LOW to MEDIUM; hits never lower. The
// reason gains a suffix whenever the hit adds information the verdict did
// not already carry.
func applyReputation(hit *reputation.Hit, level enum.RiskLevel, reason string, scamType *string) (enum.RiskLevel, string, *string) {
	if hit == nil || !hit.IsBlacklisted {
		return level, reason, scamType
	}

	if level != enum.RiskLevelHigh {
		reason += reputationSuffix
	}

	switch {
	case hit.IsVerified:
		level = enum.RiskLevelHigh
	case level == enum.RiskLevelLow:
		level = enum.RiskLevelMedium
	}

	if scamType == nil {
		scamType = hit.ScamType
	}

	return level, reason, scamType
}

// visibleHit keeps the hit on the verdict only when it names a blacklisted
// artifact; negative lookups stay internal.
func visibleHit(hit *reputation.Hit) *reputation.Hit {
	if hit == nil || !hit.IsBlacklisted {
		return nil
	}

	return hit
}

// fuseInput gathers every stage result that survives to composition.
type fuseInput struct {
	Message string
	Pattern *patterns.Result
	Local   *ai.ModelVerdict
	Remote  *ai.ModelVerdict
	Hit     *reputation.Hit
}

// fuse combines the surviving stage results into the final verdict: a
// weighted composite confidence, rule-based level selection, the reputation
// promotion, composite thresholding, and band reconciliation, in that order.
func fuse(in *fuseInput) *Verdict {
	model := strongerVerdict(in.Local, in.Remote)

	var repScore float64

	repWeight := weightReputation
	if in.Hit != nil && in.Hit.IsBlacklisted {
		repScore = in.Hit.RiskScore
		if in.Hit.IsVerified {
			repWeight = weightVerifiedHit
		}
	}

	var modelScore float64
	if model != nil {
		modelScore = suspicion(model.Level, model.Confidence)
	}

	weighted := weightPattern*suspicion(in.Pattern.Level, in.Pattern.Confidence) +
		weightModel*modelScore +
		repWeight*repScore +
		weightContext*ContextSignal(in.Message, in.Pattern.Matches)
	composite := Smooth(weighted)

	level := in.Pattern.Level
	reason := in.Pattern.Reason
	scamType := in.Pattern.ScamType
	confidence := composite
	language := ""

	if model != nil {
		language = model.Language

		if model.Level.Rank() > level.Rank() ||
			(model.Level.Rank() == level.Rank() && model.Confidence >= in.Pattern.Confidence) {
			level = model.Level
			reason = model.Reason

			if model.ScamType != nil {
				scamType = model.ScamType
			}
		}

		// A model LOW against a pattern MEDIUM caps the verdict at MEDIUM but
		// keeps the pattern evidence on record.
		if in.Pattern.Level == enum.RiskLevelMedium && model.Level == enum.RiskLevelLow {
			level = enum.RiskLevelMedium
			reason = in.Pattern.Reason
			scamType = in.Pattern.ScamType
			confidence = math.Max(in.Pattern.Confidence, 0.5)
		}
	}

	// A regulated-sender downgrade keeps its purpose label as long as nothing
	// raised the verdict past LOW.
	if in.Pattern.Downgraded && level == enum.RiskLevelLow {
		reason = in.Pattern.Reason
		scamType = in.Pattern.ScamType
	}

	level, reason, scamType = applyReputation(in.Hit, level, reason, scamType)

	if banded := thresholdLevel(composite); banded.Rank() > level.Rank() {
		level = banded
	}

	confidence, adjusted := Reconcile(level, confidence)

	if language == "" {
		language = "en"
	}

	return &Verdict{
		Level:         level,
		Reason:        reason,
		ScamType:      scamType,
		Confidence:    confidence,
		Language:      language,
		Stage:         StageFusion,
		ReputationHit: visibleHit(in.Hit),
		Adjusted:      adjusted,
	}
}

func hasBucket(matches []patterns.Match, bucket patterns.Bucket) bool {
	for _, m := range matches {
		if m.Bucket == bucket {
			return true
		}
	}

	return false
}
