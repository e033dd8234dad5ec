package patterns

import (
	"regexp"
	"strings"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/pkg/utils"
)

// TRAI-regulated bulk senders carry a two-letter operator/region prefix and
// a registered header, or (older format) a bare 5-6 character header. The
// purpose of the message is flagged by a body suffix.
var (
	regulatedHeaderPattern = regexp.MustCompile(`^[A-Z]{2}-[A-Z0-9]{3,8}$`)
	bareHeaderPattern      = regexp.MustCompile(`^[A-Z0-9]{5,6}$`)
)

const (
	suffixPromotional   = "-P"
	suffixTransactional = "-T"
	suffixService       = "-S"
)

// Scam types reported for TRAI downgrades.
const (
	SpecialMarketing     = "Marketing/Spam"
	SpecialTransactional = "Transactional/Info"
)

// Match records one bucket that hit, with how many of its expressions fired.
type Match struct {
	Bucket Bucket
	Level  enum.RiskLevel
	Hits   int
}

// Result is the pattern stage verdict.
type Result struct {
	Level      enum.RiskLevel
	Reason     string
	ScamType   *string
	Confidence float64
	Matches    []Match
	Downgraded bool
	Ruleset    string
}

// Matcher evaluates messages against the compiled ruleset.
type Matcher struct{}

// NewMatcher creates a pattern matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Evaluate runs the full pattern stage: normalize, match every rule in one
// pass, apply the decision rules, then the TRAI regulated-sender policy.
func (m *Matcher) Evaluate(message, sender string) *Result {
	normalized := utils.NewTextNormalizer().Normalize(message)
	if normalized == "" {
		normalized = strings.ToLower(message)
	}

	matches, critical := matchAll(normalized)
	result := decide(matches)
	result.Matches = matches
	result.Ruleset = RulesetVersion

	applyRegulatedSenderPolicy(result, sender, message, critical)

	return result
}

// matchAll collects every bucket with at least one expression hit and
// reports whether any critical bucket fired.
func matchAll(message string) ([]Match, bool) {
	var matches []Match
	var critical bool

	for _, r := range ruleTable {
		hits := 0

		for _, pattern := range r.Patterns {
			if pattern.MatchString(message) {
				hits++
			}
		}

		if hits == 0 {
			continue
		}

		matches = append(matches, Match{Bucket: r.Bucket, Level: r.Level, Hits: hits})

		if r.Critical {
			critical = true
		}
	}

	return matches, critical
}

// decide turns the match set into a verdict:
//   - any HIGH hit is HIGH, confidence scaling with the hit count;
//   - three or more MEDIUM hits stack into HIGH ("Multiple Indicators");
//   - one or two MEDIUM hits stay MEDIUM;
//   - nothing matched is LOW at fixed confidence.
func decide(matches []Match) *Result {
	var highHits, mediumHits int
	var firstHigh, firstMedium *Match

	for i := range matches {
		match := &matches[i]

		switch match.Level {
		case enum.RiskLevelHigh:
			highHits += match.Hits
			if firstHigh == nil {
				firstHigh = match
			}
		case enum.RiskLevelMedium:
			mediumHits += match.Hits
			if firstMedium == nil {
				firstMedium = match
			}
		case enum.RiskLevelLow, enum.RiskLevelUnknown:
		}
	}

	switch {
	case highHits > 0:
		scamType := string(firstHigh.Bucket)

		return &Result{
			Level:      enum.RiskLevelHigh,
			Reason:     "Detected " + bucketLabel(firstHigh.Bucket) + " pattern",
			ScamType:   &scamType,
			Confidence: min(0.85+0.03*float64(highHits), 0.99),
		}

	case mediumHits >= 3:
		scamType := SpecialMultipleIndicators

		return &Result{
			Level:      enum.RiskLevelHigh,
			Reason:     "Multiple suspicious patterns detected",
			ScamType:   &scamType,
			Confidence: 0.75,
		}

	case mediumHits > 0:
		scamType := string(firstMedium.Bucket)

		return &Result{
			Level:      enum.RiskLevelMedium,
			Reason:     "Detected " + bucketLabel(firstMedium.Bucket),
			ScamType:   &scamType,
			Confidence: 0.5 + 0.1*float64(mediumHits),
		}

	default:
		return &Result{
			Level:      enum.RiskLevelLow,
			Reason:     "No known scam patterns detected",
			Confidence: 0.7,
		}
	}
}

// applyRegulatedSenderPolicy downgrades verdicts for TRAI registered bulk
// senders whose message carries a purpose suffix. Critical buckets (KYC,
// OTP theft) always stand: a registered header never excuses those.
func applyRegulatedSenderPolicy(result *Result, sender, message string, critical bool) {
	if sender == "" || critical {
		return
	}

	header := strings.ToUpper(strings.TrimSpace(sender))
	if !regulatedHeaderPattern.MatchString(header) && !bareHeaderPattern.MatchString(header) {
		return
	}

	var scamType string
	var confidence float64

	switch {
	case strings.HasSuffix(strings.TrimSpace(message), suffixPromotional):
		scamType = SpecialMarketing
		confidence = 0.3
	case strings.HasSuffix(strings.TrimSpace(message), suffixTransactional),
		strings.HasSuffix(strings.TrimSpace(message), suffixService):
		scamType = SpecialTransactional
		confidence = 0.2
	default:
		return
	}

	result.Level = enum.RiskLevelLow
	result.Reason = "Regulated sender with declared purpose suffix"
	result.ScamType = &scamType
	result.Confidence = confidence
	result.Downgraded = true
}

// bucketLabel renders a bucket name for human-readable reasons.
func bucketLabel(bucket Bucket) string {
	return strings.ReplaceAll(string(bucket), "_", " ")
}
