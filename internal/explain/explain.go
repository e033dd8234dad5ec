// Package explain turns a verdict into a plain-language consequence record:
// what the scam does to its victims, how bad it gets, and what to do instead.
package explain

import (
	"sort"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

// LanguageHindi selects translated headlines where available.
const LanguageHindi = "hi"

// Consequence describes the real-world impact of one scam category.
type Consequence struct {
	Headline      string   `json:"headline"`
	Details       []string `json:"details"`
	Action        string   `json:"action"`
	Severity      string   `json:"severity"`
	PotentialLoss string   `json:"potential_loss"`
}

// Explanation is a consequence resolved against a concrete verdict.
type Explanation struct {
	Consequence

	HeadlineHindi string  `json:"headline_hi,omitempty"`
	ShouldWorry   bool    `json:"should_worry"`
	ScamType      *string `json:"scam_type,omitempty"`
}

// Explain resolves the consequence record for a verdict. LOW verdicts always
// get the fixed "appears safe" record; unknown scam types fall back to the
// generic one. The `hi` language hint swaps in a translated headline when the
// table has one.
func Explain(level enum.RiskLevel, scamType *string, language string) *Explanation {
	if level == enum.RiskLevelLow {
		return &Explanation{
			Consequence: safeConsequence,
			ShouldWorry: false,
		}
	}

	consequence := defaultConsequence
	if scamType != nil {
		if known, ok := consequences[*scamType]; ok {
			consequence = known
		}
	}

	explanation := &Explanation{
		Consequence: consequence,
		ShouldWorry: level == enum.RiskLevelHigh || consequence.Severity == SeverityCritical,
		ScamType:    scamType,
	}

	if language == LanguageHindi {
		explanation.HeadlineHindi = consequence.Headline
		if translated, ok := hindiHeadlines[consequence.Headline]; ok {
			explanation.HeadlineHindi = translated
		}
	}

	return explanation
}

// QuickTip returns a one-liner safety tip for the scam type, falling back to
// a generic reminder.
func QuickTip(scamType *string) string {
	if scamType != nil {
		if tip, ok := quickTips[*scamType]; ok {
			return tip
		}
	}

	return defaultTip
}

// KnownTypes lists every scam type the consequence table covers, sorted for
// stable output.
func KnownTypes() []string {
	types := make([]string, 0, len(consequences))
	for scamType := range consequences {
		types = append(types, scamType)
	}

	sort.Strings(types)

	return types
}
