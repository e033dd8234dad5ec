package enum

// RiskLevel classifies how dangerous an analyzed message is.
type RiskLevel string

const (
	// RiskLevelHigh marks messages that are almost certainly scams.
	RiskLevelHigh RiskLevel = "HIGH"
	// RiskLevelMedium marks messages with suspicious indicators that fall
	// short of a confident verdict.
	RiskLevelMedium RiskLevel = "MEDIUM"
	// RiskLevelLow marks messages with no known scam indicators.
	RiskLevelLow RiskLevel = "LOW"
	// RiskLevelUnknown marks messages the system could not analyze at all,
	// such as images when every vision vendor is down.
	RiskLevelUnknown RiskLevel = "UNKNOWN"
)

// riskRank orders levels for threshold comparison (HIGH > MEDIUM > LOW).
var riskRank = map[RiskLevel]int{
	RiskLevelHigh:    3,
	RiskLevelMedium:  2,
	RiskLevelLow:     1,
	RiskLevelUnknown: 0,
}

// Rank returns the ordering weight of the level. Higher is riskier.
func (r RiskLevel) Rank() int {
	return riskRank[r]
}

// AtLeast reports whether the level meets or exceeds the given threshold.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// NormalizeRiskLevel coerces a free-form level string (typically from a model
// response) into the enum. Unrecognized values collapse to MEDIUM as the
// safer default.
func NormalizeRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLevelHigh, RiskLevelMedium, RiskLevelLow, RiskLevelUnknown:
		return RiskLevel(s)
	default:
		return RiskLevelMedium
	}
}
