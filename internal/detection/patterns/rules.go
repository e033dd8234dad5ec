// Package patterns holds the compiled scam indicator ruleset and the decision
// logic that turns raw regex hits into a pattern verdict. The rule data and
// the decision rules are deliberately separate so the ruleset can grow
// without touching the scoring.
package patterns

import (
	"regexp"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

// RulesetVersion identifies the indicator rule base for auditing verdicts.
const RulesetVersion = "2025.08"

// Bucket names a scam category in the ruleset.
type Bucket string

// HIGH risk buckets. A single hit is an almost certain scam.
const (
	BucketKYCScam      Bucket = "kyc_scam"
	BucketLotteryScam  Bucket = "lottery_scam"
	BucketOTPTheft     Bucket = "otp_theft"
	BucketJobScam      Bucket = "job_scam"
	BucketLoanScam     Bucket = "loan_scam"
	BucketInvestment   Bucket = "investment_scam"
	BucketGovernment   Bucket = "government_impersonation"
	BucketDeliveryScam Bucket = "delivery_scam"
)

// MEDIUM risk buckets. Suspicious but not definitive on their own.
const (
	BucketSuspiciousLink Bucket = "suspicious_link"
	BucketUrgency        Bucket = "urgency_tactics"
	BucketMoneyRequest   Bucket = "money_request"
	BucketVerification   Bucket = "verification_scam"
)

// SpecialMultipleIndicators is the scam type reported when several MEDIUM
// buckets stack up into a HIGH verdict.
const SpecialMultipleIndicators = "Multiple Indicators"

// Buckets returns every bucket in the ruleset in table order. The model
// taxonomy prompt and the explanation coverage tests are built from this.
func Buckets() []Bucket {
	buckets := make([]Bucket, 0, len(ruleTable))
	for _, rule := range ruleTable {
		buckets = append(buckets, rule.Bucket)
	}

	return buckets
}

// rule groups the indicator expressions for one scam bucket. Critical
// buckets survive TRAI downgrades: a regulated header never excuses a KYC
// or OTP theft attempt.
type rule struct {
	Bucket   Bucket
	Level    enum.RiskLevel
	Critical bool
	Patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, regexp.MustCompile(expr))
	}

	return compiled
}

// ruleTable covers English and Romanised-Indic scam phrasing common in
// Indian SMS traffic. Native-script messages fall through to the model
// stages. All expressions run against the lowercased, mark-stripped message.
var ruleTable []rule

func init() {
	ruleTable = []rule{
		{
			Bucket:   BucketKYCScam,
			Level:    enum.RiskLevelHigh,
			Critical: true,
			Patterns: compile(
				`kyc\s*(update|expire|suspend|block|verify|pending)`,
				`(pan|aadhaar)\s*(link|update|verify|expire)\s*urgent`,
				`bank\s*account\s*(block|suspend|close|frozen)`,
				`atm\s*card\s*(block|suspend|expire)`,
				`dear\s*customer.*account.*block`,
				`your\s*a/c\s*will\s*be\s*blocked`,
				`complete\s*your\s*kyc\s*immediately`,
			),
		},
		{
			Bucket: BucketLotteryScam,
			Level:  enum.RiskLevelHigh,
			Patterns: compile(
				`won\s*(lottery|prize|rs\.?|₹|lakh|crore|cash)`,
				`claim\s*(prize|reward|money|gift)`,
				`congratulations.*won`,
				`lucky\s*(winner|draw|customer)`,
				`selected\s*for\s*(prize|reward|cashback)`,
				`₹\s*\d+\s*(lakh|crore)\s*prize`,
			),
		},
		{
			Bucket:   BucketOTPTheft,
			Level:    enum.RiskLevelHigh,
			Critical: true,
			Patterns: compile(
				`send\s*(me\s*)?otp`,
				`share\s*(your\s*)?otp`,
				`otp\s*(is|:)\s*\d{4,6}.*share`,
				`tell\s*me\s*otp`,
				`give\s*otp`,
				`need\s*your\s*otp`,
			),
		},
		{
			Bucket: BucketJobScam,
			Level:  enum.RiskLevelHigh,
			Patterns: compile(
				`(job|work)\s*offer.*(payment|fee|deposit|registration)`,
				`part\s*time\s*job.*(pay|fee|deposit)`,
				`work\s*from\s*home.*earn\s*₹?\d+`,
				`hiring.*pay\s*registration`,
				`earn\s*₹\s*\d+.*per\s*(day|hour)`,
			),
		},
		{
			Bucket: BucketLoanScam,
			Level:  enum.RiskLevelHigh,
			Patterns: compile(
				`loan\s*approved\s*(instantly|now|today)`,
				`pre-?approved\s*loan`,
				`instant\s*loan\s*₹`,
				`personal\s*loan.*processing\s*fee`,
				`loan\s*sanction.*pay\s*₹`,
			),
		},
		{
			Bucket: BucketInvestment,
			Level:  enum.RiskLevelHigh,
			Patterns: compile(
				`investment.*guaranteed\s*return`,
				`earn\s*\d+%\s*daily`,
				`double\s*your\s*money`,
				`crypto.*guaranteed\s*profit`,
				`trading\s*tips.*100%\s*profit`,
			),
		},
		{
			Bucket: BucketGovernment,
			Level:  enum.RiskLevelHigh,
			Patterns: compile(
				`income\s*tax\s*refund.*click`,
				`it\s*department.*verify`,
				`govt\s*scheme.*registration\s*fee`,
				`pm\s*kisan.*verify\s*now`,
				`subsidy.*click\s*link`,
			),
		},
		{
			Bucket: BucketDeliveryScam,
			Level:  enum.RiskLevelHigh,
			Patterns: compile(
				`package\s*(held|stuck).*pay\s*fee`,
				`customs\s*duty.*pay\s*₹`,
				`parcel\s*held.*verification`,
				`delivery\s*failed.*update\s*address`,
			),
		},
		{
			Bucket: BucketSuspiciousLink,
			Level:  enum.RiskLevelMedium,
			Patterns: compile(
				`bit\.ly`,
				`tinyurl`,
				`short\.io`,
				`t\.co`,
				`goo\.gl`,
				`link\.\w{2,4}/`,
				`click\s*here\s*now`,
				`click\s*this\s*link`,
			),
		},
		{
			Bucket: BucketUrgency,
			Level:  enum.RiskLevelMedium,
			Patterns: compile(
				`act\s*now`,
				`urgent\s*action`,
				`expires?\s*(today|tonight|in\s*\d+\s*hours?)`,
				`last\s*chance`,
				`limited\s*time`,
				`offer\s*ends?\s*(today|soon)`,
				`respond\s*immediately`,
				`don't\s*miss`,
			),
		},
		{
			Bucket: BucketMoneyRequest,
			Level:  enum.RiskLevelMedium,
			Patterns: compile(
				`transfer\s*₹?\d+`,
				`pay\s*₹?\d+\s*to`,
				`send\s*money`,
				`need\s*₹?\d+\s*urgently`,
			),
		},
		{
			Bucket: BucketVerification,
			Level:  enum.RiskLevelMedium,
			Patterns: compile(
				`verify\s*your\s*(account|identity|details)`,
				`confirm\s*your\s*(details|account)`,
				`update\s*your\s*(profile|details)`,
			),
		},
	}
}
