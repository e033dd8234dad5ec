package explain

// Severity grades the real-world impact of a scam category independently of
// the detection confidence.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Scam types produced outside the pattern ruleset.
const (
	TypeBlockedSender = "Blocked Sender"
	TypeServiceBusy   = "Service Busy"
)

// consequences maps a scam type to the impact record shown to the user.
// Keys cover every ruleset bucket plus the synthetic types emitted by the
// pipeline (sender overrides, stacked indicators, TRAI downgrades, vision
// vendor exhaustion).
var consequences = map[string]Consequence{
	"kyc_scam": {
		Headline: "Your bank account could be emptied",
		Details: []string{
			"Scammers will use your details to access your bank account",
			"They may take loans in your name",
			"Your credit score could be damaged",
		},
		Action:        "Never share OTP, CVV, or passwords. Banks NEVER ask for these.",
		Severity:      SeverityCritical,
		PotentialLoss: "₹50,000 - ₹10,00,000",
	},
	"lottery_scam": {
		Headline: "There is no prize - you'll lose money",
		Details: []string{
			"Fake lotteries ask for 'processing fees' upfront",
			"Once paid, they'll ask for more or disappear",
			"Your personal details will be sold to other scammers",
		},
		Action:        "Real lotteries never ask winners to pay fees.",
		Severity:      SeverityHigh,
		PotentialLoss: "₹5,000 - ₹1,00,000",
	},
	"otp_theft": {
		Headline: "Your money will be stolen in seconds",
		Details: []string{
			"OTP gives direct access to your bank account",
			"Transactions happen instantly and are hard to reverse",
			"Multiple accounts linked to your phone are at risk",
		},
		Action:        "NEVER share OTP with anyone. Not even bank officials.",
		Severity:      SeverityCritical,
		PotentialLoss: "Entire account balance",
	},
	"job_scam": {
		Headline: "No real job exists - only losses",
		Details: []string{
			"Registration fees are never returned",
			"Your documents may be misused for identity theft",
			"Some scams lead to illegal activities in your name",
		},
		Action:        "Legitimate companies never charge job seekers.",
		Severity:      SeverityHigh,
		PotentialLoss: "₹1,000 - ₹50,000",
	},
	"loan_scam": {
		Headline: "You'll pay for a loan that never comes",
		Details: []string{
			"Processing fees are taken but loan never approved",
			"Your documents may be used for fraud",
			"Harassment calls may follow for months",
		},
		Action:        "Apply for loans only through official bank channels.",
		Severity:      SeverityHigh,
		PotentialLoss: "₹2,000 - ₹25,000",
	},
	"investment_scam": {
		Headline: "Guaranteed returns = Guaranteed fraud",
		Details: []string{
			"Ponzi schemes collapse taking all your money",
			"Crypto scams use complex terms to confuse",
			"Recovery is almost impossible",
		},
		Action:        "No investment guarantees returns. If it sounds too good, it is.",
		Severity:      SeverityCritical,
		PotentialLoss: "₹10,000 - ₹50,00,000",
	},
	"government_impersonation": {
		Headline: "Real officials never demand money over chat",
		Details: []string{
			"Fake police and customs officers threaten 'digital arrest'",
			"Fear keeps victims on the line while accounts are drained",
			"No agency collects fines through UPI or gift cards",
		},
		Action:        "Hang up and call the agency's published number yourself.",
		Severity:      SeverityCritical,
		PotentialLoss: "₹10,000 - ₹50,00,000",
	},
	"delivery_scam": {
		Headline: "No package exists - your data will be stolen",
		Details: []string{
			"Links lead to fake sites that steal payment info",
			"'Customs fees' are pocketed by scammers",
			"Malware may be installed on your device",
		},
		Action:        "Track packages only on official courier websites.",
		Severity:      SeverityMedium,
		PotentialLoss: "₹500 - ₹5,000",
	},
	"suspicious_link": {
		Headline: "Your credentials will be stolen",
		Details: []string{
			"Fake websites capture your login details",
			"Hackers access your email, social media, bank",
			"Your identity can be used for crimes",
		},
		Action:        "Always check the URL carefully. Look for https and correct spelling.",
		Severity:      SeverityHigh,
		PotentialLoss: "Varies - up to full accounts",
	},
	"urgency_tactics": {
		Headline: "Urgency is the scammer's favourite tool",
		Details: []string{
			"Deadlines and threats stop you from thinking clearly",
			"Real institutions give you time and written notice",
			"Acting in panic is how money gets sent to strangers",
		},
		Action:        "Slow down. Anything genuinely urgent can be verified first.",
		Severity:      SeverityMedium,
		PotentialLoss: "Varies",
	},
	"money_request": {
		Headline: "Money sent to strangers rarely comes back",
		Details: []string{
			"Scanning QR codes to 'receive' money actually sends money",
			"Payment requests masked as incoming payments",
			"No way to reverse UPI transactions",
		},
		Action:        "Never scan QR or enter PIN to receive money.",
		Severity:      SeverityHigh,
		PotentialLoss: "₹1,000 - ₹2,00,000",
	},
	"verification_scam": {
		Headline: "Your account is not suspended - your login is the target",
		Details: []string{
			"'Verify now' pages are copies of the real site",
			"Entered credentials go straight to the scammer",
			"One captured login often unlocks several accounts",
		},
		Action:        "Open the service's app or website yourself. Never verify via a link.",
		Severity:      SeverityHigh,
		PotentialLoss: "Varies - up to full accounts",
	},
	"Multiple Indicators": {
		Headline: "Several scam signals in one message",
		Details: []string{
			"Scammers layer urgency, links, and money asks together",
			"Each signal alone is weak; combined they are a strong tell",
			"Any money sent is unlikely to be recovered",
		},
		Action:        "Do not reply or click. Verify through official channels.",
		Severity:      SeverityHigh,
		PotentialLoss: "Varies",
	},
	"Marketing/Spam": {
		Headline: "Bulk promotion, not a personal message",
		Details: []string{
			"Sent through a registered promotional route",
			"Unsolicited offers still deserve scepticism",
			"Reply STOP or block the header to opt out",
		},
		Action:        "Ignore offers you did not ask for.",
		Severity:      SeverityLow,
		PotentialLoss: "None expected",
	},
	"Transactional/Info": {
		Headline: "Routine service message",
		Details: []string{
			"Sent through a registered transactional route",
			"Confirms activity you initiated",
			"Still never share OTPs it contains with anyone",
		},
		Action:        "No action needed unless you did not initiate the activity.",
		Severity:      SeverityLow,
		PotentialLoss: "None expected",
	},
	TypeServiceBusy: {
		Headline: "Analysis is temporarily unavailable",
		Details: []string{
			"The image could not be checked right now",
			"Treat the content with caution until re-checked",
			"Try again in a few minutes",
		},
		Action:        "Do not act on the message until a re-check succeeds.",
		Severity:      SeverityMedium,
		PotentialLoss: "Unknown",
	},
	TypeBlockedSender: {
		Headline: "This sender was previously blocked",
		Details: []string{
			"You or the system already marked this as harmful",
			"They may be trying new tactics",
			"Continue ignoring messages from this sender",
		},
		Action:        "Keep this sender blocked. Report if harassment continues.",
		Severity:      SeverityMedium,
		PotentialLoss: "N/A - Already protected",
	},
}

// defaultConsequence covers scam types the table does not know.
var defaultConsequence = Consequence{
	Headline: "This message shows signs of a scam",
	Details: []string{
		"Scammers use urgency and fear to manipulate",
		"Any money sent is unlikely to be recovered",
		"Your personal details may be misused",
	},
	Action:        "When in doubt, don't respond. Verify through official channels.",
	Severity:      SeverityMedium,
	PotentialLoss: "Varies",
}

// safeConsequence is the fixed record for LOW verdicts.
var safeConsequence = Consequence{
	Headline:      "This appears safe",
	Details:       []string{"No scam indicators detected"},
	Action:        "Stay vigilant with all messages",
	Severity:      SeverityLow,
	PotentialLoss: "None expected",
}

// hindiHeadlines translates key phrases for the `hi` language hint. A missing
// entry falls back to the English headline.
var hindiHeadlines = map[string]string{
	"Your bank account could be emptied":       "आपका बैंक खाता खाली हो सकता है",
	"There is no prize - you'll lose money":    "कोई इनाम नहीं है - आप पैसे खो देंगे",
	"Your money will be stolen in seconds":     "सेकंडों में आपका पैसा चोरी हो जाएगा",
	"Never share OTP with anyone":              "OTP किसी के साथ साझा न करें",
	"When in doubt, don't respond":             "संदेह होने पर, जवाब न दें",
	"This message shows signs of a scam":       "इस संदेश में धोखाधड़ी के संकेत हैं",
	"This sender was previously blocked":       "यह भेजने वाला पहले ही ब्लॉक किया जा चुका है",
	"Money sent to strangers rarely comes back": "अजनबियों को भेजा गया पैसा शायद ही कभी वापस आता है",
}

// quickTips gives a one-liner per scam type for the tips setting.
var quickTips = map[string]string{
	"kyc_scam":        "Banks never ask for OTP or password via SMS/call",
	"lottery_scam":    "You can't win a lottery you didn't enter",
	"otp_theft":       "OTP is like your password - never share it",
	"money_request":   "You never need to enter PIN to receive money",
	"job_scam":        "Real jobs pay you, not the other way around",
	"investment_scam": "If returns are guaranteed, it's a scam",
	"suspicious_link": "Check URLs carefully before entering credentials",
}

// defaultTip applies when no scam type matched the tips table.
const defaultTip = "Verify before you trust"
