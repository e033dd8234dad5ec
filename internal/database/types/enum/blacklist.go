package enum

// BlacklistType identifies which kind of artifact a blacklist entry tracks.
type BlacklistType string

const (
	// BlacklistTypeURL tracks full URLs, normalized without scheme.
	BlacklistTypeURL BlacklistType = "url"
	// BlacklistTypePhone tracks phone numbers in canonical +digits form.
	BlacklistTypePhone BlacklistType = "phone"
	// BlacklistTypeDomain tracks bare domains without path.
	BlacklistTypeDomain BlacklistType = "domain"
)

// ValidBlacklistType reports whether s is a recognized artifact type.
func ValidBlacklistType(s string) bool {
	switch BlacklistType(s) {
	case BlacklistTypeURL, BlacklistTypePhone, BlacklistTypeDomain:
		return true
	default:
		return false
	}
}

// BlacklistSource records how an entry first reached the blacklist.
type BlacklistSource string

const (
	// BlacklistSourceCommunity marks entries reported by users.
	BlacklistSourceCommunity BlacklistSource = "community"
	// BlacklistSourceSystem marks entries seeded by operators.
	BlacklistSourceSystem BlacklistSource = "system"
	// BlacklistSourceVerified marks entries confirmed by moderators.
	BlacklistSourceVerified BlacklistSource = "verified"
	// BlacklistSourceAIAuto marks entries extracted automatically from
	// high-confidence scam verdicts.
	BlacklistSourceAIAuto BlacklistSource = "ai_auto"
)
