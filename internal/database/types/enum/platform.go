package enum

// Platform records where a scanned message arrived from.
type Platform string

const (
	// PlatformSMS marks messages from the SMS inbox.
	PlatformSMS Platform = "sms"
	// PlatformIM marks messages from instant messengers.
	PlatformIM Platform = "im"
	// PlatformOther marks everything else, including manual checks.
	PlatformOther Platform = "other"
)

// NormalizePlatform coerces a free-form platform string into the enum,
// defaulting to other.
func NormalizePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformSMS, PlatformIM, PlatformOther:
		return Platform(s)
	default:
		return PlatformOther
	}
}
