// Package reputation implements the shared scam-artifact blacklist: canonical
// normalization and hashing, the cached checker, community reporting, and
// automatic extraction from high-confidence verdicts.
package reputation

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
)

var (
	nonPhoneRunes = regexp.MustCompile(`[^\d+]`)
	schemePrefix  = regexp.MustCompile(`^https?://`)
)

// Normalize canonicalizes an artifact value so that lookups and writes always
// agree on the same form. Normalization is idempotent.
//
//   - phone: digits only; bare local numbers gain the +91 country prefix.
//   - url: lowercase, scheme stripped, trailing slash stripped.
//   - domain: lowercase host only, path cut off.
func Normalize(value string, artifactType enum.BlacklistType) string {
	switch artifactType {
	case enum.BlacklistTypePhone:
		digits := nonPhoneRunes.ReplaceAllString(value, "")
		if strings.HasPrefix(digits, "+") {
			return digits
		}

		if strings.HasPrefix(digits, "91") && len(digits) == 12 {
			return "+" + digits
		}

		if len(digits) > 10 {
			digits = digits[len(digits)-10:]
		}

		return "+91" + digits

	case enum.BlacklistTypeURL:
		value = strings.TrimSpace(strings.ToLower(value))
		value = schemePrefix.ReplaceAllString(value, "")

		return strings.TrimSuffix(value, "/")

	case enum.BlacklistTypeDomain:
		value = strings.TrimSpace(strings.ToLower(value))
		value = schemePrefix.ReplaceAllString(value, "")

		if i := strings.IndexByte(value, '/'); i >= 0 {
			value = value[:i]
		}

		return value

	default:
		return strings.TrimSpace(strings.ToLower(value))
	}
}

// HashValue computes the 32-byte SHA-256 digest of a normalized value.
func HashValue(normalized string) []byte {
	sum := sha256.Sum256([]byte(normalized))
	return sum[:]
}

// CacheKey builds the redis key for a value hash.
func CacheKey(hash []byte) string {
	return "bl:" + hex.EncodeToString(hash)
}
