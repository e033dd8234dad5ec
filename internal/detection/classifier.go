package detection

import (
	"regexp"
	"strings"
)

// ContentType tells the pipeline what kind of artifact was submitted.
type ContentType string

// Artifact kinds accepted by the pipeline. Auto asks the classifier to
// decide.
const (
	ContentTypeText  ContentType = "text"
	ContentTypeURL   ContentType = "url"
	ContentTypePhone ContentType = "phone"
	ContentTypeAuto  ContentType = "auto"
)

var (
	schemedURLPattern = regexp.MustCompile(`(?i)^(https?://|www\.)\S+$`)
	bareDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.[a-zA-Z]{2,}$`)
	dialDigitsPattern = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
	dialSeparators    = regexp.MustCompile(`[\s\-()]`)
)

// DetectContentType classifies a raw artifact as a url, a phone number, or
// message text. A URL must be the whole artifact; a sentence that merely
// contains a link stays text so entity extraction can pick the link out.
func DetectContentType(content string) ContentType {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ContentTypeText
	}

	if schemedURLPattern.MatchString(trimmed) {
		return ContentTypeURL
	}

	// Phone detection tolerates the usual separators but nothing else, so
	// "call 9876543210 now" stays text.
	if dialDigitsPattern.MatchString(dialSeparators.ReplaceAllString(trimmed, "")) {
		return ContentTypePhone
	}

	if bareDomainPattern.MatchString(trimmed) {
		return ContentTypeURL
	}

	return ContentTypeText
}

// NormalizeContentType coerces a free-form content type string, falling back
// to auto-detection for anything unrecognized.
func NormalizeContentType(s string) ContentType {
	switch ContentType(s) {
	case ContentTypeText, ContentTypeURL, ContentTypePhone:
		return ContentType(s)
	default:
		return ContentTypeAuto
	}
}
