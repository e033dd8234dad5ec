// Package notify delivers one-shot guardian alert messages over external
// transports. Delivery is best-effort: the pending alert row is the durable
// artefact, so failures are logged and never retried.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/pkg/utils"
)

// Notifier sends one message to one recipient handle.
type Notifier interface {
	Send(ctx context.Context, handle, text string) error
}

// FormatAlert renders the guardian-facing message for a flagged scan.
// Content fields are HTML-escaped because the transport parses HTML.
func FormatAlert(protectedName string, level enum.RiskLevel, preview string, scamType *string, confidence float64) string {
	var b strings.Builder

	switch level {
	case enum.RiskLevelHigh:
		b.WriteString("🚨 <b>High risk message detected</b>\n")
	case enum.RiskLevelMedium:
		b.WriteString("⚠️ <b>Suspicious message detected</b>\n")
	case enum.RiskLevelLow, enum.RiskLevelUnknown:
		b.WriteString("ℹ️ <b>Message flagged for review</b>\n")
	}

	fmt.Fprintf(&b, "Received by: %s\n", html.EscapeString(protectedName))

	// Previews may span lines; the alert keeps each field on one line.
	if preview = utils.CompressAllWhitespace(preview); preview != "" {
		fmt.Fprintf(&b, "Preview: <i>%s</i>\n", html.EscapeString(preview))
	}

	if scamType != nil {
		fmt.Fprintf(&b, "Looks like: %s (%.0f%% confidence)\n", html.EscapeString(*scamType), confidence*100)
	}

	b.WriteString("Please check in with them and make sure no money or OTP was shared.")

	return b.String()
}
