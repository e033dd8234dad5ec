package notify_test

import (
	"context"
	"testing"

	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/notify"
	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatAlert(t *testing.T) {
	t.Parallel()

	t.Run("high risk message", func(t *testing.T) {
		t.Parallel()

		text := notify.FormatAlert("Asha", enum.RiskLevelHigh, "Share your OTP now", utils.Ptr("otp_theft"), 0.92)
		assert.Contains(t, text, "High risk message detected")
		assert.Contains(t, text, "Asha")
		assert.Contains(t, text, "Share your OTP now")
		assert.Contains(t, text, "otp_theft")
		assert.Contains(t, text, "92% confidence")
	})

	t.Run("medium without scam type", func(t *testing.T) {
		t.Parallel()

		text := notify.FormatAlert("Ravi", enum.RiskLevelMedium, "Click here", nil, 0.5)
		assert.Contains(t, text, "Suspicious message detected")
		assert.NotContains(t, text, "Looks like")
	})

	t.Run("escapes html in content", func(t *testing.T) {
		t.Parallel()

		text := notify.FormatAlert("<b>Asha</b>", enum.RiskLevelHigh, "<script>alert(1)</script>", nil, 0.9)
		assert.NotContains(t, text, "<script>")
		assert.Contains(t, text, "&lt;script&gt;")
	})

	t.Run("flattens multi-line previews", func(t *testing.T) {
		t.Parallel()

		text := notify.FormatAlert("Asha", enum.RiskLevelMedium, "Dear customer\n\nyour  account", nil, 0.5)
		assert.Contains(t, text, "Preview: <i>Dear customer your account</i>")
	})
}

func TestTelegramSendSkips(t *testing.T) {
	t.Parallel()

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		notifier := notify.NewTelegram("", nil, zap.NewNop())
		require.NoError(t, notifier.Send(context.Background(), "12345", "hello"))
	})

	t.Run("missing handle", func(t *testing.T) {
		t.Parallel()

		notifier := notify.NewTelegram("token", nil, zap.NewNop())
		require.NoError(t, notifier.Send(context.Background(), "", "hello"))
	})
}
