package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/pkg/client"
	"go.uber.org/zap"
)

// telegramAPIBase is the Bot API endpoint prefix; the bot token follows it.
const telegramAPIBase = "https://api.telegram.org/bot"

// Telegram delivers alert messages through the Telegram Bot API.
type Telegram struct {
	client *client.Client
	token  string
	logger *zap.Logger
}

// NewTelegram creates a Telegram notifier. An empty token disables dispatch:
// sends become logged skips rather than errors.
func NewTelegram(token string, httpClient *client.Client, logger *zap.Logger) *Telegram {
	return &Telegram{
		client: httpClient,
		token:  token,
		logger: logger.Named("notify_telegram"),
	}
}

// telegramResponse is the Bot API result envelope.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts one message to the chat handle. Missing configuration or a
// missing handle skips the send silently: alerts must not fail because a
// guardian never connected the bot.
func (t *Telegram) Send(ctx context.Context, handle, text string) error {
	if t.token == "" {
		t.logger.Debug("Skipping notification, bot token not configured")
		return nil
	}

	if handle == "" {
		t.logger.Debug("Skipping notification, recipient has no handle")
		return nil
	}

	resp, err := t.client.NewRequest().
		Method(http.MethodPost).
		URL(telegramAPIBase + t.token + "/sendMessage").
		Query("chat_id", handle).
		Query("text", text).
		Query("parse_mode", "HTML").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var result telegramResponse
	if err := sonic.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse telegram response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}

	t.logger.Debug("Notification delivered", zap.String("handle", handle))

	return nil
}
