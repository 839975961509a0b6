package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"macd-scan-go/src/models"
)

// TelegramAPI is the Bot API host
const TelegramAPI = "https://api.telegram.org"

// TelegramNotifier posts scan summaries to a Telegram chat
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
	enabled  bool
}

// NewTelegramNotifier creates a notifier; it is a no-op unless both token and chat are set
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	enabled := botToken != "" && chatID != ""
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  TelegramAPI,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		enabled: enabled,
	}
}

// Enabled reports whether messages are actually sent
func (tn *TelegramNotifier) Enabled() bool {
	return tn.enabled
}

// SendMessage sends an HTML text message
func (tn *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	if !tn.enabled {
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", tn.apiBase, tn.botToken)

	payload := map[string]interface{}{
		"chat_id":    tn.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := tn.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// SendTransitions sends the fresh latest-day signals, one line per ticker.
// Nothing is sent when the list is empty.
func (tn *TelegramNotifier) SendTransitions(ctx context.Context, transitions []models.Transition, name func(string) string) error {
	if len(transitions) == 0 {
		return nil
	}
	return tn.SendMessage(ctx, FormatTransitions(transitions, name))
}

// FormatTransitions renders transitions as the Telegram HTML body.
func FormatTransitions(transitions []models.Transition, name func(string) string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 <b>New signals (%d)</b>\n", len(transitions))
	for _, t := range transitions {
		emoji := "📈"
		if dirs := t.Event.Directions(); dirs.Sell && !dirs.Buy {
			emoji = "📉"
		}
		display := t.Event.Ticker
		if name != nil {
			display = name(t.Event.Ticker)
		}
		status := string(t.Classification)
		if t.Classification == models.ClassReversal {
			status = fmt.Sprintf("reversal from %s", t.Prior)
		}
		fmt.Fprintf(&sb, "\n%s <code>%s</code> %s [%s] %s\n%.2f | %s (%s)\n",
			emoji, t.Event.Ticker, html.EscapeString(display), t.Event.Market, t.Event.Day(),
			t.Event.Price, html.EscapeString(t.Event.SignalText()), status)
	}
	return sb.String()
}

// SendErrorNotification sends a warning message
func (tn *TelegramNotifier) SendErrorNotification(ctx context.Context, title, message string) error {
	text := fmt.Sprintf("⚠️ <b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(message))
	return tn.SendMessage(ctx, text)
}
