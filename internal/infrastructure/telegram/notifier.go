package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DailyDigest/internal/config"
	"DailyDigest/internal/ports"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// Telegram rejects sendMessage text longer than this many characters.
	maxMessageRune = 4096
)

// Notifier posts plain-text digests to one chat through the Bot API.
type Notifier struct {
	endpoint   string
	chat       string
	httpClient *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// apiReply is the envelope every Bot API method answers with.
type apiReply struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// NewNotifier targets cfg.ChatID with cfg.BotToken. An empty APIURL uses the public Bot API.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	base := strings.TrimSuffix(cfg.APIURL, "/")
	if base == "" {
		base = defaultAPIURL
	}
	n := &Notifier{
		chat:       cfg.ChatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.BotToken != "" {
		n.endpoint = base + "/bot" + cfg.BotToken + "/sendMessage"
	}
	return n
}

// PublishDigest sends digest, cut to the Bot API message limit.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if n.endpoint == "" || n.chat == "" {
		return errors.New("telegram: bot token and chat id are required")
	}

	form := url.Values{
		"chat_id":                  {n.chat},
		"text":                     {truncate(digest, maxMessageRune)},
		"disable_web_page_preview": {"true"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var reply apiReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("telegram: %s: unreadable reply: %w", resp.Status, err)
	}
	if !reply.OK {
		return fmt.Errorf("telegram: sendMessage failed (%d): %s", reply.ErrorCode, reply.Description)
	}
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
