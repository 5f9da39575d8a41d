package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
)

const DefaultTelegramAPIBase = "https://api.telegram.org"

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	cfg    models.TelegramConfig
	client *http.Client
	log    logger.Logger
}

func NewTelegram(cfg models.TelegramConfig, log logger.Logger) *Telegram {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = models.DefaultPageTimeout
	}
	return &Telegram{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With(logger.String("channel", "telegram")),
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, msg Message) bool {
	return t.Send(ctx, msg.Body)
}

// Send posts text to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) bool {
	if !t.cfg.Configured() {
		t.log.Warn("telegram not configured")
		return false
	}

	if err := t.send(ctx, text); err != nil {
		t.log.Error("telegram send failed", logger.Error(err))
		return false
	}
	return true
}

func (t *Telegram) send(ctx context.Context, text string) error {
	endpoint := strings.TrimRight(t.cfg.APIBase, "/") + "/bot" + t.cfg.Token + "/sendMessage"
	form := url.Values{
		"chat_id": {t.cfg.ChatID},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// The error text embeds the URL, which carries the bot token.
		return fmt.Errorf("post sendMessage: %s", redact(err.Error(), t.cfg.Token))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
