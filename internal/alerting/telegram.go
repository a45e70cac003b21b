package alerting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Telegram posts alerts through the Bot API sendMessage method.
type Telegram struct {
	enabled    bool
	apiURL     string
	token      string
	chatID     string
	minLevel   schemas.ThreatLevel
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// NewTelegram builds the channel. Missing credentials are not an error; the
// channel then reports itself unconfigured.
func NewTelegram(cfg config.TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	logger = logger.Named("telegram")
	minLevel, err := parsePushLevel("telegram", cfg.MinLevel, logger)
	if err != nil {
		return nil, err
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	t := &Telegram{
		enabled:    cfg.Enabled,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.BotToken,
		chatID:     cfg.ChatID,
		minLevel:   minLevel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
	if !t.Configured() {
		t.logger.Warn("Telegram credentials missing. Alerts will be console-only.")
	}
	return t, nil
}

func (t *Telegram) Name() string                  { return "telegram" }
func (t *Telegram) MinLevel() schemas.ThreatLevel { return t.minLevel }

func (t *Telegram) Configured() bool {
	return t.enabled && t.token != "" && t.chatID != ""
}

func (t *Telegram) Send(ctx context.Context, s schemas.ThreatSnapshot) (string, error) {
	text, err := RenderPush(s)
	if err != nil {
		return "", err
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create telegram request: %w", t.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram request failed: %w", t.redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read telegram response: %w", err)
	}

	var parsed sendMessageResponse
	_ = json.Unmarshal(raw, &parsed)
	if resp.StatusCode != http.StatusOK || !parsed.OK {
		return "", fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, parsed.Description)
	}

	t.logger.Debug("Telegram alert sent.", zap.Int64("message_id", parsed.Result.MessageID))
	return fmt.Sprintf("message_id=%d", parsed.Result.MessageID), nil
}

// redact strips the request URL, which embeds the bot token, from transport errors.
func (t *Telegram) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	if t.token != "" && strings.Contains(err.Error(), t.token) {
		return errors.New(strings.ReplaceAll(err.Error(), t.token, "<redacted>"))
	}
	return err
}
