package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vertex/internal/config"
	"vertex/internal/infra/log"
	"vertex/internal/infra/network"
)

const telegramAPI = "https://api.telegram.org"

// Telegram posts HTML-formatted messages to a single chat via the Bot API.
type Telegram struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
	logger  log.Logger
}

func NewTelegram(cfg config.Config, logger log.Logger) *Telegram {
	return &Telegram{
		http:    network.NewHTTPClient(10 * time.Second),
		baseURL: telegramAPI,
		token:   cfg.Telegram.BotToken,
		chatID:  cfg.Telegram.ChatID,
		logger:  logger,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
