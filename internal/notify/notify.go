// Package notify delivers trade alerts to external channels.
package notify

import (
	"context"

	"vertex/internal/config"
	"vertex/internal/infra/log"
)

// Notifier sends a human-readable alert. Implementations must be safe to
// call from the scan loop without blocking it for long.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Nop silently drops alerts.
type Nop struct{}

func (Nop) Send(context.Context, string) error { return nil }

// New returns a Telegram notifier when credentials are configured,
// otherwise a Nop.
func New(cfg config.Config, logger log.Logger) Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		logger.Info().Msg("telegram alerts disabled")
		return Nop{}
	}
	return NewTelegram(cfg, logger)
}
