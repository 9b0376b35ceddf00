// Package notify pushes batch completion notices to Telegram.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
)

// Telegram caps messages at 4096 characters.
const maxMessageLen = 4000

type Notifier struct {
	bot    *telego.Bot
	chatID int64
}

// New returns nil when no token is configured; a nil Notifier drops all
// notices, so callers never need to guard.
func New(cfg config.NotifyConfig) (*Notifier, error) {
	if cfg.TelegramToken == "" {
		return nil, nil
	}

	bot, err := telego.NewBot(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Notifier{bot: bot, chatID: cfg.TelegramChat}, nil
}

// Send delivers text to the configured chat, chunked to the message limit.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if n == nil {
		return nil
	}

	for _, chunk := range chunkMessage(text, maxMessageLen) {
		msg := tu.Message(tu.ID(n.chatID), chunk)
		if _, err := n.bot.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

// BatchFinished formats and sends the end-of-batch notice. Errors are logged
// rather than returned: a lost notice never fails a batch.
func (n *Notifier) BatchFinished(ctx context.Context, runID string, ok, failed int, report string) {
	if n == nil {
		return
	}

	header := fmt.Sprintf("Batch %s finished: %d ok, %d failed\n\n", runID, ok, failed)
	if err := n.Send(ctx, header+report); err != nil {
		slog.Warn("batch notice not delivered", "run", runID, "error", err)
	}
}
