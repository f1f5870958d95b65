package notifier

import (
	"context"
	"fmt"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/status"
	"github.com/user/cibulb/internal/telegram"
)

// Telegram posts the aggregate to a chat.
type Telegram struct {
	bot    *telegram.Bot
	chatID int64
}

// NewTelegram creates a notifier sending to chatID.
func NewTelegram(bot *telegram.Bot, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// Name identifies the notifier in logs.
func (n *Telegram) Name() string { return config.NotifierTelegram }

// Notify sends the status message and returns the sent message ID.
func (n *Telegram) Notify(_ context.Context, agg status.Aggregate) (string, error) {
	id, err := n.bot.SendMarkdownMessage(n.chatID, telegram.BuildStatusMessage(agg))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return fmt.Sprintf("message %d", id), nil
}
