// Package notifier delivers the aggregate build status to the outside world.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/status"
	"github.com/user/cibulb/internal/telegram"
)

// ErrDelivery marks a notification that did not reach its destination.
var ErrDelivery = errors.New("notification delivery failed")

const defaultTimeout = 10 * time.Second

// Notifier sends an aggregate status. The returned string is the
// destination's response body, empty when the destination has none.
type Notifier interface {
	Notify(ctx context.Context, agg status.Aggregate) (string, error)
	Name() string
}

// Closer is implemented by notifiers that hold a connection.
type Closer interface {
	Close(ctx context.Context) error
}

// New builds the notifier selected by cfg.Notifier.Mode. bot is only used
// in telegram mode.
func New(ctx context.Context, cfg *config.Config, bot *telegram.Bot) (Notifier, error) {
	switch cfg.Notifier.Mode {
	case config.NotifierIFTTT:
		return NewIFTTT(cfg.IFTTT, &http.Client{Timeout: defaultTimeout}), nil
	case config.NotifierPubSub:
		return OpenPubSub(ctx, cfg.PubSub.Topic)
	case config.NotifierTelegram:
		if bot == nil {
			return nil, fmt.Errorf("telegram notifier needs a bot")
		}
		return NewTelegram(bot, cfg.Telegram.ChatID), nil
	default:
		return nil, fmt.Errorf("unknown notifier mode %q", cfg.Notifier.Mode)
	}
}
