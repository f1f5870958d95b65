package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/cibulb/internal/storage"
	"github.com/user/cibulb/pkg/logger"
)

const commandTimeout = 10 * time.Second

const helpText = `💡 *Commands*

• ` + "`/status`" + ` - current CI status across all repositories
• ` + "`/repos`" + ` - status of every tracked repository
• ` + "`/help`" + ` - this message`

// Sender is the part of the bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handlers manages command handling for the bot.
type Handlers struct {
	api       Sender
	connector storage.Connector
}

// NewHandlers creates a new handlers instance.
func NewHandlers(api Sender, connector storage.Connector) *Handlers {
	return &Handlers{
		api:       api,
		connector: connector,
	}
}

// HandleCommand routes commands to appropriate handlers.
func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()

	logger.Debug().
		Str("command", command).
		Int64("chat_id", msg.Chat.ID).
		Msg("Received command")

	switch command {
	case "start", "help":
		h.sendMarkdown(msg.Chat.ID, helpText)
	case "status":
		h.handleStatus(ctx, msg, false)
	case "repos":
		h.handleStatus(ctx, msg, true)
	default:
		h.sendMarkdown(msg.Chat.ID, "Unknown command. Use /help to list commands.")
	}
}

// handleStatus reads the records and replies with the aggregate, and with
// the per-repository list when detailed is set.
func (h *Handlers) handleStatus(ctx context.Context, msg *tgbotapi.Message, detailed bool) {
	if h.connector == nil {
		h.sendMarkdown(msg.Chat.ID, "❌ Status is not available")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	records, err := h.fetchRecords(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read repository records")
		h.sendMarkdown(msg.Chat.ID, "❌ Failed to read status, please retry later")
		return
	}

	if detailed {
		h.sendMarkdown(msg.Chat.ID, BuildRepositoriesMessage(records))
		return
	}
	h.sendMarkdown(msg.Chat.ID, BuildStatusMessage(storage.Aggregate(records)))
}

func (h *Handlers) fetchRecords(ctx context.Context) ([]storage.RepositoryRecord, error) {
	store, err := h.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.FetchAll(ctx)
}

// sendMarkdown sends a markdown-formatted message.
func (h *Handlers) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := h.api.Send(msg); err != nil {
		logger.Error().Err(err).Msg("Failed to send markdown message")
	}
}
