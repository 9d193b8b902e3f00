package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
)

// Sender is the part of the Bot API used to reply. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(ctx context.Context, bot Sender, message *tgbotapi.Message, args []string) error
}

// Router handles message routing and command parsing
type Router struct {
	logger   *logrus.Logger
	handlers map[string]CommandHandler
	timeout  time.Duration
}

// NewRouter creates a new message router. Each command runs under timeout.
func NewRouter(logger *logrus.Logger, timeout time.Duration) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]CommandHandler),
		timeout:  timeout,
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(ctx context.Context, bot Sender, message *tgbotapi.Message) {
	if message.From == nil || message.Text == "" || !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())
	fields := logrus.Fields{
		"command": command,
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}
	r.logger.WithFields(fields).Debug("Received command")

	handler, exists := r.handlers[command]
	if !exists {
		r.logger.WithFields(fields).Warn("Unknown command")
		reply(bot, message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := handler.Handle(ctx, bot, message, args); err != nil {
		reply(bot, message.Chat.ID, r.errorText(err, fields))
	}
}

// errorText turns a handler error into the reply shown to the user. Domain
// errors carry their own message; anything else is logged and hidden.
func (r *Router) errorText(err error, fields logrus.Fields) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Kind != apperrors.KindInfrastructure {
		r.logger.WithFields(fields).WithField("kind", appErr.Kind).Debug("Command rejected")
		text := "⚠️ " + appErr.PublicMessage()
		for field, msg := range appErr.Fields {
			text += "\n• " + field + ": " + msg
		}
		return text
	}

	r.logger.WithFields(fields).WithError(err).Error("Command handler failed")
	return "❌ An error occurred while processing your command. Please try again."
}

func reply(bot Sender, chatID int64, text string) {
	bot.Send(tgbotapi.NewMessage(chatID, text))
}
