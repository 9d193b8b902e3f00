package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/service"
	"github.com/Kerhoff/GiftboT/internal/telegram"
)

// ensureUser resolves the sender of a message, registering it on first contact
func ensureUser(ctx context.Context, svc *service.Service, message *tgbotapi.Message) (*models.User, error) {
	from := message.From
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return svc.Users.EnsureTelegramUser(ctx, from.ID, from.UserName, name)
}

// argID parses the n-th argument as an id
func argID(args []string, n int, usage string) (int64, error) {
	if len(args) <= n {
		return 0, apperrors.Invalid("usage", usage)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[n], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Invalid("id", fmt.Sprintf("%q is not a valid id", args[n]))
	}
	return id, nil
}

func send(bot telegram.Sender, chatID int64, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// notify sends a message to a user's private chat. Failures are ignored:
// the user may never have opened a chat with the bot.
func notify(bot telegram.Sender, user *models.User, text string) {
	if user == nil || user.TelegramID == nil {
		return
	}
	bot.Send(tgbotapi.NewMessage(*user.TelegramID, text))
}

func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return fmt.Sprintf(" (%.2f)", *price)
}
