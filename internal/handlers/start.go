package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/service"
	"github.com/Kerhoff/GiftboT/internal/telegram"
)

const helpText = `📚 GiftboT Help

Friends:
• /code - Show your friend code
• /friend <code> - Send a friend request
• /friends - Show friends and pending requests
• /accept <id> - Accept a friend request
• /decline <id> - Decline a friend request

Wishlists:
• /wishlists [code] - Show your wishlists, or a friend's
• /wish <list id> <name> - Add an item to a wishlist
• /reserve <item id> - Reserve an item, or release your reservation

Events:
• /events - Show your events and invitations`

// StartHandler handles the /start command
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle registers the sender and greets them with their friend code
func (h *StartHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("🎁 Welcome to GiftboT, %s!\n\n"+
		"Share your friend code with people you exchange gifts with: %s\n\n%s",
		user.DisplayName(), user.FriendCode, helpText)
	if err := send(bot, message.Chat.ID, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": user.ID,
	}).Info("Sent start message")
	return nil
}

// HelpHandler handles the /help command
type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	return send(bot, message.Chat.ID, helpText)
}

// CodeHandler handles the /code command
type CodeHandler struct {
	svc *service.Service
}

func NewCodeHandler(svc *service.Service) *CodeHandler {
	return &CodeHandler{svc: svc}
}

func (h *CodeHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}
	return send(bot, message.Chat.ID, fmt.Sprintf("🔑 Your friend code: %s", user.FriendCode))
}
