package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/service"
	"github.com/Kerhoff/GiftboT/internal/telegram"
)

// ---------------------------------------------------------------------------
// FriendRequestHandler – /friend <code>
// ---------------------------------------------------------------------------

// FriendRequestHandler sends a friend request to the owner of a friend code
type FriendRequestHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewFriendRequestHandler(svc *service.Service, logger *logrus.Logger) *FriendRequestHandler {
	return &FriendRequestHandler{svc: svc, logger: logger}
}

func (h *FriendRequestHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return apperrors.Invalid("usage", "/friend <code>")
	}
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}

	friendship, tags, err := h.svc.Friendships.SendFriendRequestByCode(ctx, user.ID, args[0])
	if err != nil {
		return err
	}
	h.svc.Invalidate(ctx, tags)

	h.logger.WithFields(logrus.Fields{
		"friendship_id": friendship.ID,
		"sender_id":     user.ID,
		"receiver_id":   friendship.ReceiverID,
	}).Info("Friend request sent from Telegram")

	if receiver, err := h.svc.Users.GetByID(ctx, friendship.ReceiverID); err == nil {
		notify(bot, receiver, fmt.Sprintf("👋 %s wants to be your friend. Reply /accept %d or /decline %d.",
			user.DisplayName(), friendship.ID, friendship.ID))
	}
	return send(bot, message.Chat.ID, fmt.Sprintf("📨 Friend request #%d sent.", friendship.ID))
}

// ---------------------------------------------------------------------------
// FriendsHandler – /friends
// ---------------------------------------------------------------------------

// FriendsHandler lists friends and incoming requests
type FriendsHandler struct {
	svc *service.Service
}

func NewFriendsHandler(svc *service.Service) *FriendsHandler {
	return &FriendsHandler{svc: svc}
}

func (h *FriendsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}
	friends, err := h.svc.Friendships.GetFriends(ctx, user.ID)
	if err != nil {
		return err
	}
	received, err := h.svc.Friendships.GetReceivedPendingFriendRequests(ctx, user.ID)
	if err != nil {
		return err
	}

	var b strings.Builder
	if len(friends) == 0 {
		b.WriteString("👥 You have no friends yet. Share your code with /code.\n")
	} else {
		b.WriteString("👥 Friends:\n")
		for _, f := range friends {
			fmt.Fprintf(&b, "• %s\n", participantName(f, user.ID))
		}
	}
	if len(received) > 0 {
		b.WriteString("\n📨 Waiting for your answer:\n")
		for _, f := range received {
			fmt.Fprintf(&b, "• #%d from %s\n", f.ID, participantName(f, user.ID))
		}
	}
	return send(bot, message.Chat.ID, strings.TrimRight(b.String(), "\n"))
}

func participantName(f *models.Friendship, userID int64) string {
	if other := f.Other(userID); other != nil {
		return other.DisplayName()
	}
	return fmt.Sprintf("user %d", f.OtherID(userID))
}

// ---------------------------------------------------------------------------
// AnswerFriendHandler – /accept <id>, /decline <id>
// ---------------------------------------------------------------------------

// AnswerFriendHandler accepts or declines a received friend request
type AnswerFriendHandler struct {
	svc    *service.Service
	accept bool
}

func NewAcceptHandler(svc *service.Service) *AnswerFriendHandler {
	return &AnswerFriendHandler{svc: svc, accept: true}
}

func NewDeclineHandler(svc *service.Service) *AnswerFriendHandler {
	return &AnswerFriendHandler{svc: svc, accept: false}
}

func (h *AnswerFriendHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	usage := "/accept <id>"
	if !h.accept {
		usage = "/decline <id>"
	}
	id, err := argID(args, 0, usage)
	if err != nil {
		return err
	}
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}

	friendship, tags, err := h.svc.Friendships.RespondToFriendRequest(ctx, id, user.ID, h.accept)
	if err != nil {
		return err
	}
	h.svc.Invalidate(ctx, tags)

	if !h.accept {
		return send(bot, message.Chat.ID, fmt.Sprintf("🙅 Friend request #%d declined.", id))
	}
	if sender, err := h.svc.Users.GetByID(ctx, friendship.SenderID); err == nil {
		notify(bot, sender, fmt.Sprintf("🤝 %s accepted your friend request.", user.DisplayName()))
	}
	return send(bot, message.Chat.ID, fmt.Sprintf("🤝 Friend request #%d accepted.", id))
}
