package handlers

import (
	"context"
	"strconv"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository/memory"
	"github.com/Kerhoff/GiftboT/internal/service"
	"github.com/Kerhoff/GiftboT/internal/telegram"
)

type sent struct {
	chatID int64
	text   string
}

type fakeBot struct {
	messages []sent
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.messages = append(b.messages, sent{chatID: msg.ChatID, text: msg.Text})
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) last() string {
	if len(b.messages) == 0 {
		return ""
	}
	return b.messages[len(b.messages)-1].text
}

func setup(t *testing.T) (*service.Service, *logrus.Logger) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	svc := service.New(memory.NewStore(), cache.New(cache.NewMemoryBackend(time.Minute), logger, nil), logger, nil, service.Options{})
	return svc, logger
}

func from(telegramID int64, username string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: telegramID, UserName: username, FirstName: username},
		Chat: &tgbotapi.Chat{ID: telegramID},
	}
}

func run(t *testing.T, h telegram.CommandHandler, bot *fakeBot, msg *tgbotapi.Message, args ...string) error {
	t.Helper()
	return h.Handle(context.Background(), bot, msg, args)
}

func TestStartRegistersUser(t *testing.T) {
	svc, logger := setup(t)
	bot := &fakeBot{}

	require.NoError(t, run(t, NewStartHandler(svc, logger), bot, from(10, "alice")))

	user, err := svc.Users.EnsureTelegramUser(context.Background(), 10, "alice", "alice")
	require.NoError(t, err)
	assert.Contains(t, bot.last(), user.FriendCode)

	require.NoError(t, run(t, NewCodeHandler(svc), bot, from(10, "alice")))
	assert.Contains(t, bot.last(), user.FriendCode)
}

func TestFriendFlow(t *testing.T) {
	svc, logger := setup(t)
	bot := &fakeBot{}
	ctx := context.Background()

	bob, err := svc.Users.EnsureTelegramUser(ctx, 20, "bob", "bob")
	require.NoError(t, err)

	require.NoError(t, run(t, NewFriendRequestHandler(svc, logger), bot, from(10, "alice"), bob.FriendCode))
	// bob is notified in his private chat, alice gets a confirmation
	require.Len(t, bot.messages, 2)
	assert.Equal(t, int64(20), bot.messages[0].chatID)
	assert.Contains(t, bot.messages[0].text, "@alice")

	requests, err := svc.Friendships.GetReceivedPendingFriendRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	require.NoError(t, run(t, NewFriendsHandler(svc), bot, from(20, "bob")))
	assert.Contains(t, bot.last(), "Waiting for your answer")

	id := strconv.FormatInt(requests[0].ID, 10)
	err = run(t, NewAcceptHandler(svc), bot, from(10, "alice"), id)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.NoError(t, run(t, NewAcceptHandler(svc), bot, from(20, "bob"), "#"+id))
	assert.Contains(t, bot.last(), "accepted")

	require.NoError(t, run(t, NewFriendsHandler(svc), bot, from(20, "bob")))
	assert.Contains(t, bot.last(), "@alice")
	assert.NotContains(t, bot.last(), "Waiting for your answer")
}

func TestFriendRequestUsage(t *testing.T) {
	svc, logger := setup(t)
	bot := &fakeBot{}

	err := run(t, NewFriendRequestHandler(svc, logger), bot, from(10, "alice"))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = run(t, NewFriendRequestHandler(svc, logger), bot, from(10, "alice"), "ZZZZZZ")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	err = run(t, NewDeclineHandler(svc), bot, from(10, "alice"), "abc")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestWishlistCommands(t *testing.T) {
	svc, logger := setup(t)
	bot := &fakeBot{}
	ctx := context.Background()

	alice, err := svc.Users.EnsureTelegramUser(ctx, 10, "alice", "alice")
	require.NoError(t, err)
	bob, err := svc.Users.EnsureTelegramUser(ctx, 20, "bob", "bob")
	require.NoError(t, err)

	req, tags, err := svc.Friendships.CreateFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	svc.Invalidate(ctx, tags)
	_, tags, err = svc.Friendships.UpdateFriendRequest(ctx, req.ID, true)
	require.NoError(t, err)
	svc.Invalidate(ctx, tags)

	profile, err := svc.Profiles.GetMain(ctx, alice.ID)
	require.NoError(t, err)
	wishlist, tags, err := svc.Wishlists.CreateWishlist(ctx, models.CreateWishlistInput{Name: "Birthday", ProfileID: profile.ID}, alice.ID)
	require.NoError(t, err)
	svc.Invalidate(ctx, tags)

	listID := strconv.FormatInt(wishlist.ID, 10)
	require.NoError(t, run(t, NewWishAddHandler(svc, logger), bot, from(10, "alice"), listID, "red", "bike"))
	assert.Contains(t, bot.last(), "red bike")

	err = run(t, NewWishAddHandler(svc, logger), bot, from(20, "bob"), listID, "socks")
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	fresh, err := svc.Wishlists.GetWishlistByID(ctx, wishlist.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, fresh.Items, 1)
	itemID := strconv.FormatInt(fresh.Items[0].ID, 10)

	require.NoError(t, run(t, NewReserveHandler(svc), bot, from(20, "bob"), itemID))
	assert.Contains(t, bot.last(), "reserved for you")

	require.NoError(t, run(t, NewWishlistsHandler(svc), bot, from(20, "bob"), alice.FriendCode))
	assert.Contains(t, bot.last(), "red bike")
	assert.Contains(t, bot.last(), "🔒")

	// the owner does not see the reservation
	require.NoError(t, run(t, NewWishlistsHandler(svc), bot, from(10, "alice")))
	assert.Contains(t, bot.last(), "red bike")
	assert.NotContains(t, bot.last(), "🔒")

	require.NoError(t, run(t, NewReserveHandler(svc), bot, from(20, "bob"), itemID))
	assert.Contains(t, bot.last(), "released")
}

func TestEventsCommand(t *testing.T) {
	svc, _ := setup(t)
	bot := &fakeBot{}
	ctx := context.Background()

	require.NoError(t, run(t, NewEventsHandler(svc), bot, from(10, "alice")))
	assert.Equal(t, "📅 No events yet.", bot.last())

	alice, err := svc.Users.EnsureTelegramUser(ctx, 10, "alice", "alice")
	require.NoError(t, err)
	_, tags, err := svc.Events.CreateEvent(ctx, models.CreateEventInput{
		Name:   "Housewarming",
		Date:   time.Now().AddDate(0, 1, 0),
		HostID: alice.ID,
	})
	require.NoError(t, err)
	svc.Invalidate(ctx, tags)

	require.NoError(t, run(t, NewEventsHandler(svc), bot, from(10, "alice")))
	assert.Contains(t, bot.last(), "Housewarming")
}
