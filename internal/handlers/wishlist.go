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
// WishlistsHandler – /wishlists [code]
// ---------------------------------------------------------------------------

// WishlistsHandler shows the sender's wishlists, or a friend's when a friend
// code is given. Reservation marks are hidden from the owner so surprises are
// not spoiled.
type WishlistsHandler struct {
	svc *service.Service
}

func NewWishlistsHandler(svc *service.Service) *WishlistsHandler {
	return &WishlistsHandler{svc: svc}
}

func (h *WishlistsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	viewer, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}

	owner := viewer
	if len(args) > 0 {
		if owner, err = h.svc.Users.GetByFriendCode(ctx, args[0]); err != nil {
			return err
		}
	}

	wishlists, err := h.svc.Wishlists.GetWishlistsByUser(ctx, owner.ID, viewer.ID)
	if err != nil {
		return err
	}
	if len(wishlists) == 0 {
		if owner.ID == viewer.ID {
			return send(bot, message.Chat.ID, "📋 You have no wishlists yet.")
		}
		return send(bot, message.Chat.ID, fmt.Sprintf("📋 %s has no wishlists yet.", owner.DisplayName()))
	}
	return send(bot, message.Chat.ID, formatWishlists(wishlists))
}

func formatWishlists(wishlists []*models.Wishlist) string {
	var b strings.Builder
	for i, w := range wishlists {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "🎁"
		if w.IsEventWishlist {
			marker = "🎉"
		}
		fmt.Fprintf(&b, "%s #%d %s\n", marker, w.ID, w.Name)
		if len(w.Items) == 0 {
			b.WriteString("   (empty)\n")
		}
		for _, item := range w.Items {
			status := "  "
			if item.Reserved {
				status = "🔒"
			}
			fmt.Fprintf(&b, "  %s #%d %s%s\n", status, item.ID, item.Name, formatPrice(item.Price))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ---------------------------------------------------------------------------
// WishAddHandler – /wish <list id> <name>
// ---------------------------------------------------------------------------

// WishAddHandler adds an item to one of the sender's wishlists
type WishAddHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewWishAddHandler(svc *service.Service, logger *logrus.Logger) *WishAddHandler {
	return &WishAddHandler{svc: svc, logger: logger}
}

func (h *WishAddHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	const usage = "/wish <list id> <name>"
	wishlistID, err := argID(args, 0, usage)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return apperrors.Invalid("usage", usage)
	}
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}

	name := strings.Join(args[1:], " ")
	item, tags, err := h.svc.Items.AddItemToWishlist(ctx, wishlistID, models.ItemInput{
		Name:        name,
		Description: name,
	}, user.ID)
	if err != nil {
		return err
	}
	h.svc.Invalidate(ctx, tags)

	h.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"wishlist_id": wishlistID,
		"item_id":     item.ID,
	}).Info("Wish item added")

	return send(bot, message.Chat.ID, fmt.Sprintf("🎁 Added #%d %s", item.ID, item.Name))
}

// ---------------------------------------------------------------------------
// ReserveHandler – /reserve <item id>
// ---------------------------------------------------------------------------

// ReserveHandler toggles the sender's reservation of a friend's item
type ReserveHandler struct {
	svc *service.Service
}

func NewReserveHandler(svc *service.Service) *ReserveHandler {
	return &ReserveHandler{svc: svc}
}

func (h *ReserveHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	itemID, err := argID(args, 0, "/reserve <item id>")
	if err != nil {
		return err
	}
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}

	result, tags, err := h.svc.Items.ToggleItemReservation(ctx, itemID, user.ID)
	if err != nil {
		return err
	}
	h.svc.Invalidate(ctx, tags)

	if result.Reserved {
		return send(bot, message.Chat.ID, fmt.Sprintf("🔒 Item #%d is reserved for you.", itemID))
	}
	return send(bot, message.Chat.ID, fmt.Sprintf("🔓 Your reservation of item #%d was released.", itemID))
}
