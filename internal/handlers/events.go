package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/service"
	"github.com/Kerhoff/GiftboT/internal/telegram"
)

// EventsHandler handles the /events command: hosted events followed by the
// invitations the sender received.
type EventsHandler struct {
	svc *service.Service
}

func NewEventsHandler(svc *service.Service) *EventsHandler {
	return &EventsHandler{svc: svc}
}

func (h *EventsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	user, err := ensureUser(ctx, h.svc, message)
	if err != nil {
		return err
	}
	hosted, err := h.svc.Events.GetEventsByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	invitations, err := h.svc.Events.GetEventInvitations(ctx, user.ID)
	if err != nil {
		return err
	}

	if len(hosted) == 0 && len(invitations) == 0 {
		return send(bot, message.Chat.ID, "📅 No events yet.")
	}

	var b strings.Builder
	if len(hosted) > 0 {
		b.WriteString("📅 Your events:\n")
		for _, e := range hosted {
			fmt.Fprintf(&b, "• #%d %s, %s\n", e.ID, e.Name, e.Date.Format("2006-01-02"))
		}
	}
	if len(invitations) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("✉️ Invitations:\n")
		for _, inv := range invitations {
			fmt.Fprintf(&b, "• %s [%s]\n", invitationTitle(inv), strings.ToLower(string(inv.Status)))
		}
	}
	return send(bot, message.Chat.ID, strings.TrimRight(b.String(), "\n"))
}

func invitationTitle(inv *models.EventInvitation) string {
	if inv.Event == nil {
		return fmt.Sprintf("event #%d", inv.EventID)
	}
	return fmt.Sprintf("#%d %s, %s", inv.Event.ID, inv.Event.Name, inv.Event.Date.Format("2006-01-02"))
}
