package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/models"
)

// ReminderCallback delivers an event reminder to one participant
type ReminderCallback func(user *models.User, text string)

// StartReminderScheduler reminds hosts and accepted guests of events that
// start lead from now. Every interval it looks at the events dated in the
// next window [now+lead, now+lead+interval), so each event is picked up by
// exactly one tick. It blocks until the context is cancelled.
func (s *Service) StartReminderScheduler(ctx context.Context, interval, lead time.Duration, callback ReminderCallback) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Events.logger.WithFields(logrus.Fields{
		"interval": interval,
		"lead":     lead,
	}).Info("Reminder scheduler started")

	from := s.Events.now().Add(lead)
	for {
		select {
		case <-ctx.Done():
			s.Events.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			to := s.Events.now().Add(lead)
			s.Events.processReminders(ctx, from, to, callback)
			from = to
		}
	}
}

// processReminders fires the callback for every participant of the events
// dated in [from, to). It returns the number of reminders sent.
func (s *EventService) processReminders(ctx context.Context, from, to time.Time, callback ReminderCallback) int {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repos := s.store.Repos()
	events, err := repos.Events.ListBetween(ctx, from, to)
	if err != nil {
		s.logger.Errorf("Failed to get upcoming events: %v", err)
		return 0
	}

	sent := 0
	for _, e := range events {
		invitations, err := repos.Invitations.ListByEvent(ctx, e.ID)
		if err != nil {
			s.logger.Errorf("Failed to get invitations of event %d: %v", e.ID, err)
			continue
		}

		recipients := []int64{e.HostID}
		for _, inv := range invitations {
			if inv.Status == models.InvitationAccepted {
				recipients = append(recipients, inv.FriendID)
			}
		}

		text := fmt.Sprintf("⏰ Reminder: %s on %s", e.Name, e.Date.Format("Mon, 02 Jan 2006 15:04"))
		if e.Location != "" {
			text += " at " + e.Location
		}
		for _, id := range recipients {
			user, err := repos.Users.GetByID(ctx, id)
			if err != nil {
				s.logger.Errorf("Failed to load reminder recipient %d: %v", id, err)
				continue
			}
			callback(user, text)
			sent++
		}
	}
	return sent
}
