package service

import (
	"context"
	"errors"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

// EventService manages events, their auto-created wishlist and invitations
type EventService struct {
	*deps
}

func eventTags(e *models.Event) []cache.Tag {
	return []cache.Tag{
		cache.UserEvents(e.HostID),
		cache.Event(e.ID),
		cache.AllEvents(),
	}
}

func invitationTags(e *models.Event, inviteeID int64) []cache.Tag {
	return []cache.Tag{
		cache.Event(e.ID),
		cache.UserEvents(e.HostID),
		cache.UserEvents(inviteeID),
	}
}

// CreateEvent creates an event together with its event wishlist. Both rows
// are written in one transaction; if the wishlist cannot be created the event
// does not exist either.
func (s *EventService) CreateEvent(ctx context.Context, input models.CreateEventInput) (event *models.Event, tags []cache.Tag, err error) {
	defer s.observe("create_event", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var wishlist *models.Wishlist
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		created, err := repos.Events.Create(ctx, &models.Event{
			Name:        input.Name,
			Description: input.Description,
			Location:    input.Location,
			Date:        input.Date,
			HostID:      input.HostID,
			ProfileID:   input.ProfileID,
		})
		if err != nil {
			return err
		}

		var profile *models.Profile
		if input.ProfileID != nil {
			profile, err = repos.Profiles.FindByIDAndOwner(ctx, *input.ProfileID, input.HostID)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("profile")
			}
		} else {
			profile, err = repos.Profiles.GetMainByUser(ctx, input.HostID)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Conflict("the host has no main profile to attach the event wishlist to")
			}
		}
		if err != nil {
			return err
		}

		wishlist, err = repos.Wishlists.Create(ctx, &models.Wishlist{
			Name:            created.Name,
			UserID:          input.HostID,
			ProfileID:       profile.ID,
			EventID:         &created.ID,
			IsEventWishlist: true,
		})
		if err != nil {
			return err
		}
		event = created
		return nil
	})
	if err != nil {
		return nil, nil, s.storeError("create_event", "event", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":    event.ID,
		"host_id":     event.HostID,
		"wishlist_id": wishlist.ID,
	}).Info("Event created")

	tags = append(eventTags(event), cache.UserWishlists(event.HostID), cache.FriendsWishlists())
	return event, tags, nil
}

// GetOwnedEvent returns the event only when hostID hosts it
func (s *EventService) GetOwnedEvent(ctx context.Context, eventID, hostID int64) (*models.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	event, err := s.store.Repos().Events.FindByIDAndOwner(ctx, eventID, hostID)
	if err != nil {
		return nil, s.storeError("get_owned_event", "event", err)
	}
	return event, nil
}

// UpdateEvent applies the supplied fields to an event hosted by userID. The
// event wishlist keeps its own name.
func (s *EventService) UpdateEvent(ctx context.Context, eventID int64, input models.UpdateEventInput, userID int64) (event *models.Event, tags []cache.Tag, err error) {
	defer s.observe("update_event", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Events.FindByIDAndOwner(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if input.Name != nil {
			current.Name = *input.Name
		}
		if input.Description != nil {
			current.Description = *input.Description
		}
		if input.Location != nil {
			current.Location = *input.Location
		}
		if input.Date != nil {
			current.Date = *input.Date
		}
		event, err = repos.Events.Update(ctx, current)
		return err
	})
	if err != nil {
		return nil, nil, s.storeError("update_event", "event", err)
	}

	s.logger.WithField("event_id", eventID).Info("Event updated")
	return event, eventTags(event), nil
}

// DeleteEvent removes an event hosted by userID with its invitations,
// wishlist, items and reservations.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, userID int64) (tags []cache.Tag, err error) {
	defer s.observe("delete_event", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		event, err := repos.Events.FindByIDAndOwner(ctx, eventID, userID)
		if err != nil {
			return err
		}
		tags = append(eventTags(event), cache.UserWishlists(event.HostID), cache.FriendsWishlists())

		wishlist, err := repos.Wishlists.GetByEventID(ctx, eventID)
		switch {
		case err == nil:
			tags = append(tags, cache.Wishlist(wishlist.ID))
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		invitations, err := repos.Invitations.ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for _, inv := range invitations {
			tags = append(tags, cache.UserEvents(inv.FriendID))
		}

		return repos.Events.Delete(ctx, eventID)
	})
	if err != nil {
		return nil, s.storeError("delete_event", "event", err)
	}

	s.logger.WithField("event_id", eventID).Info("Event deleted")
	return cache.Dedupe(tags), nil
}

// InviteToEvent invites an accepted friend of the host to the event
func (s *EventService) InviteToEvent(ctx context.Context, eventID, friendID, hostID int64) (invitation *models.EventInvitation, tags []cache.Tag, err error) {
	defer s.observe("invite_to_event", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		event, err := repos.Events.FindByIDAndOwner(ctx, eventID, hostID)
		if err != nil {
			return s.storeError("invite_to_event", "event", err)
		}
		if friendID == hostID {
			return apperrors.Conflict("you cannot invite yourself to your own event")
		}
		if _, err := repos.Users.GetByID(ctx, friendID); err != nil {
			return s.storeError("invite_to_event", "user", err)
		}

		friends, err := areFriends(ctx, repos, hostID, friendID)
		if err != nil {
			return err
		}
		if !friends {
			return apperrors.Conflict("only accepted friends can be invited")
		}

		_, err = repos.Invitations.Find(ctx, eventID, friendID)
		switch {
		case err == nil:
			return apperrors.Conflict("this user is already invited")
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		invitation, err = repos.Invitations.Create(ctx, &models.EventInvitation{
			EventID:  eventID,
			FriendID: friendID,
			Status:   models.InvitationPending,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("this user is already invited")
		}
		if err != nil {
			return err
		}
		tags = invitationTags(event, friendID)
		return nil
	})
	if err != nil {
		return nil, nil, s.storeError("invite_to_event", "invitation", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":  eventID,
		"friend_id": friendID,
	}).Info("Friend invited to event")

	return invitation, tags, nil
}

// RespondToEventInvitation records the invitee's answer. An invitation can
// be answered once.
func (s *EventService) RespondToEventInvitation(ctx context.Context, eventID, userID int64, status models.InvitationStatus) (invitation *models.EventInvitation, tags []cache.Tag, err error) {
	defer s.observe("respond_to_invitation", &err)

	input := models.RespondInvitationInput{Status: status}
	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Invitations.Find(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if current.Status != models.InvitationPending {
			return apperrors.Conflict("you have already responded to this invitation")
		}
		event, err := repos.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		invitation, err = repos.Invitations.UpdateStatus(ctx, current.ID, input.Status)
		if errors.Is(err, repository.ErrNotPending) {
			return apperrors.Conflict("you have already responded to this invitation")
		}
		if err != nil {
			return err
		}
		tags = invitationTags(event, userID)
		return nil
	})
	if err != nil {
		return nil, nil, s.storeError("respond_to_invitation", "invitation", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
		"status":   input.Status,
	}).Info("Invitation answered")

	return invitation, tags, nil
}

// RemoveInvitation withdraws an invitation. Callers make sure the acting user
// hosts the event, see GetOwnedEvent.
func (s *EventService) RemoveInvitation(ctx context.Context, eventID, friendID int64) (tags []cache.Tag, err error) {
	defer s.observe("remove_invitation", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		event, err := repos.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := repos.Invitations.Delete(ctx, eventID, friendID); err != nil {
			return err
		}
		tags = invitationTags(event, friendID)
		return nil
	})
	if err != nil {
		return nil, s.storeError("remove_invitation", "invitation", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":  eventID,
		"friend_id": friendID,
	}).Info("Invitation removed")

	return tags, nil
}

// LeaveEvent removes the caller's own accepted invitation
func (s *EventService) LeaveEvent(ctx context.Context, eventID, userID int64) (tags []cache.Tag, err error) {
	defer s.observe("leave_event", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Invitations.Find(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if current.Status != models.InvitationAccepted {
			return apperrors.Conflict("you are not attending this event")
		}
		event, err := repos.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := repos.Invitations.Delete(ctx, eventID, userID); err != nil {
			return err
		}
		tags = invitationTags(event, userID)
		return nil
	})
	if err != nil {
		return nil, s.storeError("leave_event", "invitation", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
	}).Info("User left event")

	return tags, nil
}

// GetEventsByUser returns the events hosted by userID
func (s *EventService) GetEventsByUser(ctx context.Context, userID int64) ([]*models.Event, error) {
	tags := []cache.Tag{cache.UserEvents(userID)}
	return cache.Fetch(ctx, s.cache, cache.Key("hosted-events", userID), tags, func(ctx context.Context) ([]*models.Event, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		events, err := s.store.Repos().Events.ListByHost(ctx, userID)
		if err != nil {
			return nil, s.storeError("get_events_by_user", "event", err)
		}
		return events, nil
	})
}

// GetEventByID returns an event to its host or to an invited user
func (s *EventService) GetEventByID(ctx context.Context, eventID, viewerID int64) (*models.Event, error) {
	tags := []cache.Tag{cache.Event(eventID), cache.UserEvents(viewerID)}
	return cache.Fetch(ctx, s.cache, cache.Key("event", eventID, viewerID), tags, func(ctx context.Context) (*models.Event, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repos := s.store.Repos()
		event, err := repos.Events.GetByID(ctx, eventID)
		if err != nil {
			return nil, s.storeError("get_event", "event", err)
		}
		if event.HostID == viewerID {
			return event, nil
		}
		if _, err := repos.Invitations.Find(ctx, eventID, viewerID); err != nil {
			return nil, s.storeError("get_event", "event", err)
		}
		return event, nil
	})
}

// GetEventInvitations returns the invitations received by userID with their events
func (s *EventService) GetEventInvitations(ctx context.Context, userID int64) ([]*models.EventInvitation, error) {
	tags := []cache.Tag{cache.UserEvents(userID), cache.AllEvents()}
	return cache.Fetch(ctx, s.cache, cache.Key("invitations", userID), tags, func(ctx context.Context) ([]*models.EventInvitation, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		invitations, err := s.store.Repos().Invitations.ListByUser(ctx, userID)
		if err != nil {
			return nil, s.storeError("get_event_invitations", "invitation", err)
		}
		return invitations, nil
	})
}

// GetFriendsEvents returns the events of other users that userID accepted
// an invitation to.
func (s *EventService) GetFriendsEvents(ctx context.Context, userID int64) ([]*models.Event, error) {
	tags := []cache.Tag{cache.UserEvents(userID), cache.AllEvents()}
	return cache.Fetch(ctx, s.cache, cache.Key("attending-events", userID), tags, func(ctx context.Context) ([]*models.Event, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		events, err := s.store.Repos().Events.ListByGuest(ctx, userID, models.InvitationAccepted)
		if err != nil {
			return nil, s.storeError("get_friends_events", "event", err)
		}
		return events, nil
	})
}

// GetCommonEvents returns the events both users take part in, as host or as
// an accepted guest.
func (s *EventService) GetCommonEvents(ctx context.Context, userID, otherID int64) ([]*models.Event, error) {
	tags := []cache.Tag{cache.UserEvents(userID), cache.UserEvents(otherID), cache.AllEvents()}
	return cache.Fetch(ctx, s.cache, cache.Key("common-events", userID, otherID), tags, func(ctx context.Context) ([]*models.Event, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repos := s.store.Repos()
		mine, err := participation(ctx, repos, userID)
		if err != nil {
			return nil, s.storeError("get_common_events", "event", err)
		}
		theirs, err := participation(ctx, repos, otherID)
		if err != nil {
			return nil, s.storeError("get_common_events", "event", err)
		}

		common := make([]*models.Event, 0)
		for id, e := range mine {
			if _, ok := theirs[id]; ok {
				common = append(common, e)
			}
		}
		sort.Slice(common, func(i, j int) bool {
			if common[i].Date.Equal(common[j].Date) {
				return common[i].ID < common[j].ID
			}
			return common[i].Date.Before(common[j].Date)
		})
		return common, nil
	})
}

// participation returns hosted and accepted events of userID by id
func participation(ctx context.Context, repos repository.Repositories, userID int64) (map[int64]*models.Event, error) {
	hosted, err := repos.Events.ListByHost(ctx, userID)
	if err != nil {
		return nil, err
	}
	attending, err := repos.Events.ListByGuest(ctx, userID, models.InvitationAccepted)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*models.Event, len(hosted)+len(attending))
	for _, e := range hosted {
		out[e.ID] = e
	}
	for _, e := range attending {
		out[e.ID] = e
	}
	return out, nil
}
