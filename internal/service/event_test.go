package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

func eventInput(host *models.User, name string) models.CreateEventInput {
	return models.CreateEventInput{
		Name:   name,
		Date:   fixedNow.AddDate(0, 0, 7),
		HostID: host.ID,
	}
}

func TestEventService_CreateEvent_ExampleScenario(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	host := f.user(t, 1, "host")
	main := f.mainProfile(t, host)

	event, tags, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "Anniversaire"))
	require.NoError(t, err)

	assert.Equal(t, host.ID, event.HostID)
	assert.Nil(t, event.ProfileID)
	assert.Subset(t, tags, []cache.Tag{
		cache.UserEvents(host.ID), cache.Event(event.ID), cache.AllEvents(), cache.UserWishlists(host.ID),
	})

	wishlist, err := f.store.Repos().Wishlists.GetByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, main.ID, wishlist.ProfileID)
	assert.True(t, wishlist.IsEventWishlist)
	assert.Equal(t, "Anniversaire", wishlist.Name)
	assert.Equal(t, host.ID, wishlist.UserID)
	assert.Equal(t, 1, f.store.Count("events"))
	assert.Equal(t, 1, f.store.Count("wishlists"))
}

func TestEventService_CreateEvent_Atomic(t *testing.T) {
	ctx := context.Background()

	t.Run("wishlist insert failure rolls the event back", func(t *testing.T) {
		f := setupService(t)
		host := f.user(t, 1, "host")
		f.store.FailOn("wishlists.create", errors.New("disk full"))

		_, _, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "Party"))
		requireKind(t, err, apperrors.KindInfrastructure)
		assert.Equal(t, 0, f.store.Count("events"))
		assert.Equal(t, 0, f.store.Count("wishlists"))
	})

	t.Run("missing main profile is a conflict and rolls back", func(t *testing.T) {
		f := setupService(t)
		orphan, err := f.store.Repos().Users.Create(ctx, &models.User{Name: "orphan", FriendCode: "ORPHAN"})
		require.NoError(t, err)

		_, _, err = f.svc.Events.CreateEvent(ctx, eventInput(orphan, "Party"))
		requireKind(t, err, apperrors.KindConflict)
		assert.Equal(t, 0, f.store.Count("events"))
		assert.Equal(t, 0, f.store.Count("wishlists"))
	})

	t.Run("foreign profile is not found", func(t *testing.T) {
		f := setupService(t)
		host := f.user(t, 1, "host")
		other := f.user(t, 2, "other")
		foreign := f.mainProfile(t, other).ID

		input := eventInput(host, "Party")
		input.ProfileID = &foreign
		_, _, err := f.svc.Events.CreateEvent(ctx, input)
		requireKind(t, err, apperrors.KindNotFound)
		assert.Equal(t, 0, f.store.Count("events"))
	})

	t.Run("explicit profile is used for the wishlist", func(t *testing.T) {
		f := setupService(t)
		host := f.user(t, 1, "host")
		kid, err := f.svc.Profiles.CreateProfile(ctx, host.ID, models.ProfileInput{Name: "Kid"})
		require.NoError(t, err)

		input := eventInput(host, "Kid birthday")
		input.ProfileID = &kid.ID
		event, _, err := f.svc.Events.CreateEvent(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, event.ProfileID)

		wishlist, err := f.store.Repos().Wishlists.GetByEventID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, kid.ID, wishlist.ProfileID)
	})
}

func TestEventService_CreateEvent_Validation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	host := f.user(t, 1, "host")

	t.Run("past date", func(t *testing.T) {
		input := eventInput(host, "Late")
		input.Date = fixedNow.AddDate(0, 0, -1)
		_, _, err := f.svc.Events.CreateEvent(ctx, input)
		requireKind(t, err, apperrors.KindValidation)

		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "must not be in the past", appErr.Fields["date"])
	})

	t.Run("earlier today is still valid", func(t *testing.T) {
		input := eventInput(host, "Today")
		input.Date = fixedNow.Add(-2 * time.Hour)
		_, _, err := f.svc.Events.CreateEvent(ctx, input)
		require.NoError(t, err)
	})

	t.Run("blank name", func(t *testing.T) {
		_, _, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "   "))
		requireKind(t, err, apperrors.KindValidation)
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	host := f.user(t, 1, "host")
	other := f.user(t, 2, "other")

	event, _, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "Party"))
	require.NoError(t, err)

	t.Run("other user gets not found", func(t *testing.T) {
		name := "Hijacked"
		_, _, err := f.svc.Events.UpdateEvent(ctx, event.ID, models.UpdateEventInput{Name: &name}, other.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("host updates supplied fields only", func(t *testing.T) {
		location := "Garden"
		updated, tags, err := f.svc.Events.UpdateEvent(ctx, event.ID, models.UpdateEventInput{Location: &location}, host.ID)
		require.NoError(t, err)
		assert.Equal(t, "Party", updated.Name)
		assert.Equal(t, "Garden", updated.Location)
		assert.ElementsMatch(t, []cache.Tag{cache.UserEvents(host.ID), cache.Event(event.ID), cache.AllEvents()}, tags)

		wishlist, err := f.store.Repos().Wishlists.GetByEventID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "Party", wishlist.Name)
	})

	t.Run("invalid partial update", func(t *testing.T) {
		past := fixedNow.AddDate(-1, 0, 0)
		_, _, err := f.svc.Events.UpdateEvent(ctx, event.ID, models.UpdateEventInput{Date: &past}, host.ID)
		requireKind(t, err, apperrors.KindValidation)
	})
}

func TestEventService_DeleteEvent_Cascade(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	host := f.user(t, 1, "host")
	guest := f.user(t, 2, "guest")
	f.befriend(t, host, guest)

	event, _, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "Party"))
	require.NoError(t, err)
	_, _, err = f.svc.Events.InviteToEvent(ctx, event.ID, guest.ID, host.ID)
	require.NoError(t, err)
	_, _, err = f.svc.Events.RespondToEventInvitation(ctx, event.ID, guest.ID, models.InvitationAccepted)
	require.NoError(t, err)

	wishlist, err := f.store.Repos().Wishlists.GetByEventID(ctx, event.ID)
	require.NoError(t, err)
	item, _, err := f.svc.Items.AddItemToWishlist(ctx, wishlist.ID, models.ItemInput{Name: "Vase", Description: "Blue"}, host.ID)
	require.NoError(t, err)
	_, _, err = f.svc.Items.ToggleItemReservation(ctx, item.ID, guest.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Count("item_reservations"))

	t.Run("guest cannot delete", func(t *testing.T) {
		_, err := f.svc.Events.DeleteEvent(ctx, event.ID, guest.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("host delete leaves nothing behind", func(t *testing.T) {
		tags, err := f.svc.Events.DeleteEvent(ctx, event.ID, host.ID)
		require.NoError(t, err)
		assert.Subset(t, tags, []cache.Tag{
			cache.UserEvents(host.ID), cache.Event(event.ID), cache.AllEvents(),
			cache.UserWishlists(host.ID), cache.Wishlist(wishlist.ID), cache.UserEvents(guest.ID),
		})

		for _, table := range []string{"events", "event_invitations", "wishlists", "wishlist_items", "item_reservations"} {
			assert.Equal(t, 0, f.store.Count(table), table)
		}
	})
}

func TestEventService_Invitations(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	host := f.user(t, 1, "host")
	guest := f.user(t, 2, "guest")
	stranger := f.user(t, 3, "stranger")
	f.befriend(t, host, guest)

	event, _, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "Party"))
	require.NoError(t, err)

	t.Run("self invite conflicts", func(t *testing.T) {
		_, _, err := f.svc.Events.InviteToEvent(ctx, event.ID, host.ID, host.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("non friend cannot be invited", func(t *testing.T) {
		_, _, err := f.svc.Events.InviteToEvent(ctx, event.ID, stranger.ID, host.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("only the host invites", func(t *testing.T) {
		_, _, err := f.svc.Events.InviteToEvent(ctx, event.ID, host.ID, guest.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	invitation, tags, err := f.svc.Events.InviteToEvent(ctx, event.ID, guest.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, invitation.Status)
	assert.ElementsMatch(t, []cache.Tag{cache.Event(event.ID), cache.UserEvents(host.ID), cache.UserEvents(guest.ID)}, tags)

	t.Run("duplicate invite conflicts", func(t *testing.T) {
		_, _, err := f.svc.Events.InviteToEvent(ctx, event.ID, guest.ID, host.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("invalid response status", func(t *testing.T) {
		_, _, err := f.svc.Events.RespondToEventInvitation(ctx, event.ID, guest.ID, models.InvitationPending)
		requireKind(t, err, apperrors.KindValidation)
	})

	t.Run("uninvited user cannot respond", func(t *testing.T) {
		_, _, err := f.svc.Events.RespondToEventInvitation(ctx, event.ID, stranger.ID, models.InvitationAccepted)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("single response", func(t *testing.T) {
		first, _, err := f.svc.Events.RespondToEventInvitation(ctx, event.ID, guest.ID, models.InvitationAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationAccepted, first.Status)

		_, _, err = f.svc.Events.RespondToEventInvitation(ctx, event.ID, guest.ID, models.InvitationDeclined)
		requireKind(t, err, apperrors.KindConflict)
		assert.Contains(t, err.Error(), "already responded")

		stored, err := f.store.Repos().Invitations.Find(ctx, event.ID, guest.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationAccepted, stored.Status)

		_, err = f.store.Repos().Invitations.UpdateStatus(ctx, stored.ID, models.InvitationDeclined)
		assert.ErrorIs(t, err, repository.ErrNotPending)
	})

	t.Run("guest sees the event, stranger does not", func(t *testing.T) {
		got, err := f.svc.Events.GetEventByID(ctx, event.ID, guest.ID)
		require.NoError(t, err)
		assert.Equal(t, event.ID, got.ID)

		_, err = f.svc.Events.GetEventByID(ctx, event.ID, stranger.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("leave then remove", func(t *testing.T) {
		_, err := f.svc.Events.LeaveEvent(ctx, event.ID, stranger.ID)
		requireKind(t, err, apperrors.KindNotFound)

		_, err = f.svc.Events.LeaveEvent(ctx, event.ID, guest.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, f.store.Count("event_invitations"))

		_, err = f.svc.Events.RemoveInvitation(ctx, event.ID, guest.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})
}

func TestEventService_Reads(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "a")
	b := f.user(t, 2, "b")
	c := f.user(t, 3, "c")
	f.befriend(t, a, b)
	f.befriend(t, a, c)
	f.befriend(t, b, c)

	create := func(host *models.User, name string, days int) *models.Event {
		input := eventInput(host, name)
		input.Date = fixedNow.AddDate(0, 0, days)
		e, tags, err := f.svc.Events.CreateEvent(ctx, input)
		require.NoError(t, err)
		f.svc.Invalidate(ctx, tags)
		return e
	}
	invite := func(e *models.Event, guest *models.User, status models.InvitationStatus) {
		_, tags, err := f.svc.Events.InviteToEvent(ctx, e.ID, guest.ID, e.HostID)
		require.NoError(t, err)
		f.svc.Invalidate(ctx, tags)
		if status != models.InvitationPending {
			_, tags, err = f.svc.Events.RespondToEventInvitation(ctx, e.ID, guest.ID, status)
			require.NoError(t, err)
			f.svc.Invalidate(ctx, tags)
		}
	}

	aParty := create(a, "A party", 3)
	aDinner := create(a, "A dinner", 1)
	bParty := create(b, "B party", 5)
	cParty := create(c, "C party", 2)

	invite(aParty, b, models.InvitationAccepted)
	invite(aDinner, b, models.InvitationDeclined)
	invite(bParty, a, models.InvitationAccepted)
	invite(cParty, a, models.InvitationAccepted)
	invite(cParty, b, models.InvitationPending)

	hosted, err := f.svc.Events.GetEventsByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, hosted, 2)
	assert.Equal(t, aDinner.ID, hosted[0].ID, "ordered by date")

	attending, err := f.svc.Events.GetFriendsEvents(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{cParty.ID, bParty.ID}, eventIDs(attending))

	invitations, err := f.svc.Events.GetEventInvitations(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, invitations, 3)

	common, err := f.svc.Events.GetCommonEvents(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{aParty.ID, bParty.ID}, eventIDs(common))

	t.Run("cached view follows invitation changes", func(t *testing.T) {
		_, tags, err := f.svc.Events.RespondToEventInvitation(ctx, cParty.ID, b.ID, models.InvitationAccepted)
		require.NoError(t, err)
		f.svc.Invalidate(ctx, tags)

		common, err := f.svc.Events.GetCommonEvents(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{cParty.ID, aParty.ID, bParty.ID}, eventIDs(common))
	})
}

func eventIDs(events []*models.Event) []int64 {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
