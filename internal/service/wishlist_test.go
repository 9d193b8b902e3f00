package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
)

func ptr[T any](v T) *T {
	return &v
}

func (f *fixture) wishlist(t *testing.T, owner *models.User, name string) *models.Wishlist {
	t.Helper()
	ctx := context.Background()
	w, tags, err := f.svc.Wishlists.CreateWishlist(ctx, models.CreateWishlistInput{
		Name:      name,
		ProfileID: f.mainProfile(t, owner).ID,
	}, owner.ID)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)
	return w
}

func (f *fixture) item(t *testing.T, w *models.Wishlist, name string) *models.WishlistItem {
	t.Helper()
	ctx := context.Background()
	item, tags, err := f.svc.Items.AddItemToWishlist(ctx, w.ID, models.ItemInput{
		Name:        name,
		Description: name + " please",
		Price:       ptr(19.99),
		URL:         "https://shop.example.com/" + name,
	}, w.UserID)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)
	return item
}

func TestWishlistService_CreateWishlist(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.user(t, 1, "owner")
	other := f.user(t, 2, "other")

	t.Run("standalone wishlist", func(t *testing.T) {
		w, tags, err := f.svc.Wishlists.CreateWishlist(ctx, models.CreateWishlistInput{
			Name:      "Books",
			ProfileID: f.mainProfile(t, owner).ID,
		}, owner.ID)
		require.NoError(t, err)
		assert.False(t, w.IsEventWishlist)
		assert.Nil(t, w.EventID)
		assert.Contains(t, tags, cache.UserWishlists(owner.ID))
	})

	t.Run("profile of another user", func(t *testing.T) {
		_, _, err := f.svc.Wishlists.CreateWishlist(ctx, models.CreateWishlistInput{
			Name:      "Books",
			ProfileID: f.mainProfile(t, other).ID,
		}, owner.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("name too long", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'x'
		}
		_, _, err := f.svc.Wishlists.CreateWishlist(ctx, models.CreateWishlistInput{
			Name:      string(long),
			ProfileID: f.mainProfile(t, owner).ID,
		}, owner.ID)
		requireKind(t, err, apperrors.KindValidation)
	})
}

func TestWishlistService_OwnershipIsolation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	x := f.user(t, 1, "x")
	y := f.user(t, 2, "y")
	w := f.wishlist(t, y, "Y's list")

	_, _, err := f.svc.Wishlists.UpdateWishlist(ctx, w.ID, models.UpdateWishlistInput{Name: ptr("mine now")}, x.ID)
	requireKind(t, err, apperrors.KindNotFound)

	_, err = f.svc.Wishlists.DeleteWishlist(ctx, w.ID, x.ID)
	requireKind(t, err, apperrors.KindNotFound)

	stored, err := f.store.Repos().Wishlists.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Y's list", stored.Name)

	updated, tags, err := f.svc.Wishlists.UpdateWishlist(ctx, w.ID, models.UpdateWishlistInput{Description: ptr("gifts")}, y.ID)
	require.NoError(t, err)
	assert.Equal(t, "Y's list", updated.Name)
	assert.Equal(t, "gifts", updated.Description)
	assert.Contains(t, tags, cache.Wishlist(w.ID))
}

func TestWishlistService_EventWishlistCannotBeDeletedDirectly(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	host := f.user(t, 1, "host")

	event, _, err := f.svc.Events.CreateEvent(ctx, eventInput(host, "Party"))
	require.NoError(t, err)
	w, err := f.store.Repos().Wishlists.GetByEventID(ctx, event.ID)
	require.NoError(t, err)

	_, err = f.svc.Wishlists.DeleteWishlist(ctx, w.ID, host.ID)
	requireKind(t, err, apperrors.KindConflict)
	assert.Equal(t, 1, f.store.Count("wishlists"))
}

func TestWishlistService_Visibility(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.user(t, 1, "owner")
	friend := f.user(t, 2, "friend")
	stranger := f.user(t, 3, "stranger")
	f.befriend(t, owner, friend)

	w := f.wishlist(t, owner, "Books")
	item := f.item(t, w, "novel")

	t.Run("owner and friend see the list", func(t *testing.T) {
		for _, viewer := range []*models.User{owner, friend} {
			lists, err := f.svc.Wishlists.GetWishlistsByUser(ctx, owner.ID, viewer.ID)
			require.NoError(t, err)
			require.Len(t, lists, 1)
			require.Len(t, lists[0].Items, 1)
			assert.Equal(t, item.ID, lists[0].Items[0].ID)
		}
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := f.svc.Wishlists.GetWishlistsByUser(ctx, owner.ID, stranger.ID)
		requireKind(t, err, apperrors.KindNotFound)

		_, err = f.svc.Wishlists.GetWishlistByID(ctx, w.ID, stranger.ID)
		requireKind(t, err, apperrors.KindNotFound)

		_, err = f.svc.Wishlists.GetWishlistsByProfileID(ctx, w.ProfileID, stranger.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("profile view", func(t *testing.T) {
		lists, err := f.svc.Wishlists.GetWishlistsByProfileID(ctx, w.ProfileID, friend.ID)
		require.NoError(t, err)
		require.Len(t, lists, 1)
		assert.Equal(t, w.ID, lists[0].ID)
	})

	t.Run("friends wishlists", func(t *testing.T) {
		lists, err := f.svc.Wishlists.GetFriendsWishlists(ctx, friend.ID)
		require.NoError(t, err)
		require.Len(t, lists, 1)

		lists, err = f.svc.Wishlists.GetFriendsWishlists(ctx, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, lists)
	})

	t.Run("unfriending hides the list again", func(t *testing.T) {
		friendships, err := f.svc.Friendships.GetFriends(ctx, friend.ID)
		require.NoError(t, err)
		require.Len(t, friendships, 1)

		tags, err := f.svc.Friendships.RemoveFriendship(ctx, friendships[0].ID, friend.ID)
		require.NoError(t, err)
		f.svc.Invalidate(ctx, tags)

		_, err = f.svc.Wishlists.GetWishlistByID(ctx, w.ID, friend.ID)
		requireKind(t, err, apperrors.KindNotFound)

		lists, err := f.svc.Wishlists.GetFriendsWishlists(ctx, friend.ID)
		require.NoError(t, err)
		assert.Empty(t, lists)
	})
}

func TestItemService_Mutations(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.user(t, 1, "owner")
	friend := f.user(t, 2, "friend")
	f.befriend(t, owner, friend)

	w := f.wishlist(t, owner, "Books")
	other := f.wishlist(t, owner, "Games")
	item := f.item(t, w, "novel")

	t.Run("non owner cannot add", func(t *testing.T) {
		_, _, err := f.svc.Items.AddItemToWishlist(ctx, w.ID, models.ItemInput{Name: "x", Description: "y"}, friend.ID)
		requireKind(t, err, apperrors.KindForbidden)
	})

	t.Run("missing wishlist", func(t *testing.T) {
		_, _, err := f.svc.Items.AddItemToWishlist(ctx, 9999, models.ItemInput{Name: "x", Description: "y"}, owner.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("invalid item fields", func(t *testing.T) {
		_, _, err := f.svc.Items.AddItemToWishlist(ctx, w.ID, models.ItemInput{
			Name:  "x",
			Price: ptr(-1.0),
			URL:   "not a url",
		}, owner.ID)
		requireKind(t, err, apperrors.KindValidation)

		appErr := err.(*apperrors.Error)
		assert.Equal(t, "is required", appErr.Fields["description"])
		assert.Equal(t, "must not be negative", appErr.Fields["price"])
		assert.Equal(t, "must be a valid URL", appErr.Fields["url"])
	})

	t.Run("wishlist mismatch is not found", func(t *testing.T) {
		_, _, err := f.svc.Items.UpdateItem(ctx, item.ID, other.ID, models.UpdateItemInput{Name: ptr("x")}, owner.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("owner mismatch is forbidden", func(t *testing.T) {
		_, _, err := f.svc.Items.UpdateItem(ctx, item.ID, w.ID, models.UpdateItemInput{Name: ptr("x")}, friend.ID)
		requireKind(t, err, apperrors.KindForbidden)

		_, err = f.svc.Items.DeleteItem(ctx, item.ID, w.ID, friend.ID)
		requireKind(t, err, apperrors.KindForbidden)
	})

	t.Run("owner updates", func(t *testing.T) {
		updated, tags, err := f.svc.Items.UpdateItem(ctx, item.ID, w.ID, models.UpdateItemInput{Price: ptr(5.0)}, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "novel", updated.Name)
		require.NotNil(t, updated.Price)
		assert.Equal(t, 5.0, *updated.Price)
		assert.ElementsMatch(t, []cache.Tag{cache.Wishlist(w.ID), cache.UserWishlists(owner.ID), cache.FriendsWishlists()}, tags)
	})

	t.Run("owner deletes", func(t *testing.T) {
		_, err := f.svc.Items.DeleteItem(ctx, item.ID, w.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, f.store.Count("wishlist_items"))
	})
}

func TestItemService_Reservations(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.user(t, 1, "owner")
	u1 := f.user(t, 2, "u1")
	u2 := f.user(t, 3, "u2")
	stranger := f.user(t, 4, "stranger")
	f.befriend(t, owner, u1)
	f.befriend(t, owner, u2)

	w := f.wishlist(t, owner, "Books")
	item := f.item(t, w, "novel")

	t.Run("owner cannot reserve", func(t *testing.T) {
		_, _, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, owner.ID)
		requireKind(t, err, apperrors.KindForbidden)
	})

	t.Run("non friend does not see the item", func(t *testing.T) {
		_, _, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, stranger.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		res, tags, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
		require.NoError(t, err)
		assert.Equal(t, &ReservationResult{Reserved: true, WishlistID: w.ID, OwnerID: owner.ID}, res)
		assert.ElementsMatch(t, []cache.Tag{cache.Wishlist(w.ID), cache.UserWishlists(owner.ID), cache.FriendsWishlists()}, tags)
		assert.Equal(t, 1, f.store.Count("item_reservations"))

		res, _, err = f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
		require.NoError(t, err)
		assert.False(t, res.Reserved)
		assert.Equal(t, 0, f.store.Count("item_reservations"))

		stored, _, err := f.store.Repos().Items.GetWithWishlist(ctx, item.ID)
		require.NoError(t, err)
		assert.False(t, stored.Reserved)
	})

	t.Run("exclusivity", func(t *testing.T) {
		_, tags, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
		require.NoError(t, err)
		f.svc.Invalidate(ctx, tags)

		_, _, err = f.svc.Items.ToggleItemReservation(ctx, item.ID, u2.ID)
		requireKind(t, err, apperrors.KindConflict)

		res, err := f.store.Repos().Reservations.FindByItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, u1.ID, res.UserID)
	})

	t.Run("reservation state is hidden from the owner", func(t *testing.T) {
		ownView, err := f.svc.Wishlists.GetWishlistByID(ctx, w.ID, owner.ID)
		require.NoError(t, err)
		require.Len(t, ownView.Items, 1)
		assert.False(t, ownView.Items[0].Reserved)
		assert.Nil(t, ownView.Items[0].ReservedByID)

		reserverView, err := f.svc.Wishlists.GetWishlistByID(ctx, w.ID, u1.ID)
		require.NoError(t, err)
		assert.True(t, reserverView.Items[0].Reserved)
		require.NotNil(t, reserverView.Items[0].ReservedByID)
		assert.Equal(t, u1.ID, *reserverView.Items[0].ReservedByID)

		otherView, err := f.svc.Wishlists.GetWishlistByID(ctx, w.ID, u2.ID)
		require.NoError(t, err)
		assert.True(t, otherView.Items[0].Reserved)
		assert.Nil(t, otherView.Items[0].ReservedByID)
	})

	t.Run("store failure rolls back the reservation", func(t *testing.T) {
		_, _, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
		require.NoError(t, err)

		f.store.FailOn("items.set_reserved", context.DeadlineExceeded)
		defer f.store.FailOn("items.set_reserved", nil)

		_, _, err = f.svc.Items.ToggleItemReservation(ctx, item.ID, u2.ID)
		requireKind(t, err, apperrors.KindInfrastructure)
		assert.Equal(t, 0, f.store.Count("item_reservations"))
	})
}

func TestItemService_ReleaseAfterUnfriend(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.user(t, 1, "owner")
	u1 := f.user(t, 2, "u1")
	u2 := f.user(t, 3, "u2")
	friendship := f.befriend(t, owner, u1)
	f.befriend(t, owner, u2)

	w := f.wishlist(t, owner, "Books")
	item := f.item(t, w, "novel")

	_, tags, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)

	tags, err = f.svc.Friendships.RemoveFriendship(ctx, friendship.ID, owner.ID)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)

	_, _, err = f.svc.Items.ToggleItemReservation(ctx, item.ID, u2.ID)
	requireKind(t, err, apperrors.KindConflict)

	res, tags, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)
	assert.False(t, res.Reserved)
	assert.Equal(t, 0, f.store.Count("item_reservations"))

	t.Run("former friend cannot reserve again", func(t *testing.T) {
		_, _, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u1.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("remaining friend can reserve", func(t *testing.T) {
		res, _, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, u2.ID)
		require.NoError(t, err)
		assert.True(t, res.Reserved)
	})
}

func TestItemService_ConcurrentReservations(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	owner := f.user(t, 1, "owner")

	const workers = 10
	friends := make([]*models.User, workers)
	for i := range friends {
		friends[i] = f.user(t, int64(100+i), fmt.Sprintf("friend%d", i))
		f.befriend(t, owner, friends[i])
	}

	w := f.wishlist(t, owner, "Books")
	item := f.item(t, w, "novel")

	var (
		wg        sync.WaitGroup
		reserved  = atomic.NewInt64(0)
		conflicts = atomic.NewInt64(0)
		others    = atomic.NewInt64(0)
	)
	for _, friend := range friends {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, _, err := f.svc.Items.ToggleItemReservation(ctx, item.ID, userID)
			switch {
			case err == nil:
				reserved.Inc()
			case apperrors.KindOf(err) == apperrors.KindConflict:
				conflicts.Inc()
			default:
				others.Inc()
			}
		}(friend.ID)
	}
	wg.Wait()

	assert.Equal(t, int64(1), reserved.Load())
	assert.Equal(t, int64(workers-1), conflicts.Load())
	assert.Zero(t, others.Load())
	assert.Equal(t, 1, f.store.Count("item_reservations"))

	stored, _, err := f.store.Repos().Items.GetWithWishlist(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reserved)
}
