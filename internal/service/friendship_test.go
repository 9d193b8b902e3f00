package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

func TestFriendshipService_Symmetry(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "alice")
	b := f.user(t, 2, "bob")

	req, tags, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, req.Status)
	assert.ElementsMatch(t, []cache.Tag{
		cache.UserFriends(a.ID), cache.UserFriends(b.ID), cache.FriendsWishlists(),
	}, tags)
	f.svc.Invalidate(ctx, tags)

	status, err := f.svc.Friendships.CheckFriendshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationPendingSent, status)

	status, err = f.svc.Friendships.CheckFriendshipStatus(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationPendingReceived, status)

	_, tags, err = f.svc.Friendships.UpdateFriendRequest(ctx, req.ID, true)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)

	for _, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
		status, err := f.svc.Friendships.CheckFriendshipStatus(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.RelationFriend, status)
	}

	status, err = f.svc.Friendships.CheckFriendshipStatus(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationSelf, status)
}

func TestFriendshipService_NoDuplicates(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "alice")
	b := f.user(t, 2, "bob")

	_, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	t.Run("reverse direction conflicts", func(t *testing.T) {
		_, _, err := f.svc.Friendships.CreateFriendRequest(ctx, b.ID, a.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("same direction conflicts", func(t *testing.T) {
		_, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, b.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("self request conflicts", func(t *testing.T) {
		_, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, a.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("unknown receiver is not found", func(t *testing.T) {
		_, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, 9999)
		requireKind(t, err, apperrors.KindNotFound)
	})

	assert.Equal(t, 1, f.store.Count("friendships"))
}

func TestFriendshipService_DeclinedRequestIsReplaced(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "alice")
	b := f.user(t, 2, "bob")

	req, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	declined, _, err := f.svc.Friendships.UpdateFriendRequest(ctx, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipDeclined, declined.Status)

	status, err := f.svc.Friendships.CheckFriendshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationNone, status)

	again, _, err := f.svc.Friendships.CreateFriendRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.SenderID)
	assert.Equal(t, models.FriendshipPending, again.Status)
	assert.Equal(t, 1, f.store.Count("friendships"))
}

func TestFriendshipService_UpdateFriendRequest(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "alice")
	b := f.user(t, 2, "bob")
	c := f.user(t, 3, "carol")

	req, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	t.Run("missing request is not found", func(t *testing.T) {
		_, _, err := f.svc.Friendships.UpdateFriendRequest(ctx, 9999, true)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("outsider cannot see the request", func(t *testing.T) {
		_, _, err := f.svc.Friendships.RespondToFriendRequest(ctx, req.ID, c.ID, true)
		requireKind(t, err, apperrors.KindNotFound)
	})

	t.Run("sender cannot accept own request", func(t *testing.T) {
		_, _, err := f.svc.Friendships.RespondToFriendRequest(ctx, req.ID, a.ID, true)
		requireKind(t, err, apperrors.KindForbidden)
	})

	t.Run("receiver accepts", func(t *testing.T) {
		accepted, _, err := f.svc.Friendships.RespondToFriendRequest(ctx, req.ID, b.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipAccepted, accepted.Status)
	})

	t.Run("answered request cannot change again", func(t *testing.T) {
		_, _, err := f.svc.Friendships.UpdateFriendRequest(ctx, req.ID, false)
		requireKind(t, err, apperrors.KindConflict)

		_, err = f.store.Repos().Friendships.UpdateStatus(ctx, req.ID, models.FriendshipDeclined)
		assert.ErrorIs(t, err, repository.ErrNotPending)
	})
}

func TestFriendshipService_ConcurrentAnswers(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "alice")
	b := f.user(t, 2, "bob")

	req, _, err := f.svc.Friendships.CreateFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		answered  = atomic.NewInt64(0)
		conflicts = atomic.NewInt64(0)
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(accept bool) {
			defer wg.Done()
			_, _, err := f.svc.Friendships.RespondToFriendRequest(ctx, req.ID, b.ID, accept)
			if err == nil {
				answered.Inc()
			} else if apperrors.KindOf(err) == apperrors.KindConflict {
				conflicts.Inc()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, int64(1), answered.Load())
	assert.Equal(t, int64(7), conflicts.Load())
}

func TestFriendshipService_ExampleScenario(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	u1 := f.user(t, 1, "u1")
	u2 := f.user(t, 2, "u2")

	// warm the caches before the mutation
	friends, err := f.svc.Friendships.GetFriends(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	row, tags, err := f.svc.Friendships.CreateFriendRequest(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)
	assert.Equal(t, models.FriendshipPending, row.Status)

	received, err := f.svc.Friendships.GetReceivedPendingFriendRequests(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, row.ID, received[0].ID)

	sent, err := f.svc.Friendships.GetPendingFriendRequests(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	_, tags, err = f.svc.Friendships.UpdateFriendRequest(ctx, row.ID, true)
	require.NoError(t, err)
	f.svc.Invalidate(ctx, tags)

	for _, u := range []*models.User{u1, u2} {
		friends, err := f.svc.Friendships.GetFriends(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, row.ID, friends[0].ID)
		assert.Equal(t, models.FriendshipAccepted, friends[0].Status)
	}

	ids, err := f.svc.Friendships.FriendIDs(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{u2.ID}, ids)

	ok, err := f.svc.Friendships.AreFriends(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFriendshipService_SendByCodeAndRemove(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	a := f.user(t, 1, "alice")
	b := f.user(t, 2, "bob")
	c := f.user(t, 3, "carol")

	t.Run("malformed code is a validation error", func(t *testing.T) {
		_, _, err := f.svc.Friendships.SendFriendRequestByCode(ctx, a.ID, "abc")
		requireKind(t, err, apperrors.KindValidation)
	})

	t.Run("code is matched case-insensitively", func(t *testing.T) {
		req, _, err := f.svc.Friendships.SendFriendRequestByCode(ctx, a.ID, " "+strings.ToLower(b.FriendCode)+" ")
		require.NoError(t, err)
		assert.Equal(t, b.ID, req.ReceiverID)

		t.Run("only participants can remove it", func(t *testing.T) {
			_, err := f.svc.Friendships.RemoveFriendship(ctx, req.ID, c.ID)
			requireKind(t, err, apperrors.KindNotFound)

			tags, err := f.svc.Friendships.RemoveFriendship(ctx, req.ID, b.ID)
			require.NoError(t, err)
			assert.Contains(t, tags, cache.UserFriends(a.ID))
			assert.Equal(t, 0, f.store.Count("friendships"))
		})
	})

	t.Run("deleting twice is not found", func(t *testing.T) {
		_, err := f.svc.Friendships.DeleteFriendship(ctx, 9999)
		requireKind(t, err, apperrors.KindNotFound)
	})
}
