package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
	"github.com/Kerhoff/GiftboT/internal/validation"
)

// FriendshipService runs the friend request state machine:
// PENDING -> ACCEPTED, PENDING -> DECLINED, and deletion from any state.
type FriendshipService struct {
	*deps
}

func friendshipTags(f *models.Friendship) []cache.Tag {
	return []cache.Tag{
		cache.UserFriends(f.SenderID),
		cache.UserFriends(f.ReceiverID),
		cache.FriendsWishlists(),
	}
}

// CreateFriendRequest creates a PENDING friendship from senderID to
// receiverID. A previously declined request between the pair is replaced.
func (s *FriendshipService) CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (friendship *models.Friendship, tags []cache.Tag, err error) {
	defer s.observe("create_friend_request", &err)

	if senderID == receiverID {
		return nil, nil, apperrors.Conflict("you cannot send a friend request to yourself")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, receiverID); err != nil {
			return s.storeError("create_friend_request", "user", err)
		}

		existing, err := repos.Friendships.FindBetween(ctx, senderID, receiverID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		case existing.Status == models.FriendshipAccepted:
			return apperrors.Conflict("you are already friends")
		case existing.Status == models.FriendshipPending:
			return apperrors.Conflict("a friend request between you is already pending")
		default:
			// declined requests do not block a new one
			if err := repos.Friendships.Delete(ctx, existing.ID); err != nil {
				return err
			}
		}

		created, err := repos.Friendships.Create(ctx, &models.Friendship{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     models.FriendshipPending,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("a friend request between you is already pending")
		}
		if err != nil {
			return err
		}
		friendship = created
		return nil
	})
	if err != nil {
		return nil, nil, s.storeError("create_friend_request", "friendship", err)
	}

	s.logger.WithFields(logrus.Fields{
		"friendship_id": friendship.ID,
		"sender_id":     senderID,
		"receiver_id":   receiverID,
	}).Info("Friend request created")

	return friendship, friendshipTags(friendship), nil
}

// SendFriendRequestByCode resolves a friend code and sends a request to its owner
func (s *FriendshipService) SendFriendRequestByCode(ctx context.Context, senderID int64, code string) (*models.Friendship, []cache.Tag, error) {
	input := models.FriendCodeInput{Code: validation.NormalizeFriendCode(code)}
	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	lookupCtx, cancel := s.withTimeout(ctx)
	receiver, err := s.store.Repos().Users.GetByFriendCode(lookupCtx, input.Code)
	cancel()
	if err != nil {
		return nil, nil, s.storeError("send_friend_request_by_code", "user", err)
	}

	return s.CreateFriendRequest(ctx, senderID, receiver.ID)
}

// CheckFriendshipStatus describes targetID as seen from viewerID
func (s *FriendshipService) CheckFriendshipStatus(ctx context.Context, viewerID, targetID int64) (models.FriendshipRelation, error) {
	if viewerID == targetID {
		return models.RelationSelf, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := s.store.Repos().Friendships.FindBetween(ctx, viewerID, targetID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.RelationNone, nil
	}
	if err != nil {
		return "", s.storeError("check_friendship_status", "friendship", err)
	}

	switch f.Status {
	case models.FriendshipAccepted:
		return models.RelationFriend, nil
	case models.FriendshipPending:
		if f.SenderID == viewerID {
			return models.RelationPendingSent, nil
		}
		return models.RelationPendingReceived, nil
	default:
		return models.RelationNone, nil
	}
}

// UpdateFriendRequest accepts or declines a pending request. Callers verify
// that the acting user may answer it, see RespondToFriendRequest.
func (s *FriendshipService) UpdateFriendRequest(ctx context.Context, friendshipID int64, accept bool) (friendship *models.Friendship, tags []cache.Tag, err error) {
	defer s.observe("update_friend_request", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	status := models.FriendshipDeclined
	if accept {
		status = models.FriendshipAccepted
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Friendships.GetByID(ctx, friendshipID)
		if err != nil {
			return err
		}
		if current.Status != models.FriendshipPending {
			return apperrors.Conflict("this friend request was already answered")
		}
		friendship, err = repos.Friendships.UpdateStatus(ctx, friendshipID, status)
		if errors.Is(err, repository.ErrNotPending) {
			return apperrors.Conflict("this friend request was already answered")
		}
		return err
	})
	if err != nil {
		return nil, nil, s.storeError("update_friend_request", "friend request", err)
	}

	s.logger.WithFields(logrus.Fields{
		"friendship_id": friendshipID,
		"status":        status,
	}).Info("Friend request answered")

	return friendship, friendshipTags(friendship), nil
}

// RespondToFriendRequest lets the receiver of a pending request answer it
func (s *FriendshipService) RespondToFriendRequest(ctx context.Context, friendshipID, userID int64, accept bool) (*models.Friendship, []cache.Tag, error) {
	f, err := s.GetParticipating(ctx, friendshipID, userID)
	if err != nil {
		return nil, nil, err
	}
	if f.ReceiverID != userID {
		return nil, nil, apperrors.Forbidden("only the receiver can answer a friend request")
	}
	return s.UpdateFriendRequest(ctx, friendshipID, accept)
}

// DeleteFriendship removes a friendship in any state
func (s *FriendshipService) DeleteFriendship(ctx context.Context, friendshipID int64) (tags []cache.Tag, err error) {
	defer s.observe("delete_friendship", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var removed *models.Friendship
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		f, err := repos.Friendships.GetByID(ctx, friendshipID)
		if err != nil {
			return err
		}
		if err := repos.Friendships.Delete(ctx, friendshipID); err != nil {
			return err
		}
		removed = f
		return nil
	})
	if err != nil {
		return nil, s.storeError("delete_friendship", "friendship", err)
	}

	s.logger.WithField("friendship_id", friendshipID).Info("Friendship deleted")
	return friendshipTags(removed), nil
}

// RemoveFriendship deletes a friendship the user takes part in
func (s *FriendshipService) RemoveFriendship(ctx context.Context, friendshipID, userID int64) ([]cache.Tag, error) {
	if _, err := s.GetParticipating(ctx, friendshipID, userID); err != nil {
		return nil, err
	}
	return s.DeleteFriendship(ctx, friendshipID)
}

// GetParticipating returns the friendship only when userID is sender or receiver
func (s *FriendshipService) GetParticipating(ctx context.Context, friendshipID, userID int64) (*models.Friendship, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := s.store.Repos().Friendships.FindByIDAndParticipant(ctx, friendshipID, userID)
	if err != nil {
		return nil, s.storeError("get_friendship", "friendship", err)
	}
	return f, nil
}

func (s *FriendshipService) list(ctx context.Context, view string, userID int64, status models.FriendshipStatus, dir repository.FriendshipDirection) ([]*models.Friendship, error) {
	key := cache.Key(view, userID)
	return cache.Fetch(ctx, s.cache, key, []cache.Tag{cache.UserFriends(userID)}, func(ctx context.Context) ([]*models.Friendship, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		rows, err := s.store.Repos().Friendships.List(ctx, repository.FriendshipFilters{
			UserID:    userID,
			Status:    &status,
			Direction: dir,
		})
		if err != nil {
			return nil, s.storeError(view, "friendship", err)
		}
		return rows, nil
	})
}

// GetFriends returns the accepted friendships of userID
func (s *FriendshipService) GetFriends(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	return s.list(ctx, "friends", userID, models.FriendshipAccepted, repository.DirectionAny)
}

// GetPendingFriendRequests returns pending requests sent by userID
func (s *FriendshipService) GetPendingFriendRequests(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	return s.list(ctx, "friend-requests-sent", userID, models.FriendshipPending, repository.DirectionSent)
}

// GetReceivedPendingFriendRequests returns pending requests addressed to userID
func (s *FriendshipService) GetReceivedPendingFriendRequests(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	return s.list(ctx, "friend-requests-received", userID, models.FriendshipPending, repository.DirectionReceived)
}

// FriendIDs returns the ids of userID's accepted friends
func (s *FriendshipService) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	key := cache.Key("friend-ids", userID)
	return cache.Fetch(ctx, s.cache, key, []cache.Tag{cache.UserFriends(userID)}, func(ctx context.Context) ([]int64, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		ids, err := friendIDs(ctx, s.store.Repos(), userID)
		if err != nil {
			return nil, s.storeError("friend_ids", "friendship", err)
		}
		return ids, nil
	})
}

// AreFriends reports whether a and b are accepted friends
func (s *FriendshipService) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := areFriends(ctx, s.store.Repos(), a, b)
	if err != nil {
		return false, s.storeError("are_friends", "friendship", err)
	}
	return ok, nil
}
