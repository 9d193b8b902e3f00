package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
	"github.com/Kerhoff/GiftboT/internal/validation"
)

const (
	friendCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	friendCodeLength   = 6
	friendCodeAttempts = 5
	mainProfileName    = "Me"
	profileNameLimit   = 50
)

// UserService manages users, their friend codes and main profiles
type UserService struct {
	*deps
}

// newFriendCode returns a random code of upper-case letters and digits
func newFriendCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(friendCodeAlphabet)))
	for i := 0; i < friendCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate friend code: %w", err)
		}
		b.WriteByte(friendCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// EnsureTelegramUser retrieves the user behind a Telegram account, creating
// it with a friend code and a main profile on first contact. A changed
// username or display name is written back.
func (s *UserService) EnsureTelegramUser(ctx context.Context, telegramID int64, username, displayName string) (user *models.User, err error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repos := s.store.Repos()
	user, err = repos.Users.GetByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		if user.TelegramUsername == username && user.Name == displayName {
			return user, nil
		}
		user.TelegramUsername = username
		user.Name = displayName
		user, err = repos.Users.Update(ctx, user)
		if err != nil {
			return nil, s.storeError("ensure_user", "user", err)
		}
		s.logger.Infof("Updated user profile: %s (telegram_id=%d)", user.DisplayName(), telegramID)
		s.invalidateUserViews(ctx, repos, user.ID)
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, s.storeError("ensure_user", "user", err)
	}

	defer s.observe("create_user", &err)

	for attempt := 0; attempt < friendCodeAttempts; attempt++ {
		user, err = s.create(ctx, &models.User{
			TelegramID:       &telegramID,
			TelegramUsername: username,
			Name:             displayName,
			Role:             models.RoleUser,
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		// lost a race for the same telegram id, or hit a taken friend code
		if existing, lookupErr := repos.Users.GetByTelegramID(ctx, telegramID); lookupErr == nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, s.storeError("create_user", "user", err)
	}

	s.logger.Infof("Created new user: %s (telegram_id=%d, friend_code=%s)", user.DisplayName(), telegramID, user.FriendCode)
	return user, nil
}

// create inserts the user and its main profile in one transaction
func (s *UserService) create(ctx context.Context, candidate *models.User) (*models.User, error) {
	code, err := newFriendCode()
	if err != nil {
		return nil, err
	}
	candidate.FriendCode = code

	var user *models.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		created, err := repos.Users.Create(ctx, candidate)
		if err != nil {
			return err
		}
		name := created.Name
		if name == "" {
			name = mainProfileName
		}
		if len([]rune(name)) > profileNameLimit {
			name = string([]rune(name)[:profileNameLimit])
		}
		if _, err := repos.Profiles.Create(ctx, &models.Profile{
			UserID:        created.ID,
			Name:          name,
			IsMainProfile: true,
		}); err != nil {
			return err
		}
		user = created
		return nil
	})
	return user, err
}

// GetByID returns a user
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get_user", "user", err)
	}
	return user, nil
}

// GetByFriendCode returns the owner of a friend code
func (s *UserService) GetByFriendCode(ctx context.Context, code string) (*models.User, error) {
	input := models.FriendCodeInput{Code: validation.NormalizeFriendCode(code)}
	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Repos().Users.GetByFriendCode(ctx, input.Code)
	if err != nil {
		return nil, s.storeError("get_user_by_code", "user", err)
	}
	return user, nil
}

// invalidateUserViews bumps every cached view that embeds the user: friend
// lists on both sides of each friendship and the events the user hosts.
// Callers treat EnsureTelegramUser as a lookup, so the tags are bumped here.
func (s *UserService) invalidateUserViews(ctx context.Context, repos repository.Repositories, userID int64) {
	tags := []cache.Tag{cache.UserFriends(userID), cache.UserEvents(userID), cache.AllEvents()}

	friendships, err := repos.Friendships.List(ctx, repository.FriendshipFilters{UserID: userID})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to list friendships for cache invalidation")
	}
	for _, f := range friendships {
		tags = append(tags, cache.UserFriends(f.OtherID(userID)))
	}

	hosted, err := repos.Events.ListByHost(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to list hosted events for cache invalidation")
	}
	for _, e := range hosted {
		tags = append(tags, cache.Event(e.ID))
	}

	s.cache.Invalidate(ctx, tags)
}

// DeleteUser removes targetID and everything it owns. Only admins may
// delete users; nobody deletes themselves or another admin. Reservations the
// target made on other people's items are released first.
func (s *UserService) DeleteUser(ctx context.Context, targetID, actorID int64) (tags []cache.Tag, err error) {
	defer s.observe("delete_user", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		actor, err := repos.Users.GetByID(ctx, actorID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthenticated("unknown user")
		}
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return apperrors.Forbidden("only administrators can delete users")
		}
		if targetID == actorID {
			return apperrors.Conflict("you cannot delete yourself")
		}
		target, err := repos.Users.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if target.IsAdmin() {
			return apperrors.Conflict("administrators cannot be deleted")
		}

		tags = []cache.Tag{
			cache.UserFriends(targetID),
			cache.UserWishlists(targetID),
			cache.UserEvents(targetID),
			cache.FriendsWishlists(),
			cache.AllEvents(),
		}

		reservations, err := repos.Reservations.ListByUser(ctx, targetID)
		if err != nil {
			return err
		}
		for _, res := range reservations {
			_, wishlist, err := repos.Items.GetForUpdate(ctx, res.ItemID)
			if err != nil {
				return err
			}
			if err := repos.Reservations.DeleteByItem(ctx, res.ItemID); err != nil {
				return err
			}
			if err := repos.Items.SetReserved(ctx, res.ItemID, false); err != nil {
				return err
			}
			tags = append(tags, itemTags(wishlist)...)
		}

		friendships, err := repos.Friendships.List(ctx, repository.FriendshipFilters{UserID: targetID})
		if err != nil {
			return err
		}
		for _, f := range friendships {
			tags = append(tags, cache.UserFriends(f.OtherID(targetID)))
		}

		owned, err := repos.Wishlists.ListByUsers(ctx, []int64{targetID})
		if err != nil {
			return err
		}
		for _, w := range owned {
			tags = append(tags, cache.Wishlist(w.ID))
		}

		hosted, err := repos.Events.ListByHost(ctx, targetID)
		if err != nil {
			return err
		}
		for _, e := range hosted {
			tags = append(tags, cache.Event(e.ID))
		}

		return repos.Users.Delete(ctx, targetID)
	})
	if err != nil {
		return nil, s.storeError("delete_user", "user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  targetID,
		"actor_id": actorID,
	}).Warn("User deleted")

	return cache.Dedupe(tags), nil
}
