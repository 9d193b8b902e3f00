package service

import (
	"context"
	"errors"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

// ProfileService manages the personas a user keeps wishlists for
type ProfileService struct {
	*deps
}

// CreateProfile adds a secondary profile for userID
func (s *ProfileService) CreateProfile(ctx context.Context, userID int64, input models.ProfileInput) (profile *models.Profile, err error) {
	defer s.observe("create_profile", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err = s.store.Repos().Profiles.Create(ctx, &models.Profile{
		UserID:        userID,
		Name:          input.Name,
		IsMainProfile: false,
	})
	if err != nil {
		return nil, s.storeError("create_profile", "profile", err)
	}
	return profile, nil
}

// ListProfiles returns the profiles of userID, main profile included
func (s *ProfileService) ListProfiles(ctx context.Context, userID int64) ([]*models.Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profiles, err := s.store.Repos().Profiles.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storeError("list_profiles", "profile", err)
	}
	return profiles, nil
}

// GetOwned returns the profile only when userID owns it
func (s *ProfileService) GetOwned(ctx context.Context, profileID, userID int64) (*models.Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := s.store.Repos().Profiles.FindByIDAndOwner(ctx, profileID, userID)
	if err != nil {
		return nil, s.storeError("get_profile", "profile", err)
	}
	return profile, nil
}

// GetMain returns the main profile of userID
func (s *ProfileService) GetMain(ctx context.Context, userID int64) (*models.Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile, err := s.store.Repos().Profiles.GetMainByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Conflict("user has no main profile")
	}
	if err != nil {
		return nil, s.storeError("get_main_profile", "profile", err)
	}
	return profile, nil
}

// DeleteProfile removes a secondary profile with its standalone wishlists.
// Main profiles and profiles carrying event wishlists stay.
func (s *ProfileService) DeleteProfile(ctx context.Context, profileID, userID int64) (tags []cache.Tag, err error) {
	defer s.observe("delete_profile", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		profile, err := repos.Profiles.FindByIDAndOwner(ctx, profileID, userID)
		if err != nil {
			return err
		}
		if profile.IsMainProfile {
			return apperrors.Conflict("the main profile cannot be deleted")
		}

		lists, err := repos.Wishlists.ListByProfile(ctx, profileID)
		if err != nil {
			return err
		}
		tags = []cache.Tag{cache.UserWishlists(userID), cache.FriendsWishlists()}
		for _, w := range lists {
			if w.IsEventWishlist {
				return apperrors.Conflict("this profile holds event wishlists; delete those events first")
			}
			tags = append(tags, cache.Wishlist(w.ID))
		}

		return repos.Profiles.Delete(ctx, profileID)
	})
	if err != nil {
		return nil, s.storeError("delete_profile", "profile", err)
	}

	s.logger.WithField("profile_id", profileID).Info("Profile deleted")
	return tags, nil
}
