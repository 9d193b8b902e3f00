package service

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

// WishlistService manages standalone wishlists and the read views of all
// wishlists. Reads return lists projected for the viewer, see
// models.Wishlist.ForViewer.
type WishlistService struct {
	*deps
	friendships *FriendshipService
}

func wishlistTags(w *models.Wishlist) []cache.Tag {
	return []cache.Tag{
		cache.UserWishlists(w.UserID),
		cache.Wishlist(w.ID),
		cache.FriendsWishlists(),
	}
}

// CreateWishlist creates a standalone wishlist on one of userID's profiles
func (s *WishlistService) CreateWishlist(ctx context.Context, input models.CreateWishlistInput, userID int64) (wishlist *models.Wishlist, tags []cache.Tag, err error) {
	defer s.observe("create_wishlist", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Profiles.FindByIDAndOwner(ctx, input.ProfileID, userID); err != nil {
			return s.storeError("create_wishlist", "profile", err)
		}
		wishlist, err = repos.Wishlists.Create(ctx, &models.Wishlist{
			Name:            input.Name,
			Description:     input.Description,
			UserID:          userID,
			ProfileID:       input.ProfileID,
			IsEventWishlist: false,
		})
		return err
	})
	if err != nil {
		return nil, nil, s.storeError("create_wishlist", "wishlist", err)
	}

	s.logger.WithFields(logrus.Fields{
		"wishlist_id": wishlist.ID,
		"user_id":     userID,
	}).Info("Wishlist created")

	return wishlist, []cache.Tag{cache.UserWishlists(userID), cache.FriendsWishlists()}, nil
}

// UpdateWishlist applies the supplied fields to a wishlist owned by userID
func (s *WishlistService) UpdateWishlist(ctx context.Context, wishlistID int64, input models.UpdateWishlistInput, userID int64) (wishlist *models.Wishlist, tags []cache.Tag, err error) {
	defer s.observe("update_wishlist", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Wishlists.FindByIDAndOwner(ctx, wishlistID, userID)
		if err != nil {
			return err
		}
		if input.Name != nil {
			current.Name = *input.Name
		}
		if input.Description != nil {
			current.Description = *input.Description
		}
		wishlist, err = repos.Wishlists.Update(ctx, current)
		return err
	})
	if err != nil {
		return nil, nil, s.storeError("update_wishlist", "wishlist", err)
	}

	s.logger.WithField("wishlist_id", wishlistID).Info("Wishlist updated")
	return wishlist, wishlistTags(wishlist), nil
}

// DeleteWishlist removes a standalone wishlist owned by userID. Event
// wishlists are removed together with their event.
func (s *WishlistService) DeleteWishlist(ctx context.Context, wishlistID, userID int64) (tags []cache.Tag, err error) {
	defer s.observe("delete_wishlist", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Wishlists.FindByIDAndOwner(ctx, wishlistID, userID)
		if err != nil {
			return err
		}
		if current.IsEventWishlist {
			return apperrors.Conflict("event wishlists are deleted together with their event")
		}
		if err := repos.Wishlists.Delete(ctx, wishlistID); err != nil {
			return err
		}
		tags = wishlistTags(current)
		return nil
	})
	if err != nil {
		return nil, s.storeError("delete_wishlist", "wishlist", err)
	}

	s.logger.WithField("wishlist_id", wishlistID).Info("Wishlist deleted")
	return tags, nil
}

// canView reports whether viewerID may read wishlists owned by ownerID
func (s *WishlistService) canView(ctx context.Context, ownerID, viewerID int64) (bool, error) {
	if ownerID == viewerID {
		return true, nil
	}
	friends, err := s.friendships.FriendIDs(ctx, viewerID)
	if err != nil {
		return false, err
	}
	return slices.Contains(friends, ownerID), nil
}

func project(lists []*models.Wishlist, viewerID int64) []*models.Wishlist {
	out := make([]*models.Wishlist, len(lists))
	for i, w := range lists {
		out[i] = w.ForViewer(viewerID)
	}
	return out
}

func (s *WishlistService) loadOwned(ctx context.Context, ownerID int64) ([]*models.Wishlist, error) {
	tags := []cache.Tag{cache.UserWishlists(ownerID)}
	return cache.Fetch(ctx, s.cache, cache.Key("user-wishlists", ownerID), tags, func(ctx context.Context) ([]*models.Wishlist, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repos := s.store.Repos()
		lists, err := repos.Wishlists.ListByUsers(ctx, []int64{ownerID})
		if err == nil {
			err = attachItems(ctx, repos, lists)
		}
		if err != nil {
			return nil, s.storeError("get_wishlists_by_user", "wishlist", err)
		}
		return lists, nil
	})
}

// GetWishlistsByUser returns the wishlists of ownerID as seen by viewerID
func (s *WishlistService) GetWishlistsByUser(ctx context.Context, ownerID, viewerID int64) ([]*models.Wishlist, error) {
	ok, err := s.canView(ctx, ownerID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("wishlist")
	}

	lists, err := s.loadOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return project(lists, viewerID), nil
}

// GetWishlistByID returns one wishlist with items as seen by viewerID
func (s *WishlistService) GetWishlistByID(ctx context.Context, wishlistID, viewerID int64) (*models.Wishlist, error) {
	tags := []cache.Tag{cache.Wishlist(wishlistID)}
	wishlist, err := cache.Fetch(ctx, s.cache, cache.Key("wishlist", wishlistID), tags, func(ctx context.Context) (*models.Wishlist, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repos := s.store.Repos()
		w, err := repos.Wishlists.GetByID(ctx, wishlistID)
		if err == nil {
			err = attachItems(ctx, repos, []*models.Wishlist{w})
		}
		if err != nil {
			return nil, s.storeError("get_wishlist", "wishlist", err)
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}

	ok, err := s.canView(ctx, wishlist.UserID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("wishlist")
	}
	return wishlist.ForViewer(viewerID), nil
}

// GetWishlistsByProfileID returns the wishlists of one profile as seen by viewerID
func (s *WishlistService) GetWishlistsByProfileID(ctx context.Context, profileID, viewerID int64) ([]*models.Wishlist, error) {
	lists, err := func() ([]*models.Wishlist, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repos := s.store.Repos()
		lists, err := repos.Wishlists.ListByProfile(ctx, profileID)
		if err == nil {
			err = attachItems(ctx, repos, lists)
		}
		return lists, err
	}()
	if err != nil {
		return nil, s.storeError("get_wishlists_by_profile", "wishlist", err)
	}
	if len(lists) == 0 {
		return []*models.Wishlist{}, nil
	}

	ok, err := s.canView(ctx, lists[0].UserID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("wishlist")
	}
	return project(lists, viewerID), nil
}

// GetFriendsWishlists returns every wishlist owned by userID's accepted friends
func (s *WishlistService) GetFriendsWishlists(ctx context.Context, userID int64) ([]*models.Wishlist, error) {
	tags := []cache.Tag{cache.FriendsWishlists(), cache.UserFriends(userID)}
	lists, err := cache.Fetch(ctx, s.cache, cache.Key("friends-wishlists", userID), tags, func(ctx context.Context) ([]*models.Wishlist, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		repos := s.store.Repos()
		ids, err := friendIDs(ctx, repos, userID)
		if err != nil {
			return nil, s.storeError("get_friends_wishlists", "friendship", err)
		}
		lists, err := repos.Wishlists.ListByUsers(ctx, ids)
		if err == nil {
			err = attachItems(ctx, repos, lists)
		}
		if err != nil {
			return nil, s.storeError("get_friends_wishlists", "wishlist", err)
		}
		return lists, nil
	})
	if err != nil {
		return nil, err
	}
	return project(lists, userID), nil
}
