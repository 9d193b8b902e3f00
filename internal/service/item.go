package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

// ItemService manages wishlist items and their reservations
type ItemService struct {
	*deps
}

// ReservationResult is the state of an item after a reservation toggle
type ReservationResult struct {
	Reserved   bool  `json:"reserved"`
	WishlistID int64 `json:"wishlist_id"`
	OwnerID    int64 `json:"owner_id"`
}

func itemTags(w *models.Wishlist) []cache.Tag {
	return []cache.Tag{
		cache.Wishlist(w.ID),
		cache.UserWishlists(w.UserID),
		cache.FriendsWishlists(),
	}
}

// AddItemToWishlist adds an item to a wishlist owned by userID
func (s *ItemService) AddItemToWishlist(ctx context.Context, wishlistID int64, input models.ItemInput, userID int64) (item *models.WishlistItem, tags []cache.Tag, err error) {
	defer s.observe("add_item", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		wishlist, err := repos.Wishlists.GetByID(ctx, wishlistID)
		if err != nil {
			return s.storeError("add_item", "wishlist", err)
		}
		if wishlist.UserID != userID {
			return apperrors.Forbidden("only the owner can add items to this wishlist")
		}
		item, err = repos.Items.Create(ctx, &models.WishlistItem{
			WishlistID:  wishlistID,
			Name:        input.Name,
			Description: input.Description,
			Price:       input.Price,
			URL:         input.URL,
			ImageURL:    input.ImageURL,
		})
		if err != nil {
			return err
		}
		tags = itemTags(wishlist)
		return nil
	})
	if err != nil {
		return nil, nil, s.storeError("add_item", "item", err)
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":     item.ID,
		"wishlist_id": wishlistID,
	}).Info("Wishlist item added")

	return item, tags, nil
}

// ownedItem loads an item through its wishlist and checks ownership. A
// wishlist mismatch hides the item; an owner mismatch is forbidden.
func ownedItem(ctx context.Context, repos repository.Repositories, itemID, wishlistID, userID int64) (*models.WishlistItem, *models.Wishlist, error) {
	item, wishlist, err := repos.Items.GetWithWishlist(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.WishlistID != wishlistID {
		return nil, nil, apperrors.NotFound("item")
	}
	if wishlist.UserID != userID {
		return nil, nil, apperrors.Forbidden("only the owner can change items of this wishlist")
	}
	return item, wishlist, nil
}

// UpdateItem applies the supplied fields to an item of a wishlist owned by userID
func (s *ItemService) UpdateItem(ctx context.Context, itemID, wishlistID int64, input models.UpdateItemInput, userID int64) (item *models.WishlistItem, tags []cache.Tag, err error) {
	defer s.observe("update_item", &err)

	if err := s.validator.Struct(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, wishlist, err := ownedItem(ctx, repos, itemID, wishlistID, userID)
		if err != nil {
			return err
		}
		if input.Name != nil {
			current.Name = *input.Name
		}
		if input.Description != nil {
			current.Description = *input.Description
		}
		if input.Price != nil {
			current.Price = input.Price
		}
		if input.URL != nil {
			current.URL = *input.URL
		}
		if input.ImageURL != nil {
			current.ImageURL = *input.ImageURL
		}
		item, err = repos.Items.Update(ctx, current)
		if err != nil {
			return err
		}
		tags = itemTags(wishlist)
		return nil
	})
	if err != nil {
		return nil, nil, s.storeError("update_item", "item", err)
	}

	s.logger.WithField("item_id", itemID).Info("Wishlist item updated")
	return item, tags, nil
}

// DeleteItem removes an item of a wishlist owned by userID
func (s *ItemService) DeleteItem(ctx context.Context, itemID, wishlistID, userID int64) (tags []cache.Tag, err error) {
	defer s.observe("delete_item", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, wishlist, err := ownedItem(ctx, repos, itemID, wishlistID, userID)
		if err != nil {
			return err
		}
		if err := repos.Items.Delete(ctx, itemID); err != nil {
			return err
		}
		tags = itemTags(wishlist)
		return nil
	})
	if err != nil {
		return nil, s.storeError("delete_item", "item", err)
	}

	s.logger.WithField("item_id", itemID).Info("Wishlist item deleted")
	return tags, nil
}

// ToggleItemReservation reserves an unreserved item for userID, or releases
// userID's own reservation. The item row stays locked for the whole
// transaction, so two friends racing for the same item get one reservation
// and one conflict.
func (s *ItemService) ToggleItemReservation(ctx context.Context, itemID, userID int64) (result *ReservationResult, tags []cache.Tag, err error) {
	defer s.observe("toggle_reservation", &err)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		item, wishlist, err := repos.Items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if wishlist.UserID == userID {
			return apperrors.Forbidden("you cannot reserve items from your own wishlist")
		}

		result = &ReservationResult{WishlistID: wishlist.ID, OwnerID: wishlist.UserID}
		tags = itemTags(wishlist)

		existing, err := repos.Reservations.FindByItem(ctx, item.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		// A reserver can always release, even after the friendship ended.
		if existing != nil && existing.UserID == userID {
			if err := repos.Reservations.DeleteByItem(ctx, item.ID); err != nil {
				return err
			}
			result.Reserved = false
			return repos.Items.SetReserved(ctx, item.ID, false)
		}

		friends, err := areFriends(ctx, repos, wishlist.UserID, userID)
		if err != nil {
			return err
		}
		if !friends {
			return apperrors.NotFound("item")
		}
		if existing != nil {
			return apperrors.Conflict("this item is already reserved")
		}

		if _, err := repos.Reservations.Create(ctx, &models.ItemReservation{ItemID: item.ID, UserID: userID}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("this item is already reserved")
			}
			return err
		}
		result.Reserved = true
		return repos.Items.SetReserved(ctx, item.ID, true)
	})
	if err != nil {
		return nil, nil, s.storeError("toggle_reservation", "item", err)
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":  itemID,
		"user_id":  userID,
		"reserved": result.Reserved,
	}).Info("Item reservation toggled")

	return result, tags, nil
}
