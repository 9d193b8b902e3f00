package service

import (
	"context"
	"errors"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

var accepted = models.FriendshipAccepted

// friendIDs returns the ids of userID's accepted friends
func friendIDs(ctx context.Context, repos repository.Repositories, userID int64) ([]int64, error) {
	rows, err := repos.Friendships.List(ctx, repository.FriendshipFilters{
		UserID: userID,
		Status: &accepted,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.OtherID(userID))
	}
	return ids, nil
}

// areFriends reports whether a and b share an accepted friendship
func areFriends(ctx context.Context, repos repository.Repositories, a, b int64) (bool, error) {
	f, err := repos.Friendships.FindBetween(ctx, a, b)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Status == models.FriendshipAccepted, nil
}

// attachItems loads the items of every wishlist with one query
func attachItems(ctx context.Context, repos repository.Repositories, lists []*models.Wishlist) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]int64, len(lists))
	byID := make(map[int64]*models.Wishlist, len(lists))
	for i, w := range lists {
		ids[i] = w.ID
		w.Items = []models.WishlistItem{}
		byID[w.ID] = w
	}

	items, err := repos.Items.ListByWishlists(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if w, ok := byID[item.WishlistID]; ok {
			w.Items = append(w.Items, *item)
		}
	}
	return nil
}
