package models

import "time"

// Wishlist represents a list of gift ideas. Event wishlists are created and
// removed together with their event.
type Wishlist struct {
	ID              int64          `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Description     string         `json:"description" db:"description"`
	UserID          int64          `json:"user_id" db:"user_id"`
	ProfileID       int64          `json:"profile_id" db:"profile_id"`
	EventID         *int64         `json:"event_id" db:"event_id"`
	IsEventWishlist bool           `json:"is_event_wishlist" db:"is_event_wishlist"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	Items           []WishlistItem `json:"items,omitempty"`
}

// ForViewer returns a copy safe to show to viewerID. Reservation state is
// hidden from the owner so surprises are not spoiled.
func (w *Wishlist) ForViewer(viewerID int64) *Wishlist {
	out := *w
	out.Items = make([]WishlistItem, len(w.Items))
	for i, item := range w.Items {
		if viewerID == w.UserID {
			item.Reserved = false
			item.ReservedByID = nil
		} else if item.ReservedByID != nil && *item.ReservedByID != viewerID {
			// friends see that something is taken, not by whom
			item.ReservedByID = nil
		}
		out.Items[i] = item
	}
	return &out
}

// WishlistItem represents an item in a wishlist
type WishlistItem struct {
	ID           int64     `json:"id" db:"id"`
	WishlistID   int64     `json:"wishlist_id" db:"wishlist_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Price        *float64  `json:"price,omitempty" db:"price"`
	URL          string    `json:"url,omitempty" db:"url"`
	ImageURL     string    `json:"image_url,omitempty" db:"image_url"`
	Reserved     bool      `json:"reserved" db:"reserved"`
	ReservedByID *int64    `json:"reserved_by_id,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ItemReservation records which user reserved which item
type ItemReservation struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
