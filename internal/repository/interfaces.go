package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotPending is returned when a status change targets a row that was
	// already answered
	ErrNotPending = errors.New("record is no longer pending")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetByFriendCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	FindByIDAndOwner(ctx context.Context, id, userID int64) (*models.Profile, error)
	GetMainByUser(ctx context.Context, userID int64) (*models.Profile, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Profile, error)
	Delete(ctx context.Context, id int64) error
}

// FriendshipRepository defines the interface for friendship data operations
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error)
	GetByID(ctx context.Context, id int64) (*models.Friendship, error)
	// FindByIDAndParticipant matches only rows where userID is sender or receiver.
	FindByIDAndParticipant(ctx context.Context, id, userID int64) (*models.Friendship, error)
	// FindBetween returns the row connecting a and b in either direction.
	FindBetween(ctx context.Context, a, b int64) (*models.Friendship, error)
	List(ctx context.Context, filters FriendshipFilters) ([]*models.Friendship, error)
	// UpdateStatus answers a pending request. A row that is not PENDING is
	// left untouched and ErrNotPending is returned.
	UpdateStatus(ctx context.Context, id int64, status models.FriendshipStatus) (*models.Friendship, error)
	Delete(ctx context.Context, id int64) error
}

// EventRepository defines the interface for event data operations
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	FindByIDAndOwner(ctx context.Context, id, hostID int64) (*models.Event, error)
	ListByHost(ctx context.Context, hostID int64) ([]*models.Event, error)
	// ListByGuest returns events where userID holds an invitation with the given status.
	ListByGuest(ctx context.Context, userID int64, status models.InvitationStatus) ([]*models.Event, error)
	// ListBetween returns events dated in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
}

// InvitationRepository defines the interface for event invitation operations
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.EventInvitation) (*models.EventInvitation, error)
	Find(ctx context.Context, eventID, friendID int64) (*models.EventInvitation, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.EventInvitation, error)
	// ListByUser returns invitations received by userID with their event attached.
	ListByUser(ctx context.Context, userID int64) ([]*models.EventInvitation, error)
	// UpdateStatus answers a pending invitation, see FriendshipRepository.UpdateStatus.
	UpdateStatus(ctx context.Context, id int64, status models.InvitationStatus) (*models.EventInvitation, error)
	Delete(ctx context.Context, eventID, friendID int64) error
}

// WishlistRepository defines the interface for wishlist operations.
// Lookups return the wishlist without items unless stated otherwise.
type WishlistRepository interface {
	Create(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error)
	GetByID(ctx context.Context, id int64) (*models.Wishlist, error)
	FindByIDAndOwner(ctx context.Context, id, userID int64) (*models.Wishlist, error)
	GetByEventID(ctx context.Context, eventID int64) (*models.Wishlist, error)
	ListByUsers(ctx context.Context, userIDs []int64) ([]*models.Wishlist, error)
	ListByProfile(ctx context.Context, profileID int64) ([]*models.Wishlist, error)
	Update(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error)
	Delete(ctx context.Context, id int64) error
}

// ItemRepository defines the interface for wishlist item operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error)
	// GetWithWishlist loads an item and its parent wishlist in one query.
	GetWithWishlist(ctx context.Context, id int64) (*models.WishlistItem, *models.Wishlist, error)
	// GetForUpdate loads an item with its parent wishlist and locks the item row
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.WishlistItem, *models.Wishlist, error)
	// ListByWishlists returns items with ReservedByID filled in.
	ListByWishlists(ctx context.Context, wishlistIDs []int64) ([]*models.WishlistItem, error)
	Update(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error)
	SetReserved(ctx context.Context, id int64, reserved bool) error
	Delete(ctx context.Context, id int64) error
}

// ReservationRepository defines the interface for item reservation operations
type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.ItemReservation) (*models.ItemReservation, error)
	FindByItem(ctx context.Context, itemID int64) (*models.ItemReservation, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.ItemReservation, error)
	DeleteByItem(ctx context.Context, itemID int64) error
}

// Repositories groups every repository bound to the same connection or
// transaction.
type Repositories struct {
	Users        UserRepository
	Profiles     ProfileRepository
	Friendships  FriendshipRepository
	Events       EventRepository
	Invitations  InvitationRepository
	Wishlists    WishlistRepository
	Items        ItemRepository
	Reservations ReservationRepository
}

// Store is the relational store seen by the service layer
type Store interface {
	// Repos returns repositories that run each call on its own.
	Repos() Repositories
	// WithinTx runs fn in one transaction. The transaction is committed when
	// fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// FriendshipDirection selects which side of a friendship the user is on
type FriendshipDirection int

const (
	DirectionAny FriendshipDirection = iota
	DirectionSent
	DirectionReceived
)

// FriendshipFilters represents filters for querying friendships
type FriendshipFilters struct {
	UserID    int64
	Status    *models.FriendshipStatus
	Direction FriendshipDirection
}
