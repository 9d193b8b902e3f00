// Package memory is an in-process implementation of repository.Store. It
// honours the same unique constraints and cascades as the postgres schema and
// gives each transaction a private copy of the data, so it serves as the store
// for service tests and for running without a database.
package memory

import (
	"context"
	"sync"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

type state struct {
	nextID       int64
	users        map[int64]models.User
	profiles     map[int64]models.Profile
	friendships  map[int64]models.Friendship
	events       map[int64]models.Event
	invitations  map[int64]models.EventInvitation
	wishlists    map[int64]models.Wishlist
	items        map[int64]models.WishlistItem
	reservations map[int64]models.ItemReservation
}

func newState() *state {
	return &state{
		users:        map[int64]models.User{},
		profiles:     map[int64]models.Profile{},
		friendships:  map[int64]models.Friendship{},
		events:       map[int64]models.Event{},
		invitations:  map[int64]models.EventInvitation{},
		wishlists:    map[int64]models.Wishlist{},
		items:        map[int64]models.WishlistItem{},
		reservations: map[int64]models.ItemReservation{},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) clone() *state {
	return &state{
		nextID:       s.nextID,
		users:        cloneMap(s.users),
		profiles:     cloneMap(s.profiles),
		friendships:  cloneMap(s.friendships),
		events:       cloneMap(s.events),
		invitations:  cloneMap(s.invitations),
		wishlists:    cloneMap(s.wishlists),
		items:        cloneMap(s.items),
		reservations: cloneMap(s.reservations),
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is an in-memory repository.Store
type Store struct {
	mu sync.Mutex
	st *state

	failMu   sync.Mutex
	failures map[string]error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

// FailOn makes every later call of the named operation (for example
// "wishlists.create") return err. Passing a nil err clears the failure.
func (s *Store) FailOn(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	return s.failures[op]
}

// Repos returns repositories that lock the store per call
func (s *Store) Repos() repository.Repositories {
	return s.repos(&view{store: s})
}

// WithinTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds. Transactions are serialised.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.st.clone()
	if err := fn(ctx, s.repos(&view{store: s, st: tx})); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// Count returns the number of rows in the named table. Tests use it to check
// that nothing was left behind.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch table {
	case "users":
		return len(s.st.users)
	case "profiles":
		return len(s.st.profiles)
	case "friendships":
		return len(s.st.friendships)
	case "events":
		return len(s.st.events)
	case "event_invitations":
		return len(s.st.invitations)
	case "wishlists":
		return len(s.st.wishlists)
	case "wishlist_items":
		return len(s.st.items)
	case "item_reservations":
		return len(s.st.reservations)
	default:
		return 0
	}
}

func (s *Store) repos(v *view) repository.Repositories {
	return repository.Repositories{
		Users:        &userRepository{v},
		Profiles:     &profileRepository{v},
		Friendships:  &friendshipRepository{v},
		Events:       &eventRepository{v},
		Invitations:  &invitationRepository{v},
		Wishlists:    &wishlistRepository{v},
		Items:        &itemRepository{v},
		Reservations: &reservationRepository{v},
	}
}

// view routes repository calls either to the shared state (locking per call)
// or to a transaction's private copy.
type view struct {
	store *Store
	st    *state
}

func (v *view) do(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.store.failure(op); err != nil {
		return err
	}
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

// cascades, mirroring ON DELETE CASCADE in the schema

func (s *state) deleteUser(id int64) {
	delete(s.users, id)
	for pid, p := range s.profiles {
		if p.UserID == id {
			s.deleteProfile(pid)
		}
	}
	for fid, f := range s.friendships {
		if f.SenderID == id || f.ReceiverID == id {
			delete(s.friendships, fid)
		}
	}
	for eid, e := range s.events {
		if e.HostID == id {
			s.deleteEvent(eid)
		}
	}
	for iid, inv := range s.invitations {
		if inv.FriendID == id {
			delete(s.invitations, iid)
		}
	}
	for wid, w := range s.wishlists {
		if w.UserID == id {
			s.deleteWishlist(wid)
		}
	}
	for rid, r := range s.reservations {
		if r.UserID == id {
			delete(s.reservations, rid)
		}
	}
}

func (s *state) deleteProfile(id int64) {
	delete(s.profiles, id)
	for wid, w := range s.wishlists {
		if w.ProfileID == id {
			s.deleteWishlist(wid)
		}
	}
	for eid, e := range s.events {
		if e.ProfileID != nil && *e.ProfileID == id {
			e.ProfileID = nil
			s.events[eid] = e
		}
	}
}

func (s *state) deleteEvent(id int64) {
	delete(s.events, id)
	for iid, inv := range s.invitations {
		if inv.EventID == id {
			delete(s.invitations, iid)
		}
	}
	for wid, w := range s.wishlists {
		if w.EventID != nil && *w.EventID == id {
			s.deleteWishlist(wid)
		}
	}
}

func (s *state) deleteWishlist(id int64) {
	delete(s.wishlists, id)
	for iid, item := range s.items {
		if item.WishlistID == id {
			s.deleteItem(iid)
		}
	}
}

func (s *state) deleteItem(id int64) {
	delete(s.items, id)
	for rid, r := range s.reservations {
		if r.ItemID == id {
			delete(s.reservations, rid)
		}
	}
}
