package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

func sortByID[T any](rows []*T, id func(*T) int64) {
	sort.Slice(rows, func(i, j int) bool { return id(rows[i]) < id(rows[j]) })
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type userRepository struct{ v *view }

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	var out *models.User
	err := r.v.do(ctx, "users.create", func(st *state) error {
		for _, u := range st.users {
			if u.FriendCode == user.FriendCode {
				return repository.ErrDuplicate
			}
			if user.TelegramID != nil && u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
				return repository.ErrDuplicate
			}
		}
		row := *user
		row.ID = st.id()
		now := time.Now()
		row.CreatedAt, row.UpdatedAt = now, now
		if row.Role == "" {
			row.Role = models.RoleUser
		}
		st.users[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *userRepository) find(ctx context.Context, op string, match func(models.User) bool) (*models.User, error) {
	var out *models.User
	err := r.v.do(ctx, op, func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				row := u
				out = &row
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.find(ctx, "users.get", func(u models.User) bool { return u.ID == id })
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.find(ctx, "users.get_by_telegram_id", func(u models.User) bool {
		return u.TelegramID != nil && *u.TelegramID == telegramID
	})
}

func (r *userRepository) GetByFriendCode(ctx context.Context, code string) (*models.User, error) {
	return r.find(ctx, "users.get_by_friend_code", func(u models.User) bool { return u.FriendCode == code })
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	var out *models.User
	err := r.v.do(ctx, "users.update", func(st *state) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		row := *user
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = time.Now()
		st.users[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, "users.delete", func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		st.deleteUser(id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

type profileRepository struct{ v *view }

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	var out *models.Profile
	err := r.v.do(ctx, "profiles.create", func(st *state) error {
		if _, ok := st.users[profile.UserID]; !ok {
			return repository.ErrNotFound
		}
		if profile.IsMainProfile {
			for _, p := range st.profiles {
				if p.UserID == profile.UserID && p.IsMainProfile {
					return repository.ErrDuplicate
				}
			}
		}
		row := *profile
		row.ID = st.id()
		row.CreatedAt = time.Now()
		st.profiles[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *profileRepository) FindByIDAndOwner(ctx context.Context, id, userID int64) (*models.Profile, error) {
	var out *models.Profile
	err := r.v.do(ctx, "profiles.find_by_id_and_owner", func(st *state) error {
		p, ok := st.profiles[id]
		if !ok || p.UserID != userID {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *profileRepository) GetMainByUser(ctx context.Context, userID int64) (*models.Profile, error) {
	var out *models.Profile
	err := r.v.do(ctx, "profiles.get_main", func(st *state) error {
		for _, p := range st.profiles {
			if p.UserID == userID && p.IsMainProfile {
				row := p
				out = &row
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *profileRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Profile, error) {
	var out []*models.Profile
	err := r.v.do(ctx, "profiles.list_by_user", func(st *state) error {
		for _, p := range st.profiles {
			if p.UserID == userID {
				row := p
				out = append(out, &row)
			}
		}
		sortByID(out, func(p *models.Profile) int64 { return p.ID })
		return nil
	})
	return out, err
}

func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, "profiles.delete", func(st *state) error {
		if _, ok := st.profiles[id]; !ok {
			return repository.ErrNotFound
		}
		st.deleteProfile(id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Friendships
// ---------------------------------------------------------------------------

type friendshipRepository struct{ v *view }

func withUsers(st *state, f models.Friendship) *models.Friendship {
	if u, ok := st.users[f.SenderID]; ok {
		f.Sender = &u
	}
	if u, ok := st.users[f.ReceiverID]; ok {
		f.Receiver = &u
	}
	return &f
}

func (r *friendshipRepository) Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error) {
	var out *models.Friendship
	err := r.v.do(ctx, "friendships.create", func(st *state) error {
		for _, f := range st.friendships {
			if (f.SenderID == friendship.SenderID && f.ReceiverID == friendship.ReceiverID) ||
				(f.SenderID == friendship.ReceiverID && f.ReceiverID == friendship.SenderID) {
				return repository.ErrDuplicate
			}
		}
		row := *friendship
		row.Sender, row.Receiver = nil, nil
		row.ID = st.id()
		now := time.Now()
		row.CreatedAt, row.UpdatedAt = now, now
		st.friendships[row.ID] = row
		out = withUsers(st, row)
		return nil
	})
	return out, err
}

func (r *friendshipRepository) GetByID(ctx context.Context, id int64) (*models.Friendship, error) {
	var out *models.Friendship
	err := r.v.do(ctx, "friendships.get", func(st *state) error {
		f, ok := st.friendships[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = withUsers(st, f)
		return nil
	})
	return out, err
}

func (r *friendshipRepository) FindByIDAndParticipant(ctx context.Context, id, userID int64) (*models.Friendship, error) {
	var out *models.Friendship
	err := r.v.do(ctx, "friendships.find_by_id_and_participant", func(st *state) error {
		f, ok := st.friendships[id]
		if !ok || !f.Involves(userID) {
			return repository.ErrNotFound
		}
		out = withUsers(st, f)
		return nil
	})
	return out, err
}

func (r *friendshipRepository) FindBetween(ctx context.Context, a, b int64) (*models.Friendship, error) {
	var out *models.Friendship
	err := r.v.do(ctx, "friendships.find_between", func(st *state) error {
		for _, f := range st.friendships {
			if (f.SenderID == a && f.ReceiverID == b) || (f.SenderID == b && f.ReceiverID == a) {
				out = withUsers(st, f)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *friendshipRepository) List(ctx context.Context, filters repository.FriendshipFilters) ([]*models.Friendship, error) {
	var out []*models.Friendship
	err := r.v.do(ctx, "friendships.list", func(st *state) error {
		for _, f := range st.friendships {
			if filters.Status != nil && f.Status != *filters.Status {
				continue
			}
			switch filters.Direction {
			case repository.DirectionSent:
				if f.SenderID != filters.UserID {
					continue
				}
			case repository.DirectionReceived:
				if f.ReceiverID != filters.UserID {
					continue
				}
			default:
				if !f.Involves(filters.UserID) {
					continue
				}
			}
			out = append(out, withUsers(st, f))
		}
		sortByID(out, func(f *models.Friendship) int64 { return f.ID })
		return nil
	})
	return out, err
}

func (r *friendshipRepository) UpdateStatus(ctx context.Context, id int64, status models.FriendshipStatus) (*models.Friendship, error) {
	var out *models.Friendship
	err := r.v.do(ctx, "friendships.update_status", func(st *state) error {
		f, ok := st.friendships[id]
		if !ok {
			return repository.ErrNotFound
		}
		if f.Status != models.FriendshipPending {
			return repository.ErrNotPending
		}
		f.Status = status
		f.UpdatedAt = time.Now()
		st.friendships[id] = f
		out = withUsers(st, f)
		return nil
	})
	return out, err
}

func (r *friendshipRepository) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, "friendships.delete", func(st *state) error {
		if _, ok := st.friendships[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.friendships, id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

type eventRepository struct{ v *view }

func withHost(st *state, e models.Event) *models.Event {
	if u, ok := st.users[e.HostID]; ok {
		e.Host = &u
	}
	return &e
}

func sortEvents(events []*models.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	var out *models.Event
	err := r.v.do(ctx, "events.create", func(st *state) error {
		if _, ok := st.users[event.HostID]; !ok {
			return repository.ErrNotFound
		}
		row := *event
		row.Host = nil
		row.ID = st.id()
		now := time.Now()
		row.CreatedAt, row.UpdatedAt = now, now
		st.events[row.ID] = row
		out = withHost(st, row)
		return nil
	})
	return out, err
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var out *models.Event
	err := r.v.do(ctx, "events.get", func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = withHost(st, e)
		return nil
	})
	return out, err
}

func (r *eventRepository) FindByIDAndOwner(ctx context.Context, id, hostID int64) (*models.Event, error) {
	var out *models.Event
	err := r.v.do(ctx, "events.find_by_id_and_owner", func(st *state) error {
		e, ok := st.events[id]
		if !ok || e.HostID != hostID {
			return repository.ErrNotFound
		}
		out = withHost(st, e)
		return nil
	})
	return out, err
}

func (r *eventRepository) ListByHost(ctx context.Context, hostID int64) ([]*models.Event, error) {
	var out []*models.Event
	err := r.v.do(ctx, "events.list_by_host", func(st *state) error {
		for _, e := range st.events {
			if e.HostID == hostID {
				out = append(out, withHost(st, e))
			}
		}
		sortEvents(out)
		return nil
	})
	return out, err
}

func (r *eventRepository) ListByGuest(ctx context.Context, userID int64, status models.InvitationStatus) ([]*models.Event, error) {
	var out []*models.Event
	err := r.v.do(ctx, "events.list_by_guest", func(st *state) error {
		for _, inv := range st.invitations {
			if inv.FriendID != userID || inv.Status != status {
				continue
			}
			if e, ok := st.events[inv.EventID]; ok {
				out = append(out, withHost(st, e))
			}
		}
		sortEvents(out)
		return nil
	})
	return out, err
}

func (r *eventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	var out []*models.Event
	err := r.v.do(ctx, "events.list_between", func(st *state) error {
		for _, e := range st.events {
			if !e.Date.Before(from) && e.Date.Before(to) {
				out = append(out, withHost(st, e))
			}
		}
		sortEvents(out)
		return nil
	})
	return out, err
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	var out *models.Event
	err := r.v.do(ctx, "events.update", func(st *state) error {
		existing, ok := st.events[event.ID]
		if !ok {
			return repository.ErrNotFound
		}
		row := *event
		row.Host = nil
		row.HostID = existing.HostID
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = time.Now()
		st.events[row.ID] = row
		out = withHost(st, row)
		return nil
	})
	return out, err
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, "events.delete", func(st *state) error {
		if _, ok := st.events[id]; !ok {
			return repository.ErrNotFound
		}
		st.deleteEvent(id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Invitations
// ---------------------------------------------------------------------------

type invitationRepository struct{ v *view }

func (r *invitationRepository) Create(ctx context.Context, invitation *models.EventInvitation) (*models.EventInvitation, error) {
	var out *models.EventInvitation
	err := r.v.do(ctx, "invitations.create", func(st *state) error {
		if _, ok := st.events[invitation.EventID]; !ok {
			return repository.ErrNotFound
		}
		for _, inv := range st.invitations {
			if inv.EventID == invitation.EventID && inv.FriendID == invitation.FriendID {
				return repository.ErrDuplicate
			}
		}
		row := *invitation
		row.Event = nil
		row.ID = st.id()
		now := time.Now()
		row.CreatedAt, row.UpdatedAt = now, now
		st.invitations[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *invitationRepository) Find(ctx context.Context, eventID, friendID int64) (*models.EventInvitation, error) {
	var out *models.EventInvitation
	err := r.v.do(ctx, "invitations.find", func(st *state) error {
		for _, inv := range st.invitations {
			if inv.EventID == eventID && inv.FriendID == friendID {
				row := inv
				out = &row
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *invitationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.EventInvitation, error) {
	var out []*models.EventInvitation
	err := r.v.do(ctx, "invitations.list_by_event", func(st *state) error {
		for _, inv := range st.invitations {
			if inv.EventID == eventID {
				row := inv
				out = append(out, &row)
			}
		}
		sortByID(out, func(i *models.EventInvitation) int64 { return i.ID })
		return nil
	})
	return out, err
}

func (r *invitationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.EventInvitation, error) {
	var out []*models.EventInvitation
	err := r.v.do(ctx, "invitations.list_by_user", func(st *state) error {
		for _, inv := range st.invitations {
			if inv.FriendID != userID {
				continue
			}
			row := inv
			if e, ok := st.events[inv.EventID]; ok {
				row.Event = withHost(st, e)
			}
			out = append(out, &row)
		}
		sortByID(out, func(i *models.EventInvitation) int64 { return i.ID })
		return nil
	})
	return out, err
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id int64, status models.InvitationStatus) (*models.EventInvitation, error) {
	var out *models.EventInvitation
	err := r.v.do(ctx, "invitations.update_status", func(st *state) error {
		inv, ok := st.invitations[id]
		if !ok {
			return repository.ErrNotFound
		}
		if inv.Status != models.InvitationPending {
			return repository.ErrNotPending
		}
		inv.Status = status
		inv.UpdatedAt = time.Now()
		st.invitations[id] = inv
		out = &inv
		return nil
	})
	return out, err
}

func (r *invitationRepository) Delete(ctx context.Context, eventID, friendID int64) error {
	return r.v.do(ctx, "invitations.delete", func(st *state) error {
		for id, inv := range st.invitations {
			if inv.EventID == eventID && inv.FriendID == friendID {
				delete(st.invitations, id)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

// ---------------------------------------------------------------------------
// Wishlists
// ---------------------------------------------------------------------------

type wishlistRepository struct{ v *view }

func (r *wishlistRepository) Create(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	var out *models.Wishlist
	err := r.v.do(ctx, "wishlists.create", func(st *state) error {
		if _, ok := st.profiles[wishlist.ProfileID]; !ok {
			return repository.ErrNotFound
		}
		if wishlist.EventID != nil {
			if _, ok := st.events[*wishlist.EventID]; !ok {
				return repository.ErrNotFound
			}
			for _, w := range st.wishlists {
				if w.EventID != nil && *w.EventID == *wishlist.EventID {
					return repository.ErrDuplicate
				}
			}
		}
		row := *wishlist
		row.Items = nil
		row.ID = st.id()
		now := time.Now()
		row.CreatedAt, row.UpdatedAt = now, now
		st.wishlists[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *wishlistRepository) find(ctx context.Context, op string, match func(models.Wishlist) bool) (*models.Wishlist, error) {
	var out *models.Wishlist
	err := r.v.do(ctx, op, func(st *state) error {
		for _, w := range st.wishlists {
			if match(w) {
				row := w
				out = &row
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *wishlistRepository) GetByID(ctx context.Context, id int64) (*models.Wishlist, error) {
	return r.find(ctx, "wishlists.get", func(w models.Wishlist) bool { return w.ID == id })
}

func (r *wishlistRepository) FindByIDAndOwner(ctx context.Context, id, userID int64) (*models.Wishlist, error) {
	return r.find(ctx, "wishlists.find_by_id_and_owner", func(w models.Wishlist) bool {
		return w.ID == id && w.UserID == userID
	})
}

func (r *wishlistRepository) GetByEventID(ctx context.Context, eventID int64) (*models.Wishlist, error) {
	return r.find(ctx, "wishlists.get_by_event", func(w models.Wishlist) bool {
		return w.EventID != nil && *w.EventID == eventID
	})
}

func (r *wishlistRepository) list(ctx context.Context, op string, match func(models.Wishlist) bool) ([]*models.Wishlist, error) {
	var out []*models.Wishlist
	err := r.v.do(ctx, op, func(st *state) error {
		for _, w := range st.wishlists {
			if match(w) {
				row := w
				out = append(out, &row)
			}
		}
		sortByID(out, func(w *models.Wishlist) int64 { return w.ID })
		return nil
	})
	return out, err
}

func (r *wishlistRepository) ListByUsers(ctx context.Context, userIDs []int64) ([]*models.Wishlist, error) {
	set := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	return r.list(ctx, "wishlists.list_by_users", func(w models.Wishlist) bool { return set[w.UserID] })
}

func (r *wishlistRepository) ListByProfile(ctx context.Context, profileID int64) ([]*models.Wishlist, error) {
	return r.list(ctx, "wishlists.list_by_profile", func(w models.Wishlist) bool { return w.ProfileID == profileID })
}

func (r *wishlistRepository) Update(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	var out *models.Wishlist
	err := r.v.do(ctx, "wishlists.update", func(st *state) error {
		existing, ok := st.wishlists[wishlist.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Name = wishlist.Name
		existing.Description = wishlist.Description
		existing.UpdatedAt = time.Now()
		st.wishlists[existing.ID] = existing
		out = &existing
		return nil
	})
	return out, err
}

func (r *wishlistRepository) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, "wishlists.delete", func(st *state) error {
		if _, ok := st.wishlists[id]; !ok {
			return repository.ErrNotFound
		}
		st.deleteWishlist(id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type itemRepository struct{ v *view }

func (r *itemRepository) Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	var out *models.WishlistItem
	err := r.v.do(ctx, "items.create", func(st *state) error {
		if _, ok := st.wishlists[item.WishlistID]; !ok {
			return repository.ErrNotFound
		}
		row := *item
		row.ID = st.id()
		row.Reserved = false
		row.ReservedByID = nil
		now := time.Now()
		row.CreatedAt, row.UpdatedAt = now, now
		st.items[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *itemRepository) getWithWishlist(ctx context.Context, op string, id int64) (*models.WishlistItem, *models.Wishlist, error) {
	var item *models.WishlistItem
	var list *models.Wishlist
	err := r.v.do(ctx, op, func(st *state) error {
		i, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		w, ok := st.wishlists[i.WishlistID]
		if !ok {
			return repository.ErrNotFound
		}
		item, list = &i, &w
		return nil
	})
	return item, list, err
}

func (r *itemRepository) GetWithWishlist(ctx context.Context, id int64) (*models.WishlistItem, *models.Wishlist, error) {
	return r.getWithWishlist(ctx, "items.get_with_wishlist", id)
}

// GetForUpdate relies on WithinTx holding the store lock for row locking.
func (r *itemRepository) GetForUpdate(ctx context.Context, id int64) (*models.WishlistItem, *models.Wishlist, error) {
	return r.getWithWishlist(ctx, "items.get_for_update", id)
}

func (r *itemRepository) ListByWishlists(ctx context.Context, wishlistIDs []int64) ([]*models.WishlistItem, error) {
	set := make(map[int64]bool, len(wishlistIDs))
	for _, id := range wishlistIDs {
		set[id] = true
	}
	var out []*models.WishlistItem
	err := r.v.do(ctx, "items.list_by_wishlists", func(st *state) error {
		reservedBy := map[int64]int64{}
		for _, res := range st.reservations {
			reservedBy[res.ItemID] = res.UserID
		}
		for _, i := range st.items {
			if !set[i.WishlistID] {
				continue
			}
			row := i
			if uid, ok := reservedBy[i.ID]; ok {
				row.ReservedByID = &uid
			}
			out = append(out, &row)
		}
		sortByID(out, func(i *models.WishlistItem) int64 { return i.ID })
		return nil
	})
	return out, err
}

func (r *itemRepository) Update(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	var out *models.WishlistItem
	err := r.v.do(ctx, "items.update", func(st *state) error {
		existing, ok := st.items[item.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Name = item.Name
		existing.Description = item.Description
		existing.Price = item.Price
		existing.URL = item.URL
		existing.ImageURL = item.ImageURL
		existing.UpdatedAt = time.Now()
		st.items[existing.ID] = existing
		out = &existing
		return nil
	})
	return out, err
}

func (r *itemRepository) SetReserved(ctx context.Context, id int64, reserved bool) error {
	return r.v.do(ctx, "items.set_reserved", func(st *state) error {
		existing, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Reserved = reserved
		existing.UpdatedAt = time.Now()
		st.items[id] = existing
		return nil
	})
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	return r.v.do(ctx, "items.delete", func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return repository.ErrNotFound
		}
		st.deleteItem(id)
		return nil
	})
}

// ---------------------------------------------------------------------------
// Reservations
// ---------------------------------------------------------------------------

type reservationRepository struct{ v *view }

func (r *reservationRepository) Create(ctx context.Context, reservation *models.ItemReservation) (*models.ItemReservation, error) {
	var out *models.ItemReservation
	err := r.v.do(ctx, "reservations.create", func(st *state) error {
		if _, ok := st.items[reservation.ItemID]; !ok {
			return repository.ErrNotFound
		}
		for _, res := range st.reservations {
			if res.ItemID == reservation.ItemID {
				return repository.ErrDuplicate
			}
		}
		row := *reservation
		row.ID = st.id()
		row.CreatedAt = time.Now()
		st.reservations[row.ID] = row
		out = &row
		return nil
	})
	return out, err
}

func (r *reservationRepository) FindByItem(ctx context.Context, itemID int64) (*models.ItemReservation, error) {
	var out *models.ItemReservation
	err := r.v.do(ctx, "reservations.find_by_item", func(st *state) error {
		for _, res := range st.reservations {
			if res.ItemID == itemID {
				row := res
				out = &row
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.ItemReservation, error) {
	var out []*models.ItemReservation
	err := r.v.do(ctx, "reservations.list_by_user", func(st *state) error {
		for _, res := range st.reservations {
			if res.UserID == userID {
				row := res
				out = append(out, &row)
			}
		}
		sortByID(out, func(r *models.ItemReservation) int64 { return r.ID })
		return nil
	})
	return out, err
}

func (r *reservationRepository) DeleteByItem(ctx context.Context, itemID int64) error {
	return r.v.do(ctx, "reservations.delete_by_item", func(st *state) error {
		for id, res := range st.reservations {
			if res.ItemID == itemID {
				delete(st.reservations, id)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}
