package cache

import "fmt"

// Tag names a group of cached read views. Mutations invalidate tags; every
// cached entry records the tags it depends on.
type Tag string

const friendsWishlistsTag Tag = "friends-wishlists"
const allEventsTag Tag = "all-events"

// UserWishlists covers the wishlist listings of one owner
func UserWishlists(userID int64) Tag {
	return Tag(fmt.Sprintf("user-wishlists-%d", userID))
}

// Wishlist covers a single wishlist with its items
func Wishlist(wishlistID int64) Tag {
	return Tag(fmt.Sprintf("wishlist-%d", wishlistID))
}

// FriendsWishlists covers every "wishlists of my friends" view
func FriendsWishlists() Tag {
	return friendsWishlistsTag
}

// UserEvents covers the event listings of one user, hosted or invited
func UserEvents(userID int64) Tag {
	return Tag(fmt.Sprintf("user-events-%d", userID))
}

// Event covers a single event
func Event(eventID int64) Tag {
	return Tag(fmt.Sprintf("event-%d", eventID))
}

// AllEvents covers cross-user event views such as common events
func AllEvents() Tag {
	return allEventsTag
}

// UserFriends covers the friend and friend-request listings of one user
func UserFriends(userID int64) Tag {
	return Tag(fmt.Sprintf("user-friends-%d", userID))
}

// Dedupe returns tags without repeats, keeping the first occurrence order
func Dedupe(tags []Tag) []Tag {
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
