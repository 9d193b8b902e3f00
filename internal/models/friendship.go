package models

import "time"

// FriendshipStatus is the state of a friendship row
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipDeclined FriendshipStatus = "DECLINED"
)

// Friendship is created by the sender and becomes symmetric once accepted.
type Friendship struct {
	ID         int64            `json:"id" db:"id"`
	SenderID   int64            `json:"sender_id" db:"sender_id"`
	ReceiverID int64            `json:"receiver_id" db:"receiver_id"`
	Status     FriendshipStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
	Sender     *User            `json:"sender,omitempty"`
	Receiver   *User            `json:"receiver,omitempty"`
}

// Involves returns true if userID is either side of the friendship
func (f *Friendship) Involves(userID int64) bool {
	return f.SenderID == userID || f.ReceiverID == userID
}

// OtherID returns the id of the participant that is not userID
func (f *Friendship) OtherID(userID int64) int64 {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}

// FriendshipRelation is the viewer-relative state between two users
type FriendshipRelation string

const (
	RelationSelf            FriendshipRelation = "self"
	RelationFriend          FriendshipRelation = "friend"
	RelationPendingSent     FriendshipRelation = "pending_sent"
	RelationPendingReceived FriendshipRelation = "pending_received"
	RelationNone            FriendshipRelation = "none"
)

// Other returns the participant that is not userID, when loaded
func (f *Friendship) Other(userID int64) *User {
	if f.SenderID == userID {
		return f.Receiver
	}
	return f.Sender
}
