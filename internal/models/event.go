package models

import "time"

// InvitationStatus is the state of an event invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
)

// Event represents a gift-giving occasion hosted by a user
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	Date        time.Time `json:"date" db:"date"`
	HostID      int64     `json:"host_id" db:"host_id"`
	ProfileID   *int64    `json:"profile_id" db:"profile_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Host        *User     `json:"host,omitempty"`
}

// IsUpcoming returns true if the event hasn't started yet
func (e *Event) IsUpcoming() bool {
	return time.Now().Before(e.Date)
}

// EventInvitation links an event to an invited user
type EventInvitation struct {
	ID        int64            `json:"id" db:"id"`
	EventID   int64            `json:"event_id" db:"event_id"`
	FriendID  int64            `json:"friend_id" db:"friend_id"`
	Status    InvitationStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
	Event     *Event           `json:"event,omitempty"`
}
