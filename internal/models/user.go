package models

import "time"

// Role is the authorization role of a user
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a person known to the system
type User struct {
	ID               int64     `json:"id" db:"id"`
	TelegramID       *int64    `json:"telegram_id,omitempty" db:"telegram_id"`
	TelegramUsername string    `json:"telegram_username,omitempty" db:"telegram_username"`
	Name             string    `json:"name" db:"name"`
	FriendCode       string    `json:"friend_code" db:"friend_code"`
	Role             Role      `json:"role" db:"role"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.TelegramUsername != "" {
		return "@" + u.TelegramUsername
	}
	if u.Name != "" {
		return u.Name
	}
	return u.FriendCode
}

// Profile is a named persona owned by a single user. Wishlists hang off
// profiles so one person can keep lists for e.g. their kids.
type Profile struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Name          string    `json:"name" db:"name"`
	IsMainProfile bool      `json:"is_main_profile" db:"is_main_profile"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
