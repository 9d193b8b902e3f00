package models

import "time"

// CreateEventInput is the payload for creating an event
type CreateEventInput struct {
	Name        string    `json:"name" validate:"required,min=1,max=100"`
	Description string    `json:"description" validate:"max=1000"`
	Location    string    `json:"location" validate:"max=200"`
	Date        time.Time `json:"date" validate:"required,notpast"`
	HostID      int64     `json:"-" validate:"required"`
	ProfileID   *int64    `json:"profile_id"`
}

// UpdateEventInput is a partial update; nil fields are left untouched
type UpdateEventInput struct {
	Name        *string    `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string    `json:"description" validate:"omitnil,max=1000"`
	Location    *string    `json:"location" validate:"omitnil,max=200"`
	Date        *time.Time `json:"date" validate:"omitnil,notpast"`
}

// RespondInvitationInput carries a guest's answer to an invitation
type RespondInvitationInput struct {
	Status InvitationStatus `json:"status" validate:"required,oneof=ACCEPTED DECLINED"`
}

// CreateWishlistInput is the payload for creating a standalone wishlist
type CreateWishlistInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
	ProfileID   int64  `json:"profile_id" validate:"required"`
}

// UpdateWishlistInput is a partial update; nil fields are left untouched
type UpdateWishlistInput struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

// ItemInput is the payload for adding an item to a wishlist
type ItemInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	URL         string   `json:"url" validate:"omitempty,url"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
}

// UpdateItemInput is a partial update; nil fields are left untouched
type UpdateItemInput struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string  `json:"description" validate:"omitnil,min=1,max=1000"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	URL         *string  `json:"url" validate:"omitnil,omitempty,url"`
	ImageURL    *string  `json:"image_url" validate:"omitnil,omitempty,url"`
}

// ProfileInput is the payload for creating a secondary profile
type ProfileInput struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// FriendCodeInput carries a friend code typed by a user
type FriendCodeInput struct {
	Code string `json:"code" validate:"required,len=6,alphanum,uppercase"`
}
