package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image is a stored media asset: the public URL plus the object-store key
// needed to delete or replace it later.
type Image struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"public_id,omitempty" bson:"public_id,omitempty"`
}

// User represents a registered account / channel
type User struct {
	ID           primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserName     string               `json:"username" bson:"username"` // unique, stored lowercase
	Email        string               `json:"email" bson:"email"`       // unique
	FullName     string               `json:"full_name" bson:"full_name"`
	Password     string               `json:"-" bson:"password"` // bcrypt hash, never serialized
	Avatar       Image                `json:"avatar" bson:"avatar"`
	CoverImage   Image                `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	WatchHistory []primitive.ObjectID `json:"watch_history,omitempty" bson:"watch_history,omitempty"`
	RefreshToken string               `json:"-" bson:"refresh_token,omitempty"` // single active refresh credential
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

// RegisterUserRequest defines the request body for account creation
type RegisterUserRequest struct {
	UserName string `json:"username" form:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	FullName string `json:"full_name" form:"full_name" validate:"required,min=2,max=60"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

// LoginRequest defines the request body for credential verification.
// Either username or email identifies the account.
type LoginRequest struct {
	UserName string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest defines the request body for rotating a password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateAccountRequest defines the request body for profile edits
type UpdateAccountRequest struct {
	FullName string `json:"full_name,omitempty" validate:"omitempty,min=2,max=60"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// RefreshRequest carries a refresh credential for non-cookie clients
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
