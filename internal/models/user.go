package models

import (
	"time"
)

// DefaultAvatar is the placeholder avatar assigned to new users. Profile
// data pulled from LINE only overwrites the avatar while it still holds
// this value.
const DefaultAvatar = "/media/default/avatar.png"

type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"index"`
	PasswordHash string // LINE-only users have empty password
	Role         string `gorm:"not null;default:'user'"` // "admin" or "user"
	Name         string // Display name, may be filled from LINE profile
	Avatar       string `gorm:"default:'/media/default/avatar.png'"`

	// LINE link mirror fields. Denormalized from the LineUser row for fast
	// reads; kept in sync by the store inside the same transaction as the
	// LineUser mutation, never by a database trigger.
	IsLineBound  bool       `gorm:"not null;default:false"`
	LineBindTime *time.Time
	LineID       *string `gorm:"index"` // nil when unbound

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
