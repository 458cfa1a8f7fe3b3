package models

import (
	"time"
)

// LineProfile is the user identity as resolved from LINE, either by decoding
// the id_token from the token exchange or by calling the profile API. It is
// ephemeral: consumed by the login/binding flow and never stored as-is.
type LineProfile struct {
	LineUserID    string
	DisplayName   string
	PictureURL    string
	Email         string
	StatusMessage string
}

// LineUser is the persisted link between a LINE identity and a system user.
// UserID is nil for unbound placeholder rows (created by webhook traffic
// before any binding happens). Rows are soft-deleted on unbind so a later
// re-binding revives the record instead of creating a second row.
//
// At most one non-deleted row may exist per LineUserID and per UserID. The
// partial unique index covers the storage layer; the store enforces the same
// rule in application logic inside the write transaction, since soft-deleted
// rows must not count against uniqueness.
type LineUser struct {
	ID         string  `gorm:"primaryKey"`
	LineUserID string  `gorm:"not null;index;uniqueIndex:idx_line_user_active,where:is_deleted = false"`
	UserID     *string `gorm:"index"`

	DisplayName   string
	PictureURL    string
	StatusMessage string
	Language      string

	LastInteraction time.Time
	IsDeleted       bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LineUser) TableName() string {
	return "line_users"
}

// IsLinked reports whether this row is an active link to a system user.
func (l *LineUser) IsLinked() bool {
	return !l.IsDeleted && l.UserID != nil
}
