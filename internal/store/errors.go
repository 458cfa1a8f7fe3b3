package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrUsernameConflict is returned when a username already exists
	ErrUsernameConflict = errors.New("username already exists")

	// ErrLineAccountConflict is returned when a non-deleted line_users row
	// for the same LINE user id already belongs to a different system user.
	ErrLineAccountConflict = errors.New("line account already linked to another user")
)
