package store

import (
	"errors"
	"time"

	"github.com/tainyuhu/pin-server/internal/models"

	"gorm.io/gorm"
)

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user
func (s *Store) CreateUser(user *models.User) error {
	var count int64
	s.db.Model(&models.User{}).Where("username = ?", user.Username).Count(&count)
	if count > 0 {
		return ErrUsernameConflict
	}
	if user.Avatar == "" {
		user.Avatar = models.DefaultAvatar
	}
	return s.db.Create(user).Error
}

// UpdateUserPassword replaces the user's password hash.
func (s *Store) UpdateUserPassword(userID, passwordHash string) error {
	result := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// syncUserFromLink propagates link-state mirror fields onto the user row
// inside the caller's transaction. Display name and avatar are best-effort
// fill-ins: the name only when currently empty, the avatar only while it
// still holds the default placeholder.
func syncUserFromLink(tx *gorm.DB, userID string, profile *models.LineProfile, boundAt time.Time) error {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	updates := map[string]any{}
	if !user.IsLineBound {
		updates["is_line_bound"] = true
	}
	if user.LineBindTime == nil {
		updates["line_bind_time"] = boundAt
	}
	if user.LineID == nil {
		updates["line_id"] = profile.LineUserID
	}
	if user.Name == "" && profile.DisplayName != "" {
		updates["name"] = profile.DisplayName
	}
	if user.Avatar == models.DefaultAvatar && profile.PictureURL != "" {
		updates["avatar"] = profile.PictureURL
	}

	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&user).Updates(updates).Error
}

// clearUserLinkFields resets the mirror fields after an unbind, inside the
// caller's transaction.
func clearUserLinkFields(tx *gorm.DB, userID string) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_line_bound":  false,
			"line_bind_time": nil,
			"line_id":        nil,
		}).Error
}
