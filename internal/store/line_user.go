package store

import (
	"errors"
	"time"

	"github.com/tainyuhu/pin-server/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FindActiveLineUserByLineID returns the non-deleted row for a LINE user id.
func (s *Store) FindActiveLineUserByLineID(lineUserID string) (*models.LineUser, error) {
	var lu models.LineUser
	err := s.db.
		Where("line_user_id = ? AND is_deleted = ?", lineUserID, false).
		First(&lu).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &lu, nil
}

// FindLatestLineUserByLineID returns the most recent row for a LINE user id
// regardless of deletion state. Used to decide revive-vs-create on binding.
func (s *Store) FindLatestLineUserByLineID(lineUserID string) (*models.LineUser, error) {
	var lu models.LineUser
	err := s.db.
		Where("line_user_id = ?", lineUserID).
		Order("created_at DESC").
		First(&lu).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &lu, nil
}

// FindActiveLineUserByUserID returns the non-deleted row bound to a system user.
func (s *Store) FindActiveLineUserByUserID(userID string) (*models.LineUser, error) {
	var lu models.LineUser
	err := s.db.
		Where("user_id = ? AND is_deleted = ?", userID, false).
		First(&lu).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &lu, nil
}

// CreateLinkedLineUser creates a new bound row and mirrors the link onto the
// user in the same transaction. The uniqueness check against other active
// rows runs inside the transaction so soft-deleted rows never count.
func (s *Store) CreateLinkedLineUser(
	lineUserID, userID string,
	profile *models.LineProfile,
) (*models.LineUser, error) {
	now := time.Now()
	lu := &models.LineUser{
		ID:              uuid.New().String(),
		LineUserID:      lineUserID,
		UserID:          &userID,
		DisplayName:     profile.DisplayName,
		PictureURL:      profile.PictureURL,
		StatusMessage:   profile.StatusMessage,
		LastInteraction: now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LineUser{}).
			Where("line_user_id = ? AND is_deleted = ?", lineUserID, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrLineAccountConflict
		}

		if err := tx.Create(lu).Error; err != nil {
			return err
		}
		return syncUserFromLink(tx, userID, profile, now)
	})
	if err != nil {
		return nil, err
	}
	return lu, nil
}

// CreateUnboundLineUser creates a placeholder row with no system user
// attached. Webhook traffic from unknown senders lands here.
func (s *Store) CreateUnboundLineUser(
	lineUserID string,
	profile *models.LineProfile,
) (*models.LineUser, error) {
	lu := &models.LineUser{
		ID:              uuid.New().String(),
		LineUserID:      lineUserID,
		UserID:          nil,
		DisplayName:     profile.DisplayName,
		PictureURL:      profile.PictureURL,
		StatusMessage:   profile.StatusMessage,
		LastInteraction: time.Now(),
	}
	if err := s.db.Create(lu).Error; err != nil {
		return nil, err
	}
	return lu, nil
}

// ReviveAndRelinkLineUser clears the soft-delete flag, reattaches the row to
// a system user, refreshes the profile snapshot, and mirrors the link onto
// the user, all in one transaction.
func (s *Store) ReviveAndRelinkLineUser(
	lu *models.LineUser,
	userID string,
	profile *models.LineProfile,
) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(lu).Updates(map[string]any{
			"is_deleted":       false,
			"user_id":          userID,
			"display_name":     profile.DisplayName,
			"picture_url":      profile.PictureURL,
			"status_message":   profile.StatusMessage,
			"last_interaction": now,
		}).Error
		if err != nil {
			return err
		}
		return syncUserFromLink(tx, userID, profile, now)
	})
}

// SoftUnlinkLineUser soft-deletes the row, detaches the system user, and
// clears the user's mirror fields in one transaction. The row itself stays
// so a later binding for the same LINE account revives it.
func (s *Store) SoftUnlinkLineUser(lu *models.LineUser) error {
	if lu.UserID == nil {
		return s.db.Model(lu).Updates(map[string]any{
			"is_deleted":       true,
			"last_interaction": time.Now(),
		}).Error
	}

	userID := *lu.UserID
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(lu).Updates(map[string]any{
			"is_deleted":       true,
			"user_id":          nil,
			"last_interaction": time.Now(),
		}).Error
		if err != nil {
			return err
		}
		return clearUserLinkFields(tx, userID)
	})
}

// UpdateLineUserProfile refreshes the profile snapshot and bumps the
// last-interaction timestamp. When the row is bound, the mirror fields on
// the user are refreshed in the same transaction.
func (s *Store) UpdateLineUserProfile(lu *models.LineUser, profile *models.LineProfile) error {
	now := time.Now()
	updates := map[string]any{
		"display_name":     profile.DisplayName,
		"picture_url":      profile.PictureURL,
		"last_interaction": now,
	}
	if profile.StatusMessage != "" {
		updates["status_message"] = profile.StatusMessage
	}

	if lu.UserID == nil {
		return s.db.Model(lu).Updates(updates).Error
	}

	userID := *lu.UserID
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(lu).Updates(updates).Error; err != nil {
			return err
		}
		return syncUserFromLink(tx, userID, profile, now)
	})
}

// CountLineUserLinks returns the number of active bound and unbound rows.
func (s *Store) CountLineUserLinks() (bound, unbound int64, err error) {
	err = s.db.Model(&models.LineUser{}).
		Where("is_deleted = ? AND user_id IS NOT NULL", false).
		Count(&bound).Error
	if err != nil {
		return 0, 0, err
	}
	err = s.db.Model(&models.LineUser{}).
		Where("is_deleted = ? AND user_id IS NULL", false).
		Count(&unbound).Error
	if err != nil {
		return 0, 0, err
	}
	return bound, unbound, nil
}

// TouchLineUser bumps the last-interaction timestamp only.
func (s *Store) TouchLineUser(lu *models.LineUser) error {
	return s.db.Model(lu).Update("last_interaction", time.Now()).Error
}
