package store

import (
	"github.com/tainyuhu/pin-server/internal/models"

	"github.com/google/uuid"
)

// CreateLineMessage records one inbound or outbound message.
func (s *Store) CreateLineMessage(msg *models.LineMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	if msg.Status == "" {
		msg.Status = models.MessageStatusPending
	}
	return s.db.Create(msg).Error
}

// UpdateLineMessageStatus moves a message to a new delivery status,
// optionally recording a delivery error.
func (s *Store) UpdateLineMessageStatus(id, status, errorDetail string) error {
	updates := map[string]any{"status": status}
	if errorDetail != "" {
		updates["error_detail"] = errorDetail
	}
	res := s.db.Model(&models.LineMessage{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListLineMessages returns the most recent messages for a LINE user row,
// newest first.
func (s *Store) ListLineMessages(lineUserRowID string, limit int) ([]models.LineMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	var msgs []models.LineMessage
	err := s.db.
		Where("line_user_id = ?", lineUserRowID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
