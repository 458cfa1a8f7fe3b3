package models

import (
	"time"
)

// Message status values for LineMessage.Status.
const (
	MessageStatusPending   = "pending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusFailed    = "failed"
)

// LineMessage records a message exchanged with a LINE user. Inbound messages
// arrive through the webhook; outbound ones are replies or pushes sent via
// the Messaging API.
type LineMessage struct {
	ID         string `gorm:"primaryKey"`
	LineUserID string `gorm:"not null;index"` // LineUser.ID, not the LINE platform id

	Message     string `gorm:"type:text"`
	MessageType string `gorm:"not null;default:'text'"` // text, image, sticker, ...
	IsOutbound  bool   `gorm:"not null;default:false"`
	Status      string `gorm:"not null;default:'pending'"`
	ErrorDetail string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LineMessage) TableName() string {
	return "line_messages"
}
