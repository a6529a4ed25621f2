package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is directed text between two profiles, optionally scoped to an
// order. ReadAt stays null until the recipient marks it read.
type Message struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SenderID    uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index"`
	RecipientID uuid.UUID  `gorm:"column:recipient_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID `gorm:"column:order_id;type:uuid"`
	Body        string     `gorm:"column:body;not null"`
	ReadAt      *time.Time `gorm:"column:read_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
