package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Dispute is raised by a party to an order.
type Dispute struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	RaisedByID uuid.UUID           `gorm:"column:raised_by_id;type:uuid;not null"`
	Reason     string              `gorm:"column:reason;not null"`
	Status     enums.DisputeStatus `gorm:"column:status;type:dispute_status;not null;default:open"`
	Resolution *string             `gorm:"column:resolution"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
