package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// FarmTask is a farmer's to-do item. Owned exclusively by FarmerID.
type FarmTask struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID    uuid.UUID        `gorm:"column:farmer_id;type:uuid;not null;index"`
	Title       string           `gorm:"column:title;not null"`
	Description *string          `gorm:"column:description"`
	DueDate     *time.Time       `gorm:"column:due_date"`
	Status      enums.TaskStatus `gorm:"column:status;type:task_status;not null;default:pending"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
