package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// RetailerInventory tracks stock a retailer holds after delivery.
// Owned exclusively by RetailerID.
type RetailerInventory struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	RetailerID uuid.UUID           `gorm:"column:retailer_id;type:uuid;not null;index"`
	ProductID  uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity   decimal.Decimal     `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit       enums.UnitOfMeasure `gorm:"column:unit;type:unit_of_measure;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
