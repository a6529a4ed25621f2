package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// ProductListing is a farmer's priced, quantified offer to sell a catalog
// product. Owned exclusively by FarmerID.
type ProductListing struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID          uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null;index"`
	ProductID         uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	QuantityAvailable decimal.Decimal     `gorm:"column:quantity_available;type:numeric(12,3);not null"`
	Unit              enums.UnitOfMeasure `gorm:"column:unit;type:unit_of_measure;not null"`
	PricePerUnit      decimal.Decimal     `gorm:"column:price_per_unit;type:numeric(12,2);not null"`
	Status            enums.ListingStatus `gorm:"column:status;type:listing_status;not null;default:available"`
	HarvestDate       *time.Time          `gorm:"column:harvest_date"`
	QualityReportID   *uuid.UUID          `gorm:"column:quality_report_id;type:uuid"`
	Product           *Product            `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
