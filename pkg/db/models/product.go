package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Product is a catalog entry. Rows referenced by listings cannot be deleted
// (FK RESTRICT); the catalog is shared across farmers.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description *string               `gorm:"column:description"`
	Category    enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	ImageURL    *string               `gorm:"column:image_url"`
	GTIN        string                `gorm:"column:gtin;not null;uniqueIndex:idx_products_gtin"`
	CreatedByID uuid.UUID             `gorm:"column:created_by_id;type:uuid;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
