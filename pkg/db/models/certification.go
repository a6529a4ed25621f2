package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Certification is a trust artifact attached to a farmer profile.
type Certification struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID     uuid.UUID                 `gorm:"column:farmer_id;type:uuid;not null;index"`
	Name         string                    `gorm:"column:name;not null"`
	IssuedBy     string                    `gorm:"column:issued_by;not null"`
	DocumentURLs pq.StringArray            `gorm:"column:document_urls;type:text[]"`
	Status       enums.CertificationStatus `gorm:"column:status;type:certification_status;not null;default:submitted"`
	IssuedAt     time.Time                 `gorm:"column:issued_at;not null"`
	ExpiresAt    time.Time                 `gorm:"column:expires_at;not null"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
