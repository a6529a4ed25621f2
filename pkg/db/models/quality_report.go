package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// QualityReport grades a listing's produce. Listings reference reports via a
// nullable FK that is set null when the report is deleted.
type QualityReport struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ListingID  uuid.UUID          `gorm:"column:listing_id;type:uuid;not null;index"`
	Grade      enums.QualityGrade `gorm:"column:grade;type:quality_grade;not null"`
	Score      float64            `gorm:"column:score;type:numeric(5,2);not null"`
	Defects    pq.StringArray     `gorm:"column:defects;type:text[]"`
	GradedBy   string             `gorm:"column:graded_by;not null"`
	InspectedAt time.Time         `gorm:"column:inspected_at;not null"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
