package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Negotiation is a buyer's counter-offer against a listing's price.
// CounterRound is bounded by configuration; ExpiresAt offers past their
// expiry can no longer be accepted.
type Negotiation struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ListingID    uuid.UUID               `gorm:"column:listing_id;type:uuid;not null;index"`
	BuyerID      uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null;index"`
	OfferedPrice decimal.Decimal         `gorm:"column:offered_price;type:numeric(12,2);not null"`
	Status       enums.NegotiationStatus `gorm:"column:status;type:negotiation_status;not null;default:pending"`
	CounterRound int                     `gorm:"column:counter_round;not null;default:0"`
	ExpiresAt    *time.Time              `gorm:"column:expires_at"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
