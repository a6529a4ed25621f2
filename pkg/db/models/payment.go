package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Payment records the single charge attached to an order. The external charge
// reference comes from the hosted payment provider and is treated as opaque.
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_payments_order_id"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Status          enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:pending"`
	ExternalChargeRef string            `gorm:"column:external_charge_ref;not null;uniqueIndex:idx_payments_external_ref"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
