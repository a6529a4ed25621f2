package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Shipment carries an order from the farm to the buyer.
type Shipment struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Carrier        string               `gorm:"column:carrier;not null"`
	TrackingNumber *string              `gorm:"column:tracking_number"`
	Status         enums.ShipmentStatus `gorm:"column:status;type:shipment_status;not null;default:preparing"`
	DispatchedAt   *time.Time           `gorm:"column:dispatched_at"`
	DeliveredAt    *time.Time           `gorm:"column:delivered_at"`
	ColdChainLogs  []ColdChainLog       `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ColdChainLog is a temperature reading captured while a shipment is in
// transit. Breach is derived against the configured threshold at write time.
type ColdChainLog struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID   uuid.UUID `gorm:"column:shipment_id;type:uuid;not null;index"`
	TemperatureC float64   `gorm:"column:temperature_c;type:numeric(5,2);not null"`
	HumidityPct  *float64  `gorm:"column:humidity_pct;type:numeric(5,2)"`
	Breach       bool      `gorm:"column:breach;not null;default:false"`
	RecordedAt   time.Time `gorm:"column:recorded_at;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
