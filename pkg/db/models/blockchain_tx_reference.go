package models

import (
	"time"

	"github.com/google/uuid"
)

// BlockchainTxReference pins a listing or order event to an external
// provenance ledger transaction. The ledger itself is behind the
// provenance.Ledger interface; only the reference is persisted here.
type BlockchainTxReference struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ListingID  uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index"`
	TxHash     string    `gorm:"column:tx_hash;not null;uniqueIndex:idx_chain_refs_tx_hash"`
	EventType  string    `gorm:"column:event_type;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
