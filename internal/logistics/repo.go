package logistics

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
)

// ShipmentRepository persists shipments and their cold-chain readings.
type ShipmentRepository struct {
	*repo.Base[models.Shipment]
}

// NewShipmentRepository builds a repository tied to the provided GORM DB.
func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{Base: repo.NewBase[models.Shipment](db)}
}

// FindByOrder returns the shipment for an order.
func (r *ShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	return r.FindOne(ctx, repo.Eq("order_id", orderID))
}

// FindByIDWithLogs loads a shipment with its cold-chain readings.
func (r *ShipmentRepository) FindByIDWithLogs(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var row models.Shipment
	if err := r.DB(ctx).Preload("ColdChainLogs").First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ColdChainLogRepository persists temperature readings.
type ColdChainLogRepository struct {
	*repo.Base[models.ColdChainLog]
}

// NewColdChainLogRepository builds a repository tied to the provided GORM DB.
func NewColdChainLogRepository(db *gorm.DB) *ColdChainLogRepository {
	return &ColdChainLogRepository{Base: repo.NewBase[models.ColdChainLog](db)}
}

// FindBreaches lists a shipment's breached readings, oldest first.
func (r *ColdChainLogRepository) FindBreaches(ctx context.Context, shipmentID uuid.UUID) ([]models.ColdChainLog, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{
			repo.Eq("shipment_id", shipmentID),
			repo.Is("breach", true),
		},
		Sorts: []repo.Sort{{Column: "recorded_at", Ascending: true}},
	})
	return rows, err
}

// InventoryRepository persists retailer stock rows.
type InventoryRepository struct {
	*repo.Base[models.RetailerInventory]
}

// NewInventoryRepository builds a repository tied to the provided GORM DB.
func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{Base: repo.NewBase[models.RetailerInventory](db)}
}

// FindByRetailer lists a retailer's stock rows.
func (r *InventoryRepository) FindByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.RetailerInventory, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("retailer_id", retailerID)},
		Sorts:   []repo.Sort{{Column: "updated_at"}},
	})
	return rows, err
}

// FindByRetailerAndProduct returns the stock row for one product.
func (r *InventoryRepository) FindByRetailerAndProduct(ctx context.Context, retailerID, productID uuid.UUID) (*models.RetailerInventory, error) {
	return r.FindOne(ctx,
		repo.Eq("retailer_id", retailerID),
		repo.Eq("product_id", productID),
	)
}
