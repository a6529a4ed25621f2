package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists orders and their items.
type Repository struct {
	*repo.Base[models.Order]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Order](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByBuyer lists a buyer's orders, newest first.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, page *repo.Page) ([]models.Order, int64, error) {
	return r.FindAll(ctx, repo.Options{
		Filters:   []repo.Filter{repo.Eq("buyer_id", buyerID)},
		Sorts:     []repo.Sort{{Column: "created_at"}},
		Page:      page,
		WithCount: true,
	})
}

// FindByIDWithItems loads an order with items and payment preloaded.
func (r *Repository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row models.Order
	if err := r.DB(ctx).Preload("Items").Preload("Payment").First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateInTx inserts the order and its items inside the given transaction.
func (r *Repository) CreateInTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return r.WithTx(tx).DB(ctx).Create(order).Error
}

// LockListing loads a listing row under FOR UPDATE so concurrent orders
// cannot oversell it.
func (r *Repository) LockListing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ProductListing, error) {
	conn := r.WithTx(tx).DB(ctx)
	var listing models.ProductListing
	if err := conn.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// DebitListing writes the post-purchase quantity and status for a listing.
func (r *Repository) DebitListing(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch map[string]any) error {
	res := r.WithTx(tx).DB(ctx).Model(&models.ProductListing{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus writes the order status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// UpdateStatusInTx writes the order status inside the given transaction.
func (r *Repository) UpdateStatusInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.OrderStatus) error {
	res := r.WithTx(tx).DB(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
