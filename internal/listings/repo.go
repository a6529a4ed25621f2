package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists product listings.
type Repository struct {
	*repo.Base[models.ProductListing]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.ProductListing](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByFarmer lists a farmer's listings, newest first.
func (r *Repository) FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.ProductListing, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("farmer_id", farmerID)},
		Sorts:   []repo.Sort{{Column: "created_at"}},
	})
	return rows, err
}

// FindAvailable lists purchasable listings with optional filters.
func (r *Repository) FindAvailable(ctx context.Context, extra []repo.Filter, sorts []repo.Sort, page *repo.Page) ([]models.ProductListing, int64, error) {
	filters := append([]repo.Filter{
		repo.Eq("status", enums.ListingStatusAvailable.String()),
	}, extra...)
	if len(sorts) == 0 {
		sorts = []repo.Sort{{Column: "created_at"}}
	}
	return r.FindAll(ctx, repo.Options{
		Filters:   filters,
		Sorts:     sorts,
		Page:      page,
		WithCount: true,
	})
}

// FindByIDWithProduct loads a listing with its catalog product preloaded.
func (r *Repository) FindByIDWithProduct(ctx context.Context, id uuid.UUID) (*models.ProductListing, error) {
	var row models.ProductListing
	if err := r.DB(ctx).Preload("Product").First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
