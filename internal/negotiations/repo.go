package negotiations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists price negotiations.
type Repository struct {
	*repo.Base[models.Negotiation]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Negotiation](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByListing lists negotiations on a listing, newest first.
func (r *Repository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Negotiation, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("listing_id", listingID)},
		Sorts:   []repo.Sort{{Column: "created_at"}},
	})
	return rows, err
}

// FindOpenByBuyer lists a buyer's pending negotiations.
func (r *Repository) FindOpenByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Negotiation, error) {
	return r.FindWhere(ctx,
		repo.Eq("buyer_id", buyerID),
		repo.Eq("status", enums.NegotiationStatusPending.String()),
	)
}
