package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
)

// Repository persists listing reviews.
type Repository struct {
	*repo.Base[models.Review]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Review](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByListing lists reviews on a listing, newest first.
func (r *Repository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("listing_id", listingID)},
		Sorts:   []repo.Sort{{Column: "created_at"}},
	})
	return rows, err
}

// AverageRating computes the mean rating over a listing's reviews. Listings
// without reviews report zero with ok=false.
func (r *Repository) AverageRating(ctx context.Context, listingID uuid.UUID) (float64, bool, error) {
	var result struct {
		Avg   *float64
		Count int64
	}
	err := r.Select(ctx, &result,
		"SELECT AVG(rating) AS avg, COUNT(*) AS count FROM reviews WHERE listing_id = ?", listingID)
	if err != nil {
		return 0, false, err
	}
	if result.Count == 0 || result.Avg == nil {
		return 0, false, nil
	}
	return *result.Avg, true, nil
}
