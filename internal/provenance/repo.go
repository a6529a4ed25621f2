package provenance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
)

// Repository persists on-chain transaction references.
type Repository struct {
	*repo.Base[models.BlockchainTxReference]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.BlockchainTxReference](db)}
}

// FindByListing lists a listing's anchored events, oldest first.
func (r *Repository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.BlockchainTxReference, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("listing_id", listingID)},
		Sorts:   []repo.Sort{{Column: "recorded_at", Ascending: true}},
	})
	return rows, err
}

// FindByTxHash resolves one anchored event by its transaction hash.
func (r *Repository) FindByTxHash(ctx context.Context, txHash string) (*models.BlockchainTxReference, error) {
	return r.FindOne(ctx, repo.Eq("tx_hash", txHash))
}
