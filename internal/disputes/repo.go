package disputes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists order disputes.
type Repository struct {
	*repo.Base[models.Dispute]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Dispute](db)}
}

// FindByOrder lists disputes raised on an order.
func (r *Repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("order_id", orderID)},
		Sorts:   []repo.Sort{{Column: "created_at"}},
	})
	return rows, err
}

// FindOpen lists disputes awaiting triage, oldest first.
func (r *Repository) FindOpen(ctx context.Context, page repo.Page) ([]models.Dispute, int64, error) {
	return r.FindAll(ctx, repo.Options{
		Filters:   []repo.Filter{repo.Eq("status", enums.DisputeStatusOpen)},
		Sorts:     []repo.Sort{{Column: "created_at", Ascending: true}},
		Page:      &page,
		WithCount: true,
	})
}
