package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists farm tasks.
type Repository struct {
	*repo.Base[models.FarmTask]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.FarmTask](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByFarmer lists a farmer's tasks ordered by due date.
func (r *Repository) FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.FarmTask, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("farmer_id", farmerID)},
		Sorts:   []repo.Sort{{Column: "due_date", Ascending: true}},
	})
	return rows, err
}

// FindByStatus lists a farmer's tasks in the given status.
func (r *Repository) FindByStatus(ctx context.Context, farmerID uuid.UUID, status enums.TaskStatus) ([]models.FarmTask, error) {
	return r.FindWhere(ctx,
		repo.Eq("farmer_id", farmerID),
		repo.Eq("status", status.String()),
	)
}

// FindOverdue lists tasks past due that are not completed.
func (r *Repository) FindOverdue(ctx context.Context, farmerID uuid.UUID, now time.Time) ([]models.FarmTask, error) {
	return r.FindWhere(ctx,
		repo.Eq("farmer_id", farmerID),
		repo.Lt("due_date", now),
		repo.Neq("status", enums.TaskStatusCompleted.String()),
	)
}
