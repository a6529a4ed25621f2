package profiles

import (
	"context"

	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists profiles via the generic base plus a few bespoke finders.
type Repository struct {
	*repo.Base[models.Profile]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Profile](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// FindByEmail loads the profile with the given contact email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.FindOne(ctx, repo.Eq("contact_email", email))
}

// FindByRole lists profiles holding the given role, newest first.
func (r *Repository) FindByRole(ctx context.Context, role enums.ProfileRole, page *repo.Page) ([]models.Profile, int64, error) {
	return r.FindAll(ctx, repo.Options{
		Filters:   []repo.Filter{repo.Eq("role", role.String())},
		Sorts:     []repo.Sort{{Column: "created_at"}},
		Page:      page,
		WithCount: true,
	})
}

// FindVerifiedFarmers lists verified farmer profiles.
func (r *Repository) FindVerifiedFarmers(ctx context.Context) ([]models.Profile, error) {
	return r.FindWhere(ctx,
		repo.Eq("role", enums.ProfileRoleFarmer.String()),
		repo.Is("is_verified", true),
	)
}
