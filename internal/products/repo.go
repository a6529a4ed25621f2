package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// Repository persists catalog products.
type Repository struct {
	*repo.Base[models.Product]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Product](db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// Search lists products filtered by optional category and name substring,
// newest first.
func (r *Repository) Search(ctx context.Context, category *enums.ProductCategory, nameQuery string, page *repo.Page) ([]models.Product, int64, error) {
	filters := []repo.Filter{}
	if category != nil {
		filters = append(filters, repo.Eq("category", category.String()))
	}
	if nameQuery != "" {
		filters = append(filters, repo.ILike("name", "%"+nameQuery+"%"))
	}
	return r.FindAll(ctx, repo.Options{
		Filters:   filters,
		Sorts:     []repo.Sort{{Column: "created_at"}},
		Page:      page,
		WithCount: true,
	})
}

// FindByGTIN loads the product with the given trade item number.
func (r *Repository) FindByGTIN(ctx context.Context, gtin string) (*models.Product, error) {
	return r.FindOne(ctx, repo.Eq("gtin", gtin))
}
