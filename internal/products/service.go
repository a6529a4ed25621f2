package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// Service exposes catalog product management.
type Service interface {
	Create(ctx context.Context, caller auth.Principal, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Search(ctx context.Context, input SearchProductsInput) ([]models.Product, int64, error)
	Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a catalog entry.
type CreateProductInput struct {
	Name        string
	Description *string
	Category    enums.ProductCategory
	ImageURL    *string
	GTIN        string
}

// SearchProductsInput bundles catalog browse filters.
type SearchProductsInput struct {
	Category *enums.ProductCategory
	Query    string
	Page     *repo.Page
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Search(ctx context.Context, category *enums.ProductCategory, nameQuery string, page *repo.Page) ([]models.Product, int64, error)
	Create(ctx context.Context, record *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo productStore
	logg *logger.Logger
}

// NewService constructs the product service.
func NewService(repo productStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, caller auth.Principal, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product category %q", input.Category))
	}
	if strings.TrimSpace(input.GTIN) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gtin is required")
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		GTIN:        strings.TrimSpace(input.GTIN),
		CreatedByID: caller.ProfileID,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, db.Wrap(err, "insert product")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"product_id": created.ID, "gtin": created.GTIN})
	s.logg.Info(ctx, "product created")
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load product")
	}
	return product, nil
}

func (s *service) Search(ctx context.Context, input SearchProductsInput) ([]models.Product, int64, error) {
	if input.Category != nil && !input.Category.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product category %q", *input.Category))
	}
	rows, total, err := s.repo.Search(ctx, input.Category, strings.TrimSpace(input.Query), input.Page)
	if err != nil {
		return nil, 0, db.Wrap(err, "search products")
	}
	return rows, total, nil
}

// Delete removes a catalog entry. Rows referenced by listings are protected by
// the FK RESTRICT and surface as DEPENDENCY_ERROR.
func (s *service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return db.Wrap(err, "load product")
	}
	if err := auth.RequireOwner(caller, product.CreatedByID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.Wrap(err, "delete product")
	}

	ctx = s.logg.WithField(ctx, "product_id", id)
	s.logg.Info(ctx, "product deleted")
	return nil
}
