package products

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubProductStore struct {
	rows        map[uuid.UUID]*models.Product
	createCalls int
	deleteCalls int
	deleteErr   error
}

func (s *stubProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubProductStore) Search(ctx context.Context, category *enums.ProductCategory, nameQuery string, page *repo.Page) ([]models.Product, int64, error) {
	var out []models.Product
	for _, row := range s.rows {
		if category != nil && row.Category != *category {
			continue
		}
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (s *stubProductStore) Create(ctx context.Context, record *models.Product) (*models.Product, error) {
	s.createCalls++
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Product{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleteCalls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.rows, id)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestCreateProductRejectsEmptyName(t *testing.T) {
	store := &stubProductStore{}
	svc, _ := NewService(store, testLogger())

	_, err := svc.Create(context.Background(), auth.Principal{ProfileID: uuid.New()}, CreateProductInput{
		Name:     "   ",
		Category: enums.ProductCategoryGrain,
		GTIN:     "0123456789012",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("repository must not be called on validation failure, got %d calls", store.createCalls)
	}
}

func TestDeleteProductReferencedByListingIsDependencyError(t *testing.T) {
	ownerID := uuid.New()
	productID := uuid.New()
	store := &stubProductStore{
		rows: map[uuid.UUID]*models.Product{
			productID: {ID: productID, Name: "Maize", Category: enums.ProductCategoryGrain, CreatedByID: ownerID},
		},
		deleteErr: errors.New(`update or delete on table "products" violates foreign key constraint "fk_product_listings_product"`),
	}
	svc, _ := NewService(store, testLogger())

	err := svc.Delete(context.Background(), auth.Principal{ProfileID: ownerID}, productID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDeleteProductRejectsNonCreator(t *testing.T) {
	productID := uuid.New()
	store := &stubProductStore{
		rows: map[uuid.UUID]*models.Product{
			productID: {ID: productID, Name: "Maize", Category: enums.ProductCategoryGrain, CreatedByID: uuid.New()},
		},
	}
	svc, _ := NewService(store, testLogger())

	err := svc.Delete(context.Background(), auth.Principal{ProfileID: uuid.New()}, productID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if store.deleteCalls != 0 {
		t.Fatalf("delete must not run for non-creator, got %d calls", store.deleteCalls)
	}
}

func TestSearchRejectsUnknownCategory(t *testing.T) {
	svc, _ := NewService(&stubProductStore{}, testLogger())

	bad := enums.ProductCategory("cannabis")
	_, _, err := svc.Search(context.Background(), SearchProductsInput{Category: &bad})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
