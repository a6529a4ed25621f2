package listings

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubListingStore struct {
	rows        map[uuid.UUID]*models.ProductListing
	createCalls int
	updateCalls int
}

func (s *stubListingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubListingStore) FindByIDWithProduct(ctx context.Context, id uuid.UUID) (*models.ProductListing, error) {
	return s.FindByID(ctx, id)
}

func (s *stubListingStore) FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.ProductListing, error) {
	var out []models.ProductListing
	for _, row := range s.rows {
		if row.FarmerID == farmerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubListingStore) FindAvailable(ctx context.Context, extra []repo.Filter, sorts []repo.Sort, page *repo.Page) ([]models.ProductListing, int64, error) {
	var out []models.ProductListing
	for _, row := range s.rows {
		if row.Status == enums.ListingStatusAvailable {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubListingStore) Create(ctx context.Context, record *models.ProductListing) (*models.ProductListing, error) {
	s.createCalls++
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.ProductListing{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubListingStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.ProductListing, error) {
	s.updateCalls++
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if qty, ok := patch["quantity_available"].(decimal.Decimal); ok {
		row.QuantityAvailable = qty
	}
	if status, ok := patch["status"].(enums.ListingStatus); ok {
		row.Status = status
	}
	if price, ok := patch["price_per_unit"].(decimal.Decimal); ok {
		row.PricePerUnit = price
	}
	return row, nil
}

func (s *stubListingStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.rows, id)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func seedListing(store *stubListingStore, farmerID uuid.UUID, qty string, status enums.ListingStatus) uuid.UUID {
	id := uuid.New()
	if store.rows == nil {
		store.rows = map[uuid.UUID]*models.ProductListing{}
	}
	store.rows[id] = &models.ProductListing{
		ID:                id,
		FarmerID:          farmerID,
		ProductID:         uuid.New(),
		QuantityAvailable: decimal.RequireFromString(qty),
		Unit:              enums.UnitKilogram,
		PricePerUnit:      decimal.RequireFromString("10.00"),
		Status:            status,
	}
	return id
}

func TestCreateListingRequiresFarmerRole(t *testing.T) {
	store := &stubListingStore{}
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleRetailer}
	_, err := svc.Create(context.Background(), caller, CreateListingInput{
		ProductID:         uuid.New(),
		QuantityAvailable: decimal.RequireFromString("5"),
		Unit:              enums.UnitKilogram,
		PricePerUnit:      decimal.RequireFromString("10.00"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatal("repository must not be called when role check fails")
	}
}

func TestCreateListingRejectsNonPositivePrice(t *testing.T) {
	store := &stubListingStore{}
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}
	_, err := svc.Create(context.Background(), caller, CreateListingInput{
		ProductID:         uuid.New(),
		QuantityAvailable: decimal.RequireFromString("5"),
		Unit:              enums.UnitKilogram,
		PricePerUnit:      decimal.Zero,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusIllegalTransition(t *testing.T) {
	farmerID := uuid.New()
	store := &stubListingStore{}
	id := seedListing(store, farmerID, "5", enums.ListingStatusDelisted)
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: farmerID, Role: enums.ProfileRoleFarmer}
	_, err := svc.UpdateStatus(context.Background(), caller, id, enums.ListingStatusSoldOut)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Fatal("status write must not run for a rejected transition")
	}
}

func TestUpdateStatusNonOwnerRejected(t *testing.T) {
	store := &stubListingStore{}
	id := seedListing(store, uuid.New(), "5", enums.ListingStatusAvailable)
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}
	_, err := svc.UpdateStatus(context.Background(), caller, id, enums.ListingStatusDelisted)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Fatal("status write must not run for non-owner")
	}
}

func TestAdjustQuantityToZeroFlipsSoldOut(t *testing.T) {
	farmerID := uuid.New()
	store := &stubListingStore{}
	id := seedListing(store, farmerID, "5", enums.ListingStatusAvailable)
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: farmerID, Role: enums.ProfileRoleFarmer}
	updated, err := svc.AdjustQuantity(context.Background(), caller, id, decimal.RequireFromString("-5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.ListingStatusSoldOut {
		t.Fatalf("expected sold_out after reaching zero, got %s", updated.Status)
	}

	// restock reopens the listing
	updated, err = svc.AdjustQuantity(context.Background(), caller, id, decimal.RequireFromString("3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.ListingStatusAvailable {
		t.Fatalf("expected available after restock, got %s", updated.Status)
	}
}

func TestAdjustQuantityBelowZeroRejected(t *testing.T) {
	farmerID := uuid.New()
	store := &stubListingStore{}
	id := seedListing(store, farmerID, "2", enums.ListingStatusAvailable)
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: farmerID, Role: enums.ProfileRoleFarmer}
	_, err := svc.AdjustQuantity(context.Background(), caller, id, decimal.RequireFromString("-3"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
