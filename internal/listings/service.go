package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// StatusTransitions is the allowed listing status machine. A delisted listing
// can return to available; sold_out flips back when stock is restored.
var StatusTransitions = lifecycle.Table[enums.ListingStatus]{
	enums.ListingStatusAvailable: {enums.ListingStatusSoldOut, enums.ListingStatusDelisted},
	enums.ListingStatusSoldOut:   {enums.ListingStatusAvailable, enums.ListingStatusDelisted},
	enums.ListingStatusDelisted:  {enums.ListingStatusAvailable},
}

// Service exposes farmer listing management and the public browse surface.
type Service interface {
	Create(ctx context.Context, caller auth.Principal, input CreateListingInput) (*models.ProductListing, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ProductListing, error)
	GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.ProductListing, error)
	ListAvailable(ctx context.Context, input BrowseInput) ([]models.ProductListing, int64, error)
	Update(ctx context.Context, caller auth.Principal, id uuid.UUID, input UpdateListingInput) (*models.ProductListing, error)
	Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error
	UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, next enums.ListingStatus) (*models.ProductListing, error)
	AdjustQuantity(ctx context.Context, caller auth.Principal, id uuid.UUID, delta decimal.Decimal) (*models.ProductListing, error)
}

// CreateListingInput holds the validated payload to create a listing.
type CreateListingInput struct {
	ProductID         uuid.UUID
	QuantityAvailable decimal.Decimal
	Unit              enums.UnitOfMeasure
	PricePerUnit      decimal.Decimal
	HarvestDate       *time.Time
}

// UpdateListingInput holds optional mutation values for a listing.
type UpdateListingInput struct {
	QuantityAvailable *decimal.Decimal
	PricePerUnit      *decimal.Decimal
	HarvestDate       *time.Time
}

// BrowseInput bundles the public browse filters.
type BrowseInput struct {
	Filters []repo.Filter
	Sorts   []repo.Sort
	Page    *repo.Page
}

type listingStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error)
	FindByIDWithProduct(ctx context.Context, id uuid.UUID) (*models.ProductListing, error)
	FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.ProductListing, error)
	FindAvailable(ctx context.Context, extra []repo.Filter, sorts []repo.Sort, page *repo.Page) ([]models.ProductListing, int64, error)
	Create(ctx context.Context, record *models.ProductListing) (*models.ProductListing, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.ProductListing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo listingStore
	logg *logger.Logger
}

// NewService constructs the listing service.
func NewService(repo listingStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, caller auth.Principal, input CreateListingInput) (*models.ProductListing, error) {
	if err := auth.RequireRole(caller, enums.ProfileRoleFarmer); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid unit %q", input.Unit))
	}
	if input.QuantityAvailable.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_available cannot be negative")
	}
	if !input.PricePerUnit.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_per_unit must be positive")
	}

	status := enums.ListingStatusAvailable
	if input.QuantityAvailable.IsZero() {
		status = enums.ListingStatusSoldOut
	}

	listing := &models.ProductListing{
		ID:                uuid.New(),
		FarmerID:          caller.ProfileID,
		ProductID:         input.ProductID,
		QuantityAvailable: input.QuantityAvailable,
		Unit:              input.Unit,
		PricePerUnit:      input.PricePerUnit,
		Status:            status,
		HarvestDate:       input.HarvestDate,
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, db.Wrap(err, "insert listing")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"listing_id": created.ID, "farmer_id": created.FarmerID})
	s.logg.Info(ctx, "listing created")
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ProductListing, error) {
	listing, err := s.repo.FindByIDWithProduct(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load listing")
	}
	return listing, nil
}

func (s *service) GetByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.ProductListing, error) {
	rows, err := s.repo.FindByFarmer(ctx, farmerID)
	if err != nil {
		return nil, db.Wrap(err, "list farmer listings")
	}
	return rows, nil
}

func (s *service) ListAvailable(ctx context.Context, input BrowseInput) ([]models.ProductListing, int64, error) {
	rows, total, err := s.repo.FindAvailable(ctx, input.Filters, input.Sorts, input.Page)
	if err != nil {
		return nil, 0, db.Wrap(err, "browse listings")
	}
	return rows, total, nil
}

func (s *service) Update(ctx context.Context, caller auth.Principal, id uuid.UUID, input UpdateListingInput) (*models.ProductListing, error) {
	listing, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if input.QuantityAvailable != nil {
		if input.QuantityAvailable.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_available cannot be negative")
		}
		patch["quantity_available"] = *input.QuantityAvailable
		patch["status"] = quantityStatus(listing.Status, *input.QuantityAvailable)
	}
	if input.PricePerUnit != nil {
		if !input.PricePerUnit.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_per_unit must be positive")
		}
		patch["price_per_unit"] = *input.PricePerUnit
	}
	if input.HarvestDate != nil {
		patch["harvest_date"] = *input.HarvestDate
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, db.Wrap(err, "update listing")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.Wrap(err, "delete listing")
	}

	ctx = s.logg.WithField(ctx, "listing_id", id)
	s.logg.Info(ctx, "listing deleted")
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, next enums.ListingStatus) (*models.ProductListing, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid listing status %q", next))
	}
	listing, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := StatusTransitions.Step(listing.Status, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{"status": next})
	if err != nil {
		return nil, db.Wrap(err, "update listing status")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"listing_id": id, "from": listing.Status, "to": next})
	s.logg.Info(ctx, "listing status changed")
	return updated, nil
}

// AdjustQuantity applies a signed delta to the available quantity. Reaching
// zero flips the listing to sold_out; restocking from zero reopens it.
func (s *service) AdjustQuantity(ctx context.Context, caller auth.Principal, id uuid.UUID, delta decimal.Decimal) (*models.ProductListing, error) {
	listing, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	next := listing.QuantityAvailable.Add(delta)
	if next.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity adjustment would go below zero").
			WithDetails(map[string]any{"available": listing.QuantityAvailable.String(), "delta": delta.String()})
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{
		"quantity_available": next,
		"status":             quantityStatus(listing.Status, next),
	})
	if err != nil {
		return nil, db.Wrap(err, "adjust listing quantity")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"listing_id": id, "delta": delta.String()})
	s.logg.Info(ctx, "listing quantity adjusted")
	return updated, nil
}

func (s *service) loadOwned(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.ProductListing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load listing")
	}
	if err := auth.RequireOwner(caller, listing.FarmerID); err != nil {
		return nil, err
	}
	return listing, nil
}

// quantityStatus derives the stock-driven status. Delisted listings stay
// delisted regardless of quantity.
func quantityStatus(current enums.ListingStatus, quantity decimal.Decimal) enums.ListingStatus {
	if current == enums.ListingStatusDelisted {
		return current
	}
	if quantity.IsZero() {
		return enums.ListingStatusSoldOut
	}
	return enums.ListingStatusAvailable
}
