package negotiations

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubNegotiationStore struct {
	rows map[uuid.UUID]*models.Negotiation
}

func (s *stubNegotiationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Negotiation, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubNegotiationStore) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Negotiation, error) {
	var out []models.Negotiation
	for _, row := range s.rows {
		if row.ListingID == listingID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubNegotiationStore) Create(ctx context.Context, record *models.Negotiation) (*models.Negotiation, error) {
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Negotiation{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubNegotiationStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Negotiation, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if status, ok := patch["status"].(enums.NegotiationStatus); ok {
		row.Status = status
	}
	if price, ok := patch["offered_price"].(decimal.Decimal); ok {
		row.OfferedPrice = price
	}
	if round, ok := patch["counter_round"].(int); ok {
		row.CounterRound = round
	}
	return row, nil
}

type stubListingReader struct {
	rows map[uuid.UUID]*models.ProductListing
}

func (s *stubListingReader) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

type fixture struct {
	svc      Service
	store    *stubNegotiationStore
	listings *stubListingReader
	farmerID uuid.UUID
	listing  *models.ProductListing
}

func newFixture(t *testing.T, maxRounds int) *fixture {
	t.Helper()
	farmerID := uuid.New()
	listing := &models.ProductListing{
		ID:           uuid.New(),
		FarmerID:     farmerID,
		PricePerUnit: decimal.RequireFromString("10.00"),
		Status:       enums.ListingStatusAvailable,
	}
	store := &stubNegotiationStore{rows: map[uuid.UUID]*models.Negotiation{}}
	listings := &stubListingReader{rows: map[uuid.UUID]*models.ProductListing{listing.ID: listing}}
	svc, err := NewService(store, listings, config.NegotiationConfig{
		MaxCounterRounds: maxRounds,
		DefaultExpiry:    72 * time.Hour,
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, store: store, listings: listings, farmerID: farmerID, listing: listing}
}

func TestOpenAppliesDefaultExpiry(t *testing.T) {
	f := newFixture(t, 3)
	buyer := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleRetailer}

	created, err := f.svc.Open(context.Background(), buyer, OpenNegotiationInput{
		ListingID:    f.listing.ID,
		OfferedPrice: decimal.RequireFromString("8.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ExpiresAt == nil {
		t.Fatal("expected default expiry to be applied")
	}
	if created.Status != enums.NegotiationStatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
}

func TestOpenOnOwnListingRejected(t *testing.T) {
	f := newFixture(t, 3)
	owner := auth.Principal{ProfileID: f.farmerID, Role: enums.ProfileRoleFarmer}

	_, err := f.svc.Open(context.Background(), owner, OpenNegotiationInput{
		ListingID:    f.listing.ID,
		OfferedPrice: decimal.RequireFromString("8.00"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCounterBeyondMaxRoundsRejected(t *testing.T) {
	f := newFixture(t, 2)
	farmer := auth.Principal{ProfileID: f.farmerID, Role: enums.ProfileRoleFarmer}

	id := uuid.New()
	f.store.rows[id] = &models.Negotiation{
		ID:           id,
		ListingID:    f.listing.ID,
		BuyerID:      uuid.New(),
		OfferedPrice: decimal.RequireFromString("8.00"),
		Status:       enums.NegotiationStatusPending,
		CounterRound: 0,
	}

	for round := 1; round <= 2; round++ {
		updated, err := f.svc.Counter(context.Background(), farmer, id, decimal.RequireFromString("9.00"))
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}
		if updated.CounterRound != round {
			t.Fatalf("expected round %d, got %d", round, updated.CounterRound)
		}
		if updated.Status != enums.NegotiationStatusPending {
			t.Fatalf("expected counter to loop back to pending, got %s", updated.Status)
		}
	}

	_, err := f.svc.Counter(context.Background(), farmer, id, decimal.RequireFromString("9.50"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error past max rounds, got %v", err)
	}
}

func TestAcceptExpiredOfferRejectedAndMarkedExpired(t *testing.T) {
	f := newFixture(t, 3)
	farmer := auth.Principal{ProfileID: f.farmerID, Role: enums.ProfileRoleFarmer}

	past := time.Now().Add(-time.Hour)
	id := uuid.New()
	f.store.rows[id] = &models.Negotiation{
		ID:           id,
		ListingID:    f.listing.ID,
		BuyerID:      uuid.New(),
		OfferedPrice: decimal.RequireFromString("8.00"),
		Status:       enums.NegotiationStatusPending,
		ExpiresAt:    &past,
	}

	_, err := f.svc.Accept(context.Background(), farmer, id)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition for expired offer, got %v", err)
	}
	if f.store.rows[id].Status != enums.NegotiationStatusExpired {
		t.Fatalf("expected negotiation marked expired, got %s", f.store.rows[id].Status)
	}
}

func TestAcceptByNonFarmerRejected(t *testing.T) {
	f := newFixture(t, 3)

	id := uuid.New()
	f.store.rows[id] = &models.Negotiation{
		ID:        id,
		ListingID: f.listing.ID,
		BuyerID:   uuid.New(),
		Status:    enums.NegotiationStatusPending,
	}

	stranger := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}
	_, err := f.svc.Accept(context.Background(), stranger, id)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestRejectedNegotiationIsTerminal(t *testing.T) {
	f := newFixture(t, 3)
	farmer := auth.Principal{ProfileID: f.farmerID, Role: enums.ProfileRoleFarmer}

	id := uuid.New()
	f.store.rows[id] = &models.Negotiation{
		ID:        id,
		ListingID: f.listing.ID,
		BuyerID:   uuid.New(),
		Status:    enums.NegotiationStatusPending,
	}

	if _, err := f.svc.Reject(context.Background(), farmer, id); err != nil {
		t.Fatalf("reject: %v", err)
	}
	_, err := f.svc.Accept(context.Background(), farmer, id)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}
