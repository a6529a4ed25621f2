package negotiations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// StatusTransitions is the negotiation state machine. A counter loops the
// offer back to pending for the buyer to respond to.
var StatusTransitions = lifecycle.Table[enums.NegotiationStatus]{
	enums.NegotiationStatusPending: {
		enums.NegotiationStatusAccepted,
		enums.NegotiationStatusRejected,
		enums.NegotiationStatusCountered,
		enums.NegotiationStatusExpired,
	},
	enums.NegotiationStatusCountered: {enums.NegotiationStatusPending},
}

// Service exposes buyer/farmer price negotiation on listings.
type Service interface {
	Open(ctx context.Context, caller auth.Principal, input OpenNegotiationInput) (*models.Negotiation, error)
	GetByListing(ctx context.Context, listingID uuid.UUID) ([]models.Negotiation, error)
	Accept(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Negotiation, error)
	Reject(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Negotiation, error)
	Counter(ctx context.Context, caller auth.Principal, id uuid.UUID, price decimal.Decimal) (*models.Negotiation, error)
}

// OpenNegotiationInput holds the validated payload to open a negotiation.
type OpenNegotiationInput struct {
	ListingID    uuid.UUID
	OfferedPrice decimal.Decimal
	ExpiresAt    *time.Time
}

type negotiationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Negotiation, error)
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Negotiation, error)
	Create(ctx context.Context, record *models.Negotiation) (*models.Negotiation, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Negotiation, error)
}

type listingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error)
}

type service struct {
	repo     negotiationStore
	listings listingReader
	cfg      config.NegotiationConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the negotiation service.
func NewService(repo negotiationStore, listings listingReader, cfg config.NegotiationConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("negotiation repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if cfg.MaxCounterRounds <= 0 {
		return nil, fmt.Errorf("max counter rounds must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, listings: listings, cfg: cfg, logg: logg, now: time.Now}, nil
}

func (s *service) Open(ctx context.Context, caller auth.Principal, input OpenNegotiationInput) (*models.Negotiation, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing_id is required")
	}
	if !input.OfferedPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offered_price must be positive")
	}

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, db.Wrap(err, "load listing for negotiation")
	}
	if listing.Status != enums.ListingStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing is not open to offers").
			WithDetails(map[string]any{"listing_id": listing.ID, "status": listing.Status})
	}
	if listing.FarmerID == caller.ProfileID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot negotiate on your own listing")
	}

	expires := input.ExpiresAt
	if expires == nil && s.cfg.DefaultExpiry > 0 {
		deadline := s.now().Add(s.cfg.DefaultExpiry)
		expires = &deadline
	}

	negotiation := &models.Negotiation{
		ID:           uuid.New(),
		ListingID:    input.ListingID,
		BuyerID:      caller.ProfileID,
		OfferedPrice: input.OfferedPrice,
		Status:       enums.NegotiationStatusPending,
		ExpiresAt:    expires,
	}

	created, err := s.repo.Create(ctx, negotiation)
	if err != nil {
		return nil, db.Wrap(err, "insert negotiation")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"negotiation_id": created.ID,
		"listing_id":     created.ListingID,
		"offered_price":  created.OfferedPrice.String(),
	})
	s.logg.Info(ctx, "negotiation opened")
	return created, nil
}

func (s *service) GetByListing(ctx context.Context, listingID uuid.UUID) ([]models.Negotiation, error) {
	rows, err := s.repo.FindByListing(ctx, listingID)
	if err != nil {
		return nil, db.Wrap(err, "list negotiations")
	}
	return rows, nil
}

// Accept settles the negotiation at the offered price. Only the listing's
// farmer may accept, and an expired offer flips to expired instead.
func (s *service) Accept(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Negotiation, error) {
	negotiation, err := s.loadForFarmer(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if s.expired(negotiation) {
		if _, err := s.repo.Update(ctx, id, map[string]any{"status": enums.NegotiationStatusExpired}); err != nil {
			return nil, db.Wrap(err, "expire negotiation")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "offer has expired").
			WithDetails(map[string]any{"expires_at": negotiation.ExpiresAt})
	}

	if err := StatusTransitions.Step(negotiation.Status, enums.NegotiationStatusAccepted); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, map[string]any{"status": enums.NegotiationStatusAccepted})
	if err != nil {
		return nil, db.Wrap(err, "accept negotiation")
	}

	ctx = s.logg.WithField(ctx, "negotiation_id", id)
	s.logg.Info(ctx, "negotiation accepted")
	return updated, nil
}

func (s *service) Reject(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Negotiation, error) {
	negotiation, err := s.loadForFarmer(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := StatusTransitions.Step(negotiation.Status, enums.NegotiationStatusRejected); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{"status": enums.NegotiationStatusRejected})
	if err != nil {
		return nil, db.Wrap(err, "reject negotiation")
	}

	ctx = s.logg.WithField(ctx, "negotiation_id", id)
	s.logg.Info(ctx, "negotiation rejected")
	return updated, nil
}

// Counter replaces the offered price and hands the offer back to the buyer.
// Rounds are bounded by configuration.
func (s *service) Counter(ctx context.Context, caller auth.Principal, id uuid.UUID, price decimal.Decimal) (*models.Negotiation, error) {
	if !price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counter price must be positive")
	}
	negotiation, err := s.loadForFarmer(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := StatusTransitions.Step(negotiation.Status, enums.NegotiationStatusCountered); err != nil {
		return nil, err
	}
	if negotiation.CounterRound >= s.cfg.MaxCounterRounds {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maximum counter rounds reached").
			WithDetails(map[string]any{"round": negotiation.CounterRound, "max": s.cfg.MaxCounterRounds})
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{
		"offered_price": price,
		"counter_round": negotiation.CounterRound + 1,
		"status":        enums.NegotiationStatusPending,
	})
	if err != nil {
		return nil, db.Wrap(err, "counter negotiation")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"negotiation_id": id, "round": negotiation.CounterRound + 1})
	s.logg.Info(ctx, "negotiation countered")
	return updated, nil
}

func (s *service) loadForFarmer(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Negotiation, error) {
	negotiation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load negotiation")
	}
	listing, err := s.listings.FindByID(ctx, negotiation.ListingID)
	if err != nil {
		return nil, db.Wrap(err, "load negotiated listing")
	}
	if err := auth.RequireOwner(caller, listing.FarmerID); err != nil {
		return nil, err
	}
	return negotiation, nil
}

func (s *service) expired(n *models.Negotiation) bool {
	return n.ExpiresAt != nil && s.now().After(*n.ExpiresAt)
}
