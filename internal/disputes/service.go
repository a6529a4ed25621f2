package disputes

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
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// StatusTransitions is the dispute triage pipeline. Resolved and rejected
// are terminal.
var StatusTransitions = lifecycle.Table[enums.DisputeStatus]{
	enums.DisputeStatusOpen:        {enums.DisputeStatusUnderReview},
	enums.DisputeStatusUnderReview: {enums.DisputeStatusResolved, enums.DisputeStatusRejected},
}

// Service exposes order disputes.
type Service interface {
	Raise(ctx context.Context, caller auth.Principal, input RaiseDisputeInput) (*models.Dispute, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error)
	GetOpen(ctx context.Context, page repo.Page) ([]models.Dispute, int64, error)
	BeginReview(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	Settle(ctx context.Context, id uuid.UUID, outcome enums.DisputeStatus, resolution string) (*models.Dispute, error)
}

// RaiseDisputeInput holds the validated payload for a new dispute.
type RaiseDisputeInput struct {
	OrderID uuid.UUID
	Reason  string
}

type disputeStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error)
	FindOpen(ctx context.Context, page repo.Page) ([]models.Dispute, int64, error)
	Create(ctx context.Context, record *models.Dispute) (*models.Dispute, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Dispute, error)
}

type orderReader interface {
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type listingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error)
}

type service struct {
	repo     disputeStore
	orders   orderReader
	listings listingReader
	logg     *logger.Logger
}

// NewService constructs the dispute service.
func NewService(repo disputeStore, orders orderReader, listings listingReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispute repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, orders: orders, listings: listings, logg: logg}, nil
}

// Raise opens a dispute on an order. Only a party to the order may raise:
// the buyer, or a farmer whose listing appears in the order's items.
func (s *service) Raise(ctx context.Context, caller auth.Principal, input RaiseDisputeInput) (*models.Dispute, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	order, err := s.orders.FindByIDWithItems(ctx, input.OrderID)
	if err != nil {
		return nil, db.Wrap(err, "load disputed order")
	}
	party, err := s.isParty(ctx, caller, order)
	if err != nil {
		return nil, err
	}
	if !party {
		return nil, pkgerrors.New(pkgerrors.CodePermissionDenied, "caller is not a party to this order")
	}

	dispute := &models.Dispute{
		ID:         uuid.New(),
		OrderID:    input.OrderID,
		RaisedByID: caller.ProfileID,
		Reason:     strings.TrimSpace(input.Reason),
		Status:     enums.DisputeStatusOpen,
	}

	created, err := s.repo.Create(ctx, dispute)
	if err != nil {
		return nil, db.Wrap(err, "insert dispute")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"dispute_id": created.ID, "order_id": created.OrderID})
	s.logg.Info(ctx, "dispute raised")
	return created, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	rows, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, db.Wrap(err, "list disputes")
	}
	return rows, nil
}

func (s *service) GetOpen(ctx context.Context, page repo.Page) ([]models.Dispute, int64, error) {
	rows, total, err := s.repo.FindOpen(ctx, page)
	if err != nil {
		return nil, 0, db.Wrap(err, "list open disputes")
	}
	return rows, total, nil
}

func (s *service) BeginReview(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load dispute")
	}
	if err := StatusTransitions.Step(dispute.Status, enums.DisputeStatusUnderReview); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, map[string]any{"status": enums.DisputeStatusUnderReview})
	if err != nil {
		return nil, db.Wrap(err, "begin dispute review")
	}
	return updated, nil
}

// Settle closes a dispute under review as resolved or rejected, recording the
// resolution text.
func (s *service) Settle(ctx context.Context, id uuid.UUID, outcome enums.DisputeStatus, resolution string) (*models.Dispute, error) {
	if outcome != enums.DisputeStatusResolved && outcome != enums.DisputeStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outcome must be resolved or rejected").
			WithDetails(map[string]any{"outcome": outcome})
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution is required")
	}

	dispute, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load dispute")
	}
	if err := StatusTransitions.Step(dispute.Status, outcome); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{
		"status":     outcome,
		"resolution": &resolution,
	})
	if err != nil {
		return nil, db.Wrap(err, "settle dispute")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"dispute_id": id, "status": outcome})
	s.logg.Info(ctx, "dispute settled")
	return updated, nil
}

func (s *service) isParty(ctx context.Context, caller auth.Principal, order *models.Order) (bool, error) {
	if order.BuyerID == caller.ProfileID {
		return true, nil
	}
	for _, item := range order.Items {
		listing, err := s.listings.FindByID(ctx, item.ListingID)
		if err != nil {
			return false, db.Wrap(err, "load order item listing")
		}
		if listing.FarmerID == caller.ProfileID {
			return true, nil
		}
	}
	return false, nil
}
