package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// StatusTransitions is the order state machine. Cancellation is only possible
// before the order ships.
var StatusTransitions = lifecycle.Table[enums.OrderStatus]{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
}

// Service exposes order placement and lifecycle management.
type Service interface {
	Create(ctx context.Context, caller auth.Principal, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Order, error)
	GetByBuyer(ctx context.Context, caller auth.Principal, page *repo.Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Order, error)
}

// CreateOrderInput is the validated payload to place an order.
type CreateOrderInput struct {
	Items []OrderItemInput
}

// OrderItemInput requests a quantity of one listing.
type OrderItemInput struct {
	ListingID uuid.UUID
	Quantity  decimal.Decimal
}

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, page *repo.Page) ([]models.Order, int64, error)
	CreateInTx(ctx context.Context, tx *gorm.DB, order *models.Order) error
	LockListing(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ProductListing, error)
	DebitListing(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	UpdateStatusInTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.OrderStatus) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo orderStore
	tx   txRunner
	logg *logger.Logger
}

// NewService constructs the order service.
func NewService(repo orderStore, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Create places an order. Each item snapshots the listing price at purchase
// time and debits the listing quantity, all inside one transaction.
func (s *service) Create(ctx context.Context, caller auth.Principal, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	seen := map[uuid.UUID]bool{}
	for _, item := range input.Items {
		if item.ListingID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing_id is required")
		}
		if !item.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if seen[item.ListingID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate listing in order items").
				WithDetails(map[string]any{"listing_id": item.ListingID})
		}
		seen[item.ListingID] = true
	}

	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: caller.ProfileID,
		Status:  enums.OrderStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))

		for _, item := range input.Items {
			listing, err := s.repo.LockListing(ctx, tx, item.ListingID)
			if err != nil {
				return db.Wrap(err, "load listing for order")
			}
			if listing.Status != enums.ListingStatusAvailable {
				return pkgerrors.New(pkgerrors.CodeValidation, "listing is not available for purchase").
					WithDetails(map[string]any{"listing_id": listing.ID, "status": listing.Status})
			}
			if listing.FarmerID == caller.ProfileID {
				return pkgerrors.New(pkgerrors.CodeValidation, "cannot order your own listing")
			}
			if item.Quantity.GreaterThan(listing.QuantityAvailable) {
				return pkgerrors.New(pkgerrors.CodeValidation, "insufficient quantity available").
					WithDetails(map[string]any{
						"listing_id": listing.ID,
						"available":  listing.QuantityAvailable.String(),
						"requested":  item.Quantity.String(),
					})
			}

			remaining := listing.QuantityAvailable.Sub(item.Quantity)
			status := enums.ListingStatusAvailable
			if remaining.IsZero() {
				status = enums.ListingStatusSoldOut
			}
			if err := s.repo.DebitListing(ctx, tx, listing.ID, map[string]any{
				"quantity_available": remaining,
				"status":             status,
			}); err != nil {
				return db.Wrap(err, "debit listing quantity")
			}

			items = append(items, models.OrderItem{
				ID:              uuid.New(),
				OrderID:         order.ID,
				ListingID:       listing.ID,
				Quantity:        item.Quantity,
				PriceAtPurchase: listing.PricePerUnit,
			})
			total = total.Add(listing.PricePerUnit.Mul(item.Quantity))
		}

		order.Items = items
		order.TotalAmount = total
		if err := s.repo.CreateInTx(ctx, tx, order); err != nil {
			return db.Wrap(err, "insert order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"buyer_id": order.BuyerID,
		"total":    order.TotalAmount.String(),
	})
	s.logg.Info(ctx, "order placed")
	return order, nil
}

func (s *service) Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDWithItems(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load order")
	}
	if err := auth.RequireOwner(caller, order.BuyerID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) GetByBuyer(ctx context.Context, caller auth.Principal, page *repo.Page) ([]models.Order, int64, error) {
	rows, total, err := s.repo.FindByBuyer(ctx, caller.ProfileID, page)
	if err != nil {
		return nil, 0, db.Wrap(err, "list buyer orders")
	}
	return rows, total, nil
}

// UpdateStatus advances the order along the state machine. Called by the
// fulfilment side, so there is no buyer ownership check here.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load order")
	}
	if err := StatusTransitions.Step(order.Status, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, db.Wrap(err, "update order status")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": id, "from": order.Status, "to": next})
	s.logg.Info(ctx, "order status changed")
	return updated, nil
}

// Cancel is the buyer-facing path to cancelled; only the buyer may cancel.
// Every debited item quantity goes back on the listing in the same
// transaction that flips the order status.
func (s *service) Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDWithItems(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load order")
	}
	if err := auth.RequireOwner(caller, order.BuyerID); err != nil {
		return nil, err
	}
	if err := StatusTransitions.Step(order.Status, enums.OrderStatusCancelled); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range order.Items {
			listing, err := s.repo.LockListing(ctx, tx, item.ListingID)
			if err != nil {
				return db.Wrap(err, "load listing for restock")
			}
			restored := listing.QuantityAvailable.Add(item.Quantity)
			patch := map[string]any{"quantity_available": restored}
			// A listing this order sold out comes back on sale; a
			// delisted one stays delisted.
			if listing.Status == enums.ListingStatusSoldOut && restored.IsPositive() {
				patch["status"] = enums.ListingStatusAvailable
			}
			if err := s.repo.DebitListing(ctx, tx, listing.ID, patch); err != nil {
				return db.Wrap(err, "restore listing quantity")
			}
		}
		if err := s.repo.UpdateStatusInTx(ctx, tx, id, enums.OrderStatusCancelled); err != nil {
			return db.Wrap(err, "cancel order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	ctx = s.logg.WithField(ctx, "order_id", id)
	s.logg.Info(ctx, "order cancelled, stock restored")
	return order, nil
}
