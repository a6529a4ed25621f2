package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// StatusTransitions is the payment state machine; both outcomes are terminal.
var StatusTransitions = lifecycle.Table[enums.PaymentStatus]{
	enums.PaymentStatusPending: {enums.PaymentStatusSucceeded, enums.PaymentStatusFailed},
}

// Service records and settles order payments. The charge itself happens on a
// hosted provider; only the opaque reference lands here.
type Service interface {
	Record(ctx context.Context, input RecordPaymentInput) (*models.Payment, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

// RecordPaymentInput holds the validated payload to record a pending payment.
type RecordPaymentInput struct {
	OrderID           uuid.UUID
	Amount            decimal.Decimal
	ExternalChargeRef string
}

type paymentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	Create(ctx context.Context, record *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Payment, error)
}

type service struct {
	repo paymentStore
	logg *logger.Logger
}

// NewService constructs the payment service.
func NewService(repo paymentStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, input RecordPaymentInput) (*models.Payment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(input.ExternalChargeRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external_charge_ref is required")
	}

	payment := &models.Payment{
		ID:                uuid.New(),
		OrderID:           input.OrderID,
		Amount:            input.Amount,
		Status:            enums.PaymentStatusPending,
		ExternalChargeRef: strings.TrimSpace(input.ExternalChargeRef),
	}

	// unique order_id makes the second payment for an order a DUPLICATE_ERROR
	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, db.Wrap(err, "insert payment")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"payment_id": created.ID, "order_id": created.OrderID})
	s.logg.Info(ctx, "payment recorded")
	return created, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, db.Wrap(err, "load payment")
	}
	return payment, nil
}

func (s *service) MarkSucceeded(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.settle(ctx, id, enums.PaymentStatusSucceeded)
}

func (s *service) MarkFailed(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.settle(ctx, id, enums.PaymentStatusFailed)
}

func (s *service) settle(ctx context.Context, id uuid.UUID, outcome enums.PaymentStatus) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load payment")
	}
	if err := StatusTransitions.Step(payment.Status, outcome); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{"status": outcome})
	if err != nil {
		return nil, db.Wrap(err, "settle payment")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"payment_id": id, "status": outcome})
	s.logg.Info(ctx, "payment settled")
	return updated, nil
}
