package provenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// Event types anchored to the ledger.
const (
	EventRegistered  = "registered"
	EventTransferred = "transferred"
)

// Service anchors listing events to the provenance ledger and keeps the
// transaction references queryable locally.
type Service interface {
	RegisterListing(ctx context.Context, listingID uuid.UUID, actor, detail string) (*models.BlockchainTxReference, error)
	RecordTransfer(ctx context.Context, listingID uuid.UUID, from, to string) (*models.BlockchainTxReference, error)
	GetTrace(ctx context.Context, listingID uuid.UUID) ([]TraceEvent, error)
	GetReferences(ctx context.Context, listingID uuid.UUID) ([]models.BlockchainTxReference, error)
}

type referenceStore interface {
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.BlockchainTxReference, error)
	Create(ctx context.Context, record *models.BlockchainTxReference) (*models.BlockchainTxReference, error)
}

type service struct {
	ledger Ledger
	refs   referenceStore
	logg   *logger.Logger
	now    func() time.Time
}

// NewService constructs the provenance service.
func NewService(ledger Ledger, refs referenceStore, logg *logger.Logger) (Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{ledger: ledger, refs: refs, logg: logg, now: time.Now}, nil
}

func (s *service) RegisterListing(ctx context.Context, listingID uuid.UUID, actor, detail string) (*models.BlockchainTxReference, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing_id is required")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	txHash, err := s.ledger.RegisterProduct(ctx, listingID, actor, detail)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger registration failed")
	}
	return s.anchor(ctx, listingID, txHash, EventRegistered)
}

func (s *service) RecordTransfer(ctx context.Context, listingID uuid.UUID, from, to string) (*models.BlockchainTxReference, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing_id is required")
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required")
	}

	txHash, err := s.ledger.RecordTransfer(ctx, listingID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger transfer failed")
	}
	return s.anchor(ctx, listingID, txHash, EventTransferred)
}

func (s *service) GetTrace(ctx context.Context, listingID uuid.UUID) ([]TraceEvent, error) {
	trail, err := s.ledger.GetTrace(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger trace failed")
	}
	return trail, nil
}

func (s *service) GetReferences(ctx context.Context, listingID uuid.UUID) ([]models.BlockchainTxReference, error) {
	rows, err := s.refs.FindByListing(ctx, listingID)
	if err != nil {
		return nil, db.Wrap(err, "list transaction references")
	}
	return rows, nil
}

func (s *service) anchor(ctx context.Context, listingID uuid.UUID, txHash, eventType string) (*models.BlockchainTxReference, error) {
	ref := &models.BlockchainTxReference{
		ID:         uuid.New(),
		ListingID:  listingID,
		TxHash:     txHash,
		EventType:  eventType,
		RecordedAt: s.now(),
	}
	created, err := s.refs.Create(ctx, ref)
	if err != nil {
		return nil, db.Wrap(err, "insert transaction reference")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"listing_id": listingID,
		"tx_hash":    txHash,
		"event_type": eventType,
	})
	s.logg.Info(ctx, "provenance event anchored")
	return created, nil
}
