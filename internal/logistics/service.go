package logistics

import (
	"context"
	"fmt"
	"strings"
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

// ShipmentTransitions is the delivery pipeline. No way back once dispatched.
var ShipmentTransitions = lifecycle.Table[enums.ShipmentStatus]{
	enums.ShipmentStatusPreparing: {enums.ShipmentStatusInTransit},
	enums.ShipmentStatusInTransit: {enums.ShipmentStatusDelivered},
}

// Service exposes shipments, cold-chain telemetry, and retailer stock.
type Service interface {
	CreateShipment(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error)
	GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, id uuid.UUID, next enums.ShipmentStatus) (*models.Shipment, error)

	RecordReading(ctx context.Context, input RecordReadingInput) (*models.ColdChainLog, error)
	GetBreaches(ctx context.Context, shipmentID uuid.UUID) ([]models.ColdChainLog, error)

	GetInventory(ctx context.Context, caller auth.Principal, retailerID uuid.UUID) ([]models.RetailerInventory, error)
	AdjustStock(ctx context.Context, caller auth.Principal, input AdjustStockInput) (*models.RetailerInventory, error)
}

// CreateShipmentInput holds the validated payload for a new shipment.
type CreateShipmentInput struct {
	OrderID        uuid.UUID
	Carrier        string
	TrackingNumber *string
}

// RecordReadingInput is one temperature sample from a carrier sensor.
type RecordReadingInput struct {
	ShipmentID   uuid.UUID
	TemperatureC float64
	HumidityPct  *float64
	RecordedAt   time.Time
}

// AdjustStockInput moves a retailer's stock for one product by a signed delta.
type AdjustStockInput struct {
	RetailerID uuid.UUID
	ProductID  uuid.UUID
	Delta      decimal.Decimal
	Unit       enums.UnitOfMeasure
}

type shipmentStore interface {
	FindByIDWithLogs(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	Create(ctx context.Context, record *models.Shipment) (*models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Shipment, error)
}

type coldChainStore interface {
	Create(ctx context.Context, record *models.ColdChainLog) (*models.ColdChainLog, error)
	FindBreaches(ctx context.Context, shipmentID uuid.UUID) ([]models.ColdChainLog, error)
}

type inventoryStore interface {
	FindByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.RetailerInventory, error)
	FindByRetailerAndProduct(ctx context.Context, retailerID, productID uuid.UUID) (*models.RetailerInventory, error)
	Create(ctx context.Context, record *models.RetailerInventory) (*models.RetailerInventory, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.RetailerInventory, error)
}

type service struct {
	shipments shipmentStore
	coldChain coldChainStore
	inventory inventoryStore
	cfg       config.ColdChainConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the logistics service.
func NewService(shipments shipmentStore, coldChain coldChainStore, inventory inventoryStore, cfg config.ColdChainConfig, logg *logger.Logger) (Service, error) {
	if shipments == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if coldChain == nil {
		return nil, fmt.Errorf("cold chain repository required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		shipments: shipments,
		coldChain: coldChain,
		inventory: inventory,
		cfg:       cfg,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) CreateShipment(ctx context.Context, input CreateShipmentInput) (*models.Shipment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	if strings.TrimSpace(input.Carrier) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier is required")
	}

	shipment := &models.Shipment{
		ID:             uuid.New(),
		OrderID:        input.OrderID,
		Carrier:        strings.TrimSpace(input.Carrier),
		TrackingNumber: input.TrackingNumber,
		Status:         enums.ShipmentStatusPreparing,
	}

	created, err := s.shipments.Create(ctx, shipment)
	if err != nil {
		return nil, db.Wrap(err, "insert shipment")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"shipment_id": created.ID, "order_id": created.OrderID})
	s.logg.Info(ctx, "shipment created")
	return created, nil
}

func (s *service) GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	row, err := s.shipments.FindByIDWithLogs(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load shipment")
	}
	return row, nil
}

func (s *service) GetShipmentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	row, err := s.shipments.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, db.Wrap(err, "load shipment by order")
	}
	return row, nil
}

// UpdateShipmentStatus advances the pipeline, stamping dispatch and delivery
// times as it goes.
func (s *service) UpdateShipmentStatus(ctx context.Context, id uuid.UUID, next enums.ShipmentStatus) (*models.Shipment, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipment status").
			WithDetails(map[string]any{"status": next})
	}
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load shipment")
	}
	if err := ShipmentTransitions.Step(shipment.Status, next); err != nil {
		return nil, err
	}

	patch := map[string]any{"status": next}
	now := s.now()
	switch next {
	case enums.ShipmentStatusInTransit:
		patch["dispatched_at"] = &now
	case enums.ShipmentStatusDelivered:
		patch["delivered_at"] = &now
	}

	updated, err := s.shipments.Update(ctx, id, patch)
	if err != nil {
		return nil, db.Wrap(err, "update shipment status")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"shipment_id": id, "status": next})
	s.logg.Info(ctx, "shipment status updated")
	return updated, nil
}

// RecordReading stores one sensor sample. Readings are only accepted while the
// shipment is moving, and a temperature above the configured threshold is
// flagged as a breach at write time.
func (s *service) RecordReading(ctx context.Context, input RecordReadingInput) (*models.ColdChainLog, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment_id is required")
	}
	shipment, err := s.shipments.FindByID(ctx, input.ShipmentID)
	if err != nil {
		return nil, db.Wrap(err, "load shipment for reading")
	}
	if shipment.Status != enums.ShipmentStatusInTransit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment is not in transit").
			WithDetails(map[string]any{"status": shipment.Status})
	}

	recorded := input.RecordedAt
	if recorded.IsZero() {
		recorded = s.now()
	}
	reading := &models.ColdChainLog{
		ID:           uuid.New(),
		ShipmentID:   input.ShipmentID,
		TemperatureC: input.TemperatureC,
		HumidityPct:  input.HumidityPct,
		Breach:       input.TemperatureC > s.cfg.BreachThresholdCelsius,
		RecordedAt:   recorded,
	}

	created, err := s.coldChain.Create(ctx, reading)
	if err != nil {
		return nil, db.Wrap(err, "insert cold chain reading")
	}

	if created.Breach {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"shipment_id":   created.ShipmentID,
			"temperature_c": created.TemperatureC,
			"threshold_c":   s.cfg.BreachThresholdCelsius,
		})
		s.logg.Warn(ctx, "cold chain breach recorded")
	}
	return created, nil
}

func (s *service) GetBreaches(ctx context.Context, shipmentID uuid.UUID) ([]models.ColdChainLog, error) {
	rows, err := s.coldChain.FindBreaches(ctx, shipmentID)
	if err != nil {
		return nil, db.Wrap(err, "list cold chain breaches")
	}
	return rows, nil
}

func (s *service) GetInventory(ctx context.Context, caller auth.Principal, retailerID uuid.UUID) ([]models.RetailerInventory, error) {
	if err := auth.RequireOwner(caller, retailerID); err != nil {
		return nil, err
	}
	rows, err := s.inventory.FindByRetailer(ctx, retailerID)
	if err != nil {
		return nil, db.Wrap(err, "list inventory")
	}
	return rows, nil
}

// AdjustStock applies a signed delta to the caller's stock row, creating the
// row on first receipt. Stock never goes negative.
func (s *service) AdjustStock(ctx context.Context, caller auth.Principal, input AdjustStockInput) (*models.RetailerInventory, error) {
	if err := auth.RequireOwner(caller, input.RetailerID); err != nil {
		return nil, err
	}
	if err := auth.RequireRole(caller, enums.ProfileRoleRetailer); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	row, err := s.inventory.FindByRetailerAndProduct(ctx, input.RetailerID, input.ProductID)
	if err != nil {
		wrapped := db.Wrap(err, "load inventory row")
		if pkgerrors.CodeOf(wrapped) != pkgerrors.CodeNotFound {
			return nil, wrapped
		}
		if input.Delta.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot draw down stock that does not exist")
		}
		if !input.Unit.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown unit of measure").
				WithDetails(map[string]any{"unit": input.Unit})
		}
		created, err := s.inventory.Create(ctx, &models.RetailerInventory{
			ID:         uuid.New(),
			RetailerID: input.RetailerID,
			ProductID:  input.ProductID,
			Quantity:   input.Delta,
			Unit:       input.Unit,
		})
		if err != nil {
			return nil, db.Wrap(err, "insert inventory row")
		}
		return created, nil
	}

	remaining := row.Quantity.Add(input.Delta)
	if remaining.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot go negative").
			WithDetails(map[string]any{"on_hand": row.Quantity.String(), "delta": input.Delta.String()})
	}

	updated, err := s.inventory.Update(ctx, row.ID, map[string]any{"quantity": remaining})
	if err != nil {
		return nil, db.Wrap(err, "update inventory row")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"retailer_id": input.RetailerID,
		"product_id":  input.ProductID,
		"delta":       input.Delta.String(),
	})
	s.logg.Info(ctx, "inventory adjusted")
	return updated, nil
}
