package logistics

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

type stubShipmentStore struct {
	rows map[uuid.UUID]*models.Shipment
}

func (s *stubShipmentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubShipmentStore) FindByIDWithLogs(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	return s.FindByID(ctx, id)
}

func (s *stubShipmentStore) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	for _, row := range s.rows {
		if row.OrderID == orderID {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipmentStore) Create(ctx context.Context, record *models.Shipment) (*models.Shipment, error) {
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Shipment{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubShipmentStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Shipment, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if status, ok := patch["status"].(enums.ShipmentStatus); ok {
		row.Status = status
	}
	if at, ok := patch["dispatched_at"].(*time.Time); ok {
		row.DispatchedAt = at
	}
	if at, ok := patch["delivered_at"].(*time.Time); ok {
		row.DeliveredAt = at
	}
	return row, nil
}

type stubColdChainStore struct {
	rows        []models.ColdChainLog
	createCalls int
}

func (s *stubColdChainStore) Create(ctx context.Context, record *models.ColdChainLog) (*models.ColdChainLog, error) {
	s.createCalls++
	s.rows = append(s.rows, *record)
	return record, nil
}

func (s *stubColdChainStore) FindBreaches(ctx context.Context, shipmentID uuid.UUID) ([]models.ColdChainLog, error) {
	var out []models.ColdChainLog
	for _, row := range s.rows {
		if row.ShipmentID == shipmentID && row.Breach {
			out = append(out, row)
		}
	}
	return out, nil
}

type stubInventoryStore struct {
	rows map[uuid.UUID]*models.RetailerInventory
}

func (s *stubInventoryStore) FindByRetailer(ctx context.Context, retailerID uuid.UUID) ([]models.RetailerInventory, error) {
	var out []models.RetailerInventory
	for _, row := range s.rows {
		if row.RetailerID == retailerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubInventoryStore) FindByRetailerAndProduct(ctx context.Context, retailerID, productID uuid.UUID) (*models.RetailerInventory, error) {
	for _, row := range s.rows {
		if row.RetailerID == retailerID && row.ProductID == productID {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubInventoryStore) Create(ctx context.Context, record *models.RetailerInventory) (*models.RetailerInventory, error) {
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.RetailerInventory{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubInventoryStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.RetailerInventory, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if qty, ok := patch["quantity"].(decimal.Decimal); ok {
		row.Quantity = qty
	}
	return row, nil
}

func testService(t *testing.T) (Service, *stubShipmentStore, *stubColdChainStore, *stubInventoryStore) {
	t.Helper()
	shipments := &stubShipmentStore{rows: map[uuid.UUID]*models.Shipment{}}
	coldChain := &stubColdChainStore{}
	inventory := &stubInventoryStore{rows: map[uuid.UUID]*models.RetailerInventory{}}
	svc, err := NewService(shipments, coldChain, inventory,
		config.ColdChainConfig{BreachThresholdCelsius: 8.0},
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, shipments, coldChain, inventory
}

func TestShipmentPipelineStampsTimestamps(t *testing.T) {
	svc, _, _, _ := testService(t)

	created, err := svc.CreateShipment(context.Background(), CreateShipmentInput{
		OrderID: uuid.New(),
		Carrier: "ColdTrans",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != enums.ShipmentStatusPreparing {
		t.Fatalf("expected preparing, got %s", created.Status)
	}

	moving, err := svc.UpdateShipmentStatus(context.Background(), created.ID, enums.ShipmentStatusInTransit)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if moving.DispatchedAt == nil {
		t.Fatal("expected dispatched_at to be stamped")
	}

	done, err := svc.UpdateShipmentStatus(context.Background(), created.ID, enums.ShipmentStatusDelivered)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if done.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be stamped")
	}

	_, err = svc.UpdateShipmentStatus(context.Background(), created.ID, enums.ShipmentStatusInTransit)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition after delivery, got %v", err)
	}
}

func TestShipmentCannotSkipTransit(t *testing.T) {
	svc, _, _, _ := testService(t)

	created, err := svc.CreateShipment(context.Background(), CreateShipmentInput{OrderID: uuid.New(), Carrier: "ColdTrans"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.UpdateShipmentStatus(context.Background(), created.ID, enums.ShipmentStatusDelivered)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestRecordReadingFlagsBreach(t *testing.T) {
	svc, shipments, _, _ := testService(t)

	id := uuid.New()
	shipments.rows[id] = &models.Shipment{ID: id, Status: enums.ShipmentStatusInTransit}

	ok, err := svc.RecordReading(context.Background(), RecordReadingInput{ShipmentID: id, TemperatureC: 4.5})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if ok.Breach {
		t.Fatal("4.5C must not be a breach at threshold 8.0")
	}

	hot, err := svc.RecordReading(context.Background(), RecordReadingInput{ShipmentID: id, TemperatureC: 9.2})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if !hot.Breach {
		t.Fatal("9.2C must be a breach at threshold 8.0")
	}

	breaches, err := svc.GetBreaches(context.Background(), id)
	if err != nil {
		t.Fatalf("breaches: %v", err)
	}
	if len(breaches) != 1 {
		t.Fatalf("expected one breach, got %d", len(breaches))
	}
}

func TestRecordReadingRequiresTransit(t *testing.T) {
	svc, shipments, coldChain, _ := testService(t)

	id := uuid.New()
	shipments.rows[id] = &models.Shipment{ID: id, Status: enums.ShipmentStatusPreparing}

	_, err := svc.RecordReading(context.Background(), RecordReadingInput{ShipmentID: id, TemperatureC: 4.0})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if coldChain.createCalls != 0 {
		t.Fatalf("reading must not be stored, got %d calls", coldChain.createCalls)
	}
}

func TestAdjustStockCreatesAndDrawsDown(t *testing.T) {
	svc, _, _, _ := testService(t)

	retailerID := uuid.New()
	productID := uuid.New()
	caller := auth.Principal{ProfileID: retailerID, Role: enums.ProfileRoleRetailer}

	row, err := svc.AdjustStock(context.Background(), caller, AdjustStockInput{
		RetailerID: retailerID,
		ProductID:  productID,
		Delta:      decimal.RequireFromString("120.000"),
		Unit:       enums.UnitKilogram,
	})
	if err != nil {
		t.Fatalf("initial receipt: %v", err)
	}
	if !row.Quantity.Equal(decimal.RequireFromString("120.000")) {
		t.Fatalf("expected 120, got %s", row.Quantity)
	}

	row, err = svc.AdjustStock(context.Background(), caller, AdjustStockInput{
		RetailerID: retailerID,
		ProductID:  productID,
		Delta:      decimal.RequireFromString("-45.500"),
	})
	if err != nil {
		t.Fatalf("draw down: %v", err)
	}
	if !row.Quantity.Equal(decimal.RequireFromString("74.500")) {
		t.Fatalf("expected 74.5, got %s", row.Quantity)
	}

	_, err = svc.AdjustStock(context.Background(), caller, AdjustStockInput{
		RetailerID: retailerID,
		ProductID:  productID,
		Delta:      decimal.RequireFromString("-100"),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative stock, got %v", err)
	}
}

func TestAdjustStockOwnershipGuard(t *testing.T) {
	svc, _, _, inventory := testService(t)

	stranger := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleRetailer}
	_, err := svc.AdjustStock(context.Background(), stranger, AdjustStockInput{
		RetailerID: uuid.New(),
		ProductID:  uuid.New(),
		Delta:      decimal.RequireFromString("10"),
		Unit:       enums.UnitKilogram,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if len(inventory.rows) != 0 {
		t.Fatalf("no rows must be written, got %d", len(inventory.rows))
	}
}
