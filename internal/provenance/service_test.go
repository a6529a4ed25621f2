package provenance

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubReferenceStore struct {
	rows []models.BlockchainTxReference
}

func (s *stubReferenceStore) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.BlockchainTxReference, error) {
	var out []models.BlockchainTxReference
	for _, row := range s.rows {
		if row.ListingID == listingID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubReferenceStore) Create(ctx context.Context, record *models.BlockchainTxReference) (*models.BlockchainTxReference, error) {
	s.rows = append(s.rows, *record)
	return record, nil
}

func testService(t *testing.T) (Service, *stubReferenceStore) {
	t.Helper()
	refs := &stubReferenceStore{}
	svc, err := NewService(NewDemoLedger(), refs,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, refs
}

func TestRegisterAnchorsReference(t *testing.T) {
	svc, refs := testService(t)
	listingID := uuid.New()

	ref, err := svc.RegisterListing(context.Background(), listingID, "farm-eastfield", "harvest batch 2026-08")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if ref.TxHash == "" {
		t.Fatal("expected a transaction hash")
	}
	if ref.EventType != EventRegistered {
		t.Fatalf("expected %q, got %q", EventRegistered, ref.EventType)
	}
	if len(refs.rows) != 1 {
		t.Fatalf("expected one persisted reference, got %d", len(refs.rows))
	}
}

func TestTransferExtendsTrace(t *testing.T) {
	svc, _ := testService(t)
	listingID := uuid.New()

	reg, err := svc.RegisterListing(context.Background(), listingID, "farm-eastfield", "harvest batch")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	xfer, err := svc.RecordTransfer(context.Background(), listingID, "farm-eastfield", "distributor-north")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if reg.TxHash == xfer.TxHash {
		t.Fatal("distinct events must get distinct hashes")
	}

	trail, err := svc.GetTrace(context.Background(), listingID)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 events, got %d", len(trail))
	}
	if trail[0].EventType != EventRegistered || trail[1].EventType != EventTransferred {
		t.Fatalf("expected registered then transferred, got %s, %s", trail[0].EventType, trail[1].EventType)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, refs := testService(t)

	_, err := svc.RegisterListing(context.Background(), uuid.Nil, "farm", "detail")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.RegisterListing(context.Background(), uuid.New(), "  ", "detail")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(refs.rows) != 0 {
		t.Fatalf("nothing must be persisted, got %d", len(refs.rows))
	}
}
