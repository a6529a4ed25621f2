package profiles

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubProfileStore struct {
	rows        map[uuid.UUID]*models.Profile
	createCalls int
	updateCalls int
	createErr   error
}

func (s *stubProfileStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubProfileStore) FindByRole(ctx context.Context, role enums.ProfileRole, page *repo.Page) ([]models.Profile, int64, error) {
	var out []models.Profile
	for _, row := range s.rows {
		if row.Role == role {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubProfileStore) FindVerifiedFarmers(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, row := range s.rows {
		if row.Role == enums.ProfileRoleFarmer && row.IsVerified {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubProfileStore) Create(ctx context.Context, record *models.Profile) (*models.Profile, error) {
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Profile{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubProfileStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Profile, error) {
	s.updateCalls++
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if name, ok := patch["full_name"].(string); ok {
		row.FullName = name
	}
	if verified, ok := patch["is_verified"].(bool); ok {
		row.IsVerified = verified
	}
	return row, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestCreateProfileValidationShortCircuits(t *testing.T) {
	store := &stubProfileStore{}
	svc, err := NewService(store, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateProfileInput{
		Role:         enums.ProfileRole("admin"),
		FullName:     "A Farmer",
		ContactEmail: "a@farm.test",
		LocationCode: "KE-001",
		PasswordHash: "hash",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("repository must not be called on validation failure, got %d calls", store.createCalls)
	}
}

func TestCreateProfileNormalizesEmail(t *testing.T) {
	store := &stubProfileStore{}
	svc, _ := NewService(store, testLogger())

	created, err := svc.Create(context.Background(), CreateProfileInput{
		Role:         enums.ProfileRoleFarmer,
		FullName:     "  A Farmer  ",
		ContactEmail: " A@Farm.Test ",
		LocationCode: "KE-001",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ContactEmail != "a@farm.test" {
		t.Fatalf("expected lowercased email, got %q", created.ContactEmail)
	}
	if created.FullName != "A Farmer" {
		t.Fatalf("expected trimmed name, got %q", created.FullName)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
}

func TestCreateProfileDuplicateEmailMapsToDuplicateError(t *testing.T) {
	store := &stubProfileStore{createErr: gorm.ErrDuplicatedKey}
	svc, _ := NewService(store, testLogger())

	_, err := svc.Create(context.Background(), CreateProfileInput{
		Role:         enums.ProfileRoleFarmer,
		FullName:     "A Farmer",
		ContactEmail: "a@farm.test",
		LocationCode: "KE-001",
		PasswordHash: "hash",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestUpdateProfileRejectsNonOwner(t *testing.T) {
	ownerID := uuid.New()
	store := &stubProfileStore{rows: map[uuid.UUID]*models.Profile{
		ownerID: {ID: ownerID, Role: enums.ProfileRoleFarmer, FullName: "Owner"},
	}}
	svc, _ := NewService(store, testLogger())

	name := "Hijacked"
	caller := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}
	_, err := svc.Update(context.Background(), caller, ownerID, UpdateProfileInput{FullName: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Fatalf("repository must not be called for non-owner, got %d calls", store.updateCalls)
	}
	if store.rows[ownerID].FullName != "Owner" {
		t.Fatal("record must be unchanged after rejected mutation")
	}
}

func TestUpdateProfileOwnerSucceeds(t *testing.T) {
	ownerID := uuid.New()
	store := &stubProfileStore{rows: map[uuid.UUID]*models.Profile{
		ownerID: {ID: ownerID, Role: enums.ProfileRoleFarmer, FullName: "Owner"},
	}}
	svc, _ := NewService(store, testLogger())

	name := "Renamed"
	caller := auth.Principal{ProfileID: ownerID, Role: enums.ProfileRoleFarmer}
	updated, err := svc.Update(context.Background(), caller, ownerID, UpdateProfileInput{FullName: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.FullName != "Renamed" {
		t.Fatalf("expected updated name, got %q", updated.FullName)
	}
}

func TestGetByIDMissingRowMapsToNotFound(t *testing.T) {
	svc, _ := NewService(&stubProfileStore{}, testLogger())

	_, err := svc.GetByID(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
