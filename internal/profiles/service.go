package profiles

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
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// Service exposes profile reads and owner-scoped mutations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByRole(ctx context.Context, role enums.ProfileRole, page *repo.Page) ([]models.Profile, int64, error)
	GetVerifiedFarmers(ctx context.Context) ([]models.Profile, error)
	Create(ctx context.Context, input CreateProfileInput) (*models.Profile, error)
	Update(ctx context.Context, caller auth.Principal, id uuid.UUID, input UpdateProfileInput) (*models.Profile, error)
	UpdateVerificationStatus(ctx context.Context, id uuid.UUID, verified bool) (*models.Profile, error)
}

// CreateProfileInput holds the validated payload to create a profile.
type CreateProfileInput struct {
	Role         enums.ProfileRole
	FullName     string
	CompanyName  *string
	ContactEmail string
	PasswordHash string
	PhoneNumber  *string
	Address      *string
	LocationCode string
}

// UpdateProfileInput holds optional mutation values for a profile.
type UpdateProfileInput struct {
	FullName    *string
	CompanyName *string
	PhoneNumber *string
	Address     *string
}

type profileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByRole(ctx context.Context, role enums.ProfileRole, page *repo.Page) ([]models.Profile, int64, error)
	FindVerifiedFarmers(ctx context.Context) ([]models.Profile, error)
	Create(ctx context.Context, record *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Profile, error)
}

type service struct {
	repo profileStore
	logg *logger.Logger
}

// NewService constructs the profile service.
func NewService(repo profileStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load profile")
	}
	return profile, nil
}

func (s *service) GetByRole(ctx context.Context, role enums.ProfileRole, page *repo.Page) ([]models.Profile, int64, error) {
	if !role.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid profile role %q", role))
	}
	rows, total, err := s.repo.FindByRole(ctx, role, page)
	if err != nil {
		return nil, 0, db.Wrap(err, "list profiles by role")
	}
	return rows, total, nil
}

func (s *service) GetVerifiedFarmers(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.repo.FindVerifiedFarmers(ctx)
	if err != nil {
		return nil, db.Wrap(err, "list verified farmers")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input CreateProfileInput) (*models.Profile, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid profile role %q", input.Role))
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name is required")
	}
	if strings.TrimSpace(input.ContactEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact_email is required")
	}
	if strings.TrimSpace(input.LocationCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location_code is required")
	}
	if input.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password hash is required")
	}

	profile := &models.Profile{
		ID:           uuid.New(),
		Role:         input.Role,
		FullName:     strings.TrimSpace(input.FullName),
		CompanyName:  input.CompanyName,
		ContactEmail: strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		PasswordHash: input.PasswordHash,
		PhoneNumber:  input.PhoneNumber,
		Address:      input.Address,
		LocationCode: strings.TrimSpace(input.LocationCode),
	}

	created, err := s.repo.Create(ctx, profile)
	if err != nil {
		return nil, db.Wrap(err, "insert profile")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"profile_id": created.ID, "role": created.Role})
	s.logg.Info(ctx, "profile created")
	return created, nil
}

func (s *service) Update(ctx context.Context, caller auth.Principal, id uuid.UUID, input UpdateProfileInput) (*models.Profile, error) {
	if err := auth.RequireOwner(caller, id); err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if input.FullName != nil {
		trimmed := strings.TrimSpace(*input.FullName)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "full_name cannot be empty")
		}
		patch["full_name"] = trimmed
	}
	if input.CompanyName != nil {
		patch["company_name"] = input.CompanyName
	}
	if input.PhoneNumber != nil {
		patch["phone_number"] = input.PhoneNumber
	}
	if input.Address != nil {
		patch["address"] = input.Address
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, db.Wrap(err, "update profile")
	}
	return updated, nil
}

func (s *service) UpdateVerificationStatus(ctx context.Context, id uuid.UUID, verified bool) (*models.Profile, error) {
	updated, err := s.repo.Update(ctx, id, map[string]any{"is_verified": verified})
	if err != nil {
		return nil, db.Wrap(err, "update profile verification")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"profile_id": id, "verified": verified})
	s.logg.Info(ctx, "profile verification updated")
	return updated, nil
}
