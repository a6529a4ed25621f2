package trust

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// CertificationTransitions governs review of submitted certifications.
// Verified certifications age out to expired; rejected is terminal.
var CertificationTransitions = lifecycle.Table[enums.CertificationStatus]{
	enums.CertificationStatusSubmitted: {
		enums.CertificationStatusVerified,
		enums.CertificationStatusRejected,
	},
	enums.CertificationStatusVerified: {enums.CertificationStatusExpired},
}

// Service exposes certifications and quality reports.
type Service interface {
	SubmitCertification(ctx context.Context, caller auth.Principal, input SubmitCertificationInput) (*models.Certification, error)
	GetCertificationsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Certification, error)
	FindExpiring(ctx context.Context, daysAhead int) ([]models.Certification, error)
	VerifyCertification(ctx context.Context, id uuid.UUID, outcome enums.CertificationStatus) (*models.Certification, error)

	FileQualityReport(ctx context.Context, input FileQualityReportInput) (*models.QualityReport, error)
	GetReportsByListing(ctx context.Context, listingID uuid.UUID) ([]models.QualityReport, error)
	AttachReportToListing(ctx context.Context, caller auth.Principal, reportID uuid.UUID) error
}

// SubmitCertificationInput holds the validated payload for a new certification.
type SubmitCertificationInput struct {
	Name         string
	IssuedBy     string
	DocumentURLs []string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// FileQualityReportInput holds the validated payload for a quality inspection.
type FileQualityReportInput struct {
	ListingID   uuid.UUID
	Grade       enums.QualityGrade
	Score       float64
	Defects     []string
	GradedBy    string
	InspectedAt time.Time
}

type certificationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Certification, error)
	FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Certification, error)
	FindExpiringBefore(ctx context.Context, cutoff, now time.Time) ([]models.Certification, error)
	Create(ctx context.Context, record *models.Certification) (*models.Certification, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Certification, error)
}

type qualityReportStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.QualityReport, error)
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.QualityReport, error)
	Create(ctx context.Context, record *models.QualityReport) (*models.QualityReport, error)
}

type listingStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.ProductListing, error)
}

type service struct {
	certs    certificationStore
	reports  qualityReportStore
	listings listingStore
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the trust service.
func NewService(certs certificationStore, reports qualityReportStore, listings listingStore, logg *logger.Logger) (Service, error) {
	if certs == nil {
		return nil, fmt.Errorf("certification repository required")
	}
	if reports == nil {
		return nil, fmt.Errorf("quality report repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{certs: certs, reports: reports, listings: listings, logg: logg, now: time.Now}, nil
}

func (s *service) SubmitCertification(ctx context.Context, caller auth.Principal, input SubmitCertificationInput) (*models.Certification, error) {
	if err := auth.RequireRole(caller, enums.ProfileRoleFarmer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.IssuedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issued_by is required")
	}
	if input.IssuedAt.IsZero() || input.ExpiresAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issued_at and expires_at are required")
	}
	if !input.ExpiresAt.After(input.IssuedAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be after issued_at")
	}

	cert := &models.Certification{
		ID:           uuid.New(),
		FarmerID:     caller.ProfileID,
		Name:         strings.TrimSpace(input.Name),
		IssuedBy:     strings.TrimSpace(input.IssuedBy),
		DocumentURLs: pq.StringArray(input.DocumentURLs),
		Status:       enums.CertificationStatusSubmitted,
		IssuedAt:     input.IssuedAt,
		ExpiresAt:    input.ExpiresAt,
	}

	created, err := s.certs.Create(ctx, cert)
	if err != nil {
		return nil, db.Wrap(err, "insert certification")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"certification_id": created.ID, "farmer_id": created.FarmerID})
	s.logg.Info(ctx, "certification submitted")
	return created, nil
}

func (s *service) GetCertificationsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Certification, error) {
	rows, err := s.certs.FindByFarmer(ctx, farmerID)
	if err != nil {
		return nil, db.Wrap(err, "list certifications")
	}
	return rows, nil
}

func (s *service) FindExpiring(ctx context.Context, daysAhead int) ([]models.Certification, error) {
	if daysAhead <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days_ahead must be positive")
	}
	now := s.now()
	cutoff := now.AddDate(0, 0, daysAhead)
	rows, err := s.certs.FindExpiringBefore(ctx, cutoff, now)
	if err != nil {
		return nil, db.Wrap(err, "list expiring certifications")
	}
	return rows, nil
}

// VerifyCertification settles a review: verified or rejected. Expiry is also
// applied through here so every status write goes through the table.
func (s *service) VerifyCertification(ctx context.Context, id uuid.UUID, outcome enums.CertificationStatus) (*models.Certification, error) {
	if !outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown certification status").
			WithDetails(map[string]any{"status": outcome})
	}
	cert, err := s.certs.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load certification")
	}
	if err := CertificationTransitions.Step(cert.Status, outcome); err != nil {
		return nil, err
	}

	updated, err := s.certs.Update(ctx, id, map[string]any{"status": outcome})
	if err != nil {
		return nil, db.Wrap(err, "update certification status")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"certification_id": id, "status": outcome})
	s.logg.Info(ctx, "certification reviewed")
	return updated, nil
}

func (s *service) FileQualityReport(ctx context.Context, input FileQualityReportInput) (*models.QualityReport, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing_id is required")
	}
	if !input.Grade.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown quality grade").
			WithDetails(map[string]any{"grade": input.Grade})
	}
	if input.Score < 0 || input.Score > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "score must be between 0 and 100").
			WithDetails(map[string]any{"score": input.Score})
	}
	if strings.TrimSpace(input.GradedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "graded_by is required")
	}

	if _, err := s.listings.FindByID(ctx, input.ListingID); err != nil {
		return nil, db.Wrap(err, "load listing for quality report")
	}

	inspected := input.InspectedAt
	if inspected.IsZero() {
		inspected = s.now()
	}
	report := &models.QualityReport{
		ID:          uuid.New(),
		ListingID:   input.ListingID,
		Grade:       input.Grade,
		Score:       input.Score,
		Defects:     pq.StringArray(input.Defects),
		GradedBy:    strings.TrimSpace(input.GradedBy),
		InspectedAt: inspected,
	}

	created, err := s.reports.Create(ctx, report)
	if err != nil {
		return nil, db.Wrap(err, "insert quality report")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"report_id":  created.ID,
		"listing_id": created.ListingID,
		"grade":      created.Grade,
	})
	s.logg.Info(ctx, "quality report filed")
	return created, nil
}

func (s *service) GetReportsByListing(ctx context.Context, listingID uuid.UUID) ([]models.QualityReport, error) {
	rows, err := s.reports.FindByListing(ctx, listingID)
	if err != nil {
		return nil, db.Wrap(err, "list quality reports")
	}
	return rows, nil
}

// AttachReportToListing pins a report to its listing so buyers see the latest
// grade. Only the listing's farmer may attach.
func (s *service) AttachReportToListing(ctx context.Context, caller auth.Principal, reportID uuid.UUID) error {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return db.Wrap(err, "load quality report")
	}
	listing, err := s.listings.FindByID(ctx, report.ListingID)
	if err != nil {
		return db.Wrap(err, "load listing for report")
	}
	if err := auth.RequireOwner(caller, listing.FarmerID); err != nil {
		return err
	}
	if _, err := s.listings.Update(ctx, listing.ID, map[string]any{"quality_report_id": report.ID}); err != nil {
		return db.Wrap(err, "attach quality report")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"listing_id": listing.ID, "report_id": report.ID})
	s.logg.Info(ctx, "quality report attached")
	return nil
}
