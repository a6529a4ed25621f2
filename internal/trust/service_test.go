package trust

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubCertStore struct {
	rows        map[uuid.UUID]*models.Certification
	createCalls int
}

func (s *stubCertStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Certification, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubCertStore) FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Certification, error) {
	var out []models.Certification
	for _, row := range s.rows {
		if row.FarmerID == farmerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubCertStore) FindExpiringBefore(ctx context.Context, cutoff, now time.Time) ([]models.Certification, error) {
	var out []models.Certification
	for _, row := range s.rows {
		if row.Status == enums.CertificationStatusVerified &&
			row.ExpiresAt.Before(cutoff) && !row.ExpiresAt.Before(now) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubCertStore) Create(ctx context.Context, record *models.Certification) (*models.Certification, error) {
	s.createCalls++
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Certification{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubCertStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Certification, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if status, ok := patch["status"].(enums.CertificationStatus); ok {
		row.Status = status
	}
	return row, nil
}

type stubReportStore struct {
	rows map[uuid.UUID]*models.QualityReport
}

func (s *stubReportStore) FindByID(ctx context.Context, id uuid.UUID) (*models.QualityReport, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubReportStore) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.QualityReport, error) {
	var out []models.QualityReport
	for _, row := range s.rows {
		if row.ListingID == listingID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubReportStore) Create(ctx context.Context, record *models.QualityReport) (*models.QualityReport, error) {
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.QualityReport{}
	}
	s.rows[record.ID] = record
	return record, nil
}

type stubListingStore struct {
	rows        map[uuid.UUID]*models.ProductListing
	updateCalls int
}

func (s *stubListingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductListing, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubListingStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.ProductListing, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.updateCalls++
	if reportID, ok := patch["quality_report_id"].(uuid.UUID); ok {
		row.QualityReportID = &reportID
	}
	return row, nil
}

func testService(t *testing.T) (Service, *stubCertStore, *stubReportStore, *stubListingStore) {
	t.Helper()
	certs := &stubCertStore{rows: map[uuid.UUID]*models.Certification{}}
	reports := &stubReportStore{rows: map[uuid.UUID]*models.QualityReport{}}
	listings := &stubListingStore{rows: map[uuid.UUID]*models.ProductListing{}}
	svc, err := NewService(certs, reports, listings,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, certs, reports, listings
}

func TestSubmitCertificationValidatesDates(t *testing.T) {
	svc, certs, _, _ := testService(t)
	farmer := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}

	issued := time.Now()
	_, err := svc.SubmitCertification(context.Background(), farmer, SubmitCertificationInput{
		Name:      "Organic",
		IssuedBy:  "USDA",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(-time.Hour),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if certs.createCalls != 0 {
		t.Fatalf("repository must not be called, got %d calls", certs.createCalls)
	}
}

func TestSubmitCertificationRequiresFarmerRole(t *testing.T) {
	svc, _, _, _ := testService(t)
	retailer := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleRetailer}

	_, err := svc.SubmitCertification(context.Background(), retailer, SubmitCertificationInput{
		Name:      "Organic",
		IssuedBy:  "USDA",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().AddDate(1, 0, 0),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCertificationReviewTransitions(t *testing.T) {
	svc, certs, _, _ := testService(t)
	farmer := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}

	cert, err := svc.SubmitCertification(context.Background(), farmer, SubmitCertificationInput{
		Name:      "GlobalG.A.P.",
		IssuedBy:  "Control Union",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	verified, err := svc.VerifyCertification(context.Background(), cert.ID, enums.CertificationStatusVerified)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Status != enums.CertificationStatusVerified {
		t.Fatalf("expected verified, got %s", verified.Status)
	}

	// verified can only age out, not be rejected after the fact
	_, err = svc.VerifyCertification(context.Background(), cert.ID, enums.CertificationStatusRejected)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if certs.rows[cert.ID].Status != enums.CertificationStatusVerified {
		t.Fatalf("status must be unchanged, got %s", certs.rows[cert.ID].Status)
	}
}

func TestFindExpiringWindow(t *testing.T) {
	svc, certs, _, _ := testService(t)
	farmerID := uuid.New()

	addCert := func(status enums.CertificationStatus, expiresIn time.Duration) uuid.UUID {
		id := uuid.New()
		certs.rows[id] = &models.Certification{
			ID:        id,
			FarmerID:  farmerID,
			Status:    status,
			ExpiresAt: time.Now().Add(expiresIn),
		}
		return id
	}

	soon := addCert(enums.CertificationStatusVerified, 48*time.Hour)
	addCert(enums.CertificationStatusVerified, 90*24*time.Hour) // far out
	addCert(enums.CertificationStatusSubmitted, 48*time.Hour)   // not yet verified
	addCert(enums.CertificationStatusVerified, -time.Hour)      // already lapsed

	rows, err := svc.FindExpiring(context.Background(), 30)
	if err != nil {
		t.Fatalf("find expiring: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != soon {
		t.Fatalf("expected only the soon-expiring certification, got %d rows", len(rows))
	}

	if _, err := svc.FindExpiring(context.Background(), 0); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero window, got %v", err)
	}
}

func TestFileQualityReportScoreBounds(t *testing.T) {
	svc, _, _, listings := testService(t)
	listingID := uuid.New()
	listings.rows[listingID] = &models.ProductListing{ID: listingID, FarmerID: uuid.New()}

	_, err := svc.FileQualityReport(context.Background(), FileQualityReportInput{
		ListingID: listingID,
		Grade:     enums.QualityGradeA,
		Score:     101,
		GradedBy:  "inspector-7",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAttachReportOnlyByListingFarmer(t *testing.T) {
	svc, _, reports, listings := testService(t)

	farmerID := uuid.New()
	listingID := uuid.New()
	listings.rows[listingID] = &models.ProductListing{ID: listingID, FarmerID: farmerID}

	report, err := svc.FileQualityReport(context.Background(), FileQualityReportInput{
		ListingID: listingID,
		Grade:     enums.QualityGradeB,
		Score:     82.5,
		Defects:   []string{"minor bruising"},
		GradedBy:  "inspector-7",
	})
	if err != nil {
		t.Fatalf("file report: %v", err)
	}
	if len(reports.rows) != 1 {
		t.Fatalf("expected one stored report, got %d", len(reports.rows))
	}

	stranger := auth.Principal{ProfileID: uuid.New(), Role: enums.ProfileRoleFarmer}
	if err := svc.AttachReportToListing(context.Background(), stranger, report.ID); pkgerrors.CodeOf(err) != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if listings.updateCalls != 0 {
		t.Fatalf("listing must be untouched, got %d updates", listings.updateCalls)
	}

	owner := auth.Principal{ProfileID: farmerID, Role: enums.ProfileRoleFarmer}
	if err := svc.AttachReportToListing(context.Background(), owner, report.ID); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := listings.rows[listingID].QualityReportID; got == nil || *got != report.ID {
		t.Fatal("expected quality_report_id set on listing")
	}
}
