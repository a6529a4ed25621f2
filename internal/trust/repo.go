package trust

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// CertificationRepository persists farmer certifications.
type CertificationRepository struct {
	*repo.Base[models.Certification]
}

// NewCertificationRepository builds a repository tied to the provided GORM DB.
func NewCertificationRepository(db *gorm.DB) *CertificationRepository {
	return &CertificationRepository{Base: repo.NewBase[models.Certification](db)}
}

// FindByFarmer lists a farmer's certifications, newest issue first.
func (r *CertificationRepository) FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Certification, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("farmer_id", farmerID)},
		Sorts:   []repo.Sort{{Column: "issued_at"}},
	})
	return rows, err
}

// FindExpiringBefore lists verified certifications whose expiry falls before
// the cutoff. Already-expired rows are excluded.
func (r *CertificationRepository) FindExpiringBefore(ctx context.Context, cutoff, now time.Time) ([]models.Certification, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{
			repo.Eq("status", enums.CertificationStatusVerified),
			repo.Lt("expires_at", cutoff),
			repo.Gte("expires_at", now),
		},
		Sorts: []repo.Sort{{Column: "expires_at", Ascending: true}},
	})
	return rows, err
}

// QualityReportRepository persists listing quality reports.
type QualityReportRepository struct {
	*repo.Base[models.QualityReport]
}

// NewQualityReportRepository builds a repository tied to the provided GORM DB.
func NewQualityReportRepository(db *gorm.DB) *QualityReportRepository {
	return &QualityReportRepository{Base: repo.NewBase[models.QualityReport](db)}
}

// FindByListing lists reports filed against a listing, latest inspection first.
func (r *QualityReportRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.QualityReport, error) {
	rows, _, err := r.FindAll(ctx, repo.Options{
		Filters: []repo.Filter{repo.Eq("listing_id", listingID)},
		Sorts:   []repo.Sort{{Column: "inspected_at"}},
	})
	return rows, err
}
