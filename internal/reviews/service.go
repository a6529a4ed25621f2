package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// Service exposes listing reviews. One review per (reviewer, listing) pair,
// backed by the composite unique index.
type Service interface {
	Create(ctx context.Context, caller auth.Principal, input CreateReviewInput) (*models.Review, error)
	GetByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error)
	AverageRating(ctx context.Context, listingID uuid.UUID) (float64, bool, error)
	Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error
}

// CreateReviewInput holds the validated payload to leave a review.
type CreateReviewInput struct {
	ListingID uuid.UUID
	Rating    int
	Comment   *string
}

type reviewStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error)
	AverageRating(ctx context.Context, listingID uuid.UUID) (float64, bool, error)
	Create(ctx context.Context, record *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo reviewStore
	logg *logger.Logger
}

// NewService constructs the review service.
func NewService(repo reviewStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, caller auth.Principal, input CreateReviewInput) (*models.Review, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing_id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5").
			WithDetails(map[string]any{"rating": input.Rating})
	}

	review := &models.Review{
		ID:         uuid.New(),
		ListingID:  input.ListingID,
		ReviewerID: caller.ProfileID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, db.Wrap(err, "insert review")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"review_id": created.ID, "listing_id": created.ListingID})
	s.logg.Info(ctx, "review created")
	return created, nil
}

func (s *service) GetByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error) {
	rows, err := s.repo.FindByListing(ctx, listingID)
	if err != nil {
		return nil, db.Wrap(err, "list reviews")
	}
	return rows, nil
}

func (s *service) AverageRating(ctx context.Context, listingID uuid.UUID) (float64, bool, error) {
	avg, ok, err := s.repo.AverageRating(ctx, listingID)
	if err != nil {
		return 0, false, db.Wrap(err, "compute average rating")
	}
	return avg, ok, nil
}

func (s *service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return db.Wrap(err, "load review")
	}
	if err := auth.RequireOwner(caller, review.ReviewerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.Wrap(err, "delete review")
	}
	return nil
}
