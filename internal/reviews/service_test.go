package reviews

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubReviewStore struct {
	rows        map[uuid.UUID]*models.Review
	createCalls int
}

func (s *stubReviewStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubReviewStore) FindByListing(ctx context.Context, listingID uuid.UUID) ([]models.Review, error) {
	var out []models.Review
	for _, row := range s.rows {
		if row.ListingID == listingID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubReviewStore) AverageRating(ctx context.Context, listingID uuid.UUID) (float64, bool, error) {
	var sum, count int
	for _, row := range s.rows {
		if row.ListingID == listingID {
			sum += row.Rating
			count++
		}
	}
	if count == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(count), true, nil
}

func (s *stubReviewStore) Create(ctx context.Context, record *models.Review) (*models.Review, error) {
	s.createCalls++
	for _, row := range s.rows {
		if row.ListingID == record.ListingID && row.ReviewerID == record.ReviewerID {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Review{}
	}
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.rows, id)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestCreateReviewRatingOutOfRangeShortCircuits(t *testing.T) {
	store := &stubReviewStore{}
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: uuid.New()}
	_, err := svc.Create(context.Background(), caller, CreateReviewInput{
		ListingID: uuid.New(),
		Rating:    6,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("repository must not be called for rating=6, got %d calls", store.createCalls)
	}
}

func TestSecondReviewForSamePairIsDuplicate(t *testing.T) {
	store := &stubReviewStore{}
	svc, _ := NewService(store, testLogger())

	caller := auth.Principal{ProfileID: uuid.New()}
	listingID := uuid.New()

	if _, err := svc.Create(context.Background(), caller, CreateReviewInput{ListingID: listingID, Rating: 4}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := svc.Create(context.Background(), caller, CreateReviewInput{ListingID: listingID, Rating: 2})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestAverageRating(t *testing.T) {
	store := &stubReviewStore{}
	svc, _ := NewService(store, testLogger())
	listingID := uuid.New()

	for _, rating := range []int{5, 4, 3} {
		caller := auth.Principal{ProfileID: uuid.New()}
		if _, err := svc.Create(context.Background(), caller, CreateReviewInput{ListingID: listingID, Rating: rating}); err != nil {
			t.Fatalf("create rating %d: %v", rating, err)
		}
	}

	avg, ok, err := svc.AverageRating(context.Background(), listingID)
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if !ok || avg != 4.0 {
		t.Fatalf("expected avg 4.0, got %v (ok=%v)", avg, ok)
	}

	_, ok, err = svc.AverageRating(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("average empty: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for listing without reviews")
	}
}

func TestDeleteReviewOnlyByAuthor(t *testing.T) {
	store := &stubReviewStore{}
	svc, _ := NewService(store, testLogger())

	author := auth.Principal{ProfileID: uuid.New()}
	created, err := svc.Create(context.Background(), author, CreateReviewInput{ListingID: uuid.New(), Rating: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := auth.Principal{ProfileID: uuid.New()}
	if err := svc.Delete(context.Background(), stranger, created.ID); pkgerrors.CodeOf(err) != pkgerrors.CodePermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if err := svc.Delete(context.Background(), author, created.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
}
