package market

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubCache struct {
	values   map[string]string
	getCalls int
	setCalls int
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getCalls++
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.setCalls++
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value.(string)
	return nil
}

func (s *stubCache) CacheKey(parts ...string) string {
	return "fg:cache:" + strings.Join(parts, ":")
}

func testService(t *testing.T, cache snapshotCache) Service {
	t.Helper()
	svc, err := NewService(DemoPriceFeed{}, DemoWeatherProvider{}, DemoQualityGrader{}, cache,
		config.MarketConfig{SnapshotTTL: 10 * time.Minute},
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSnapshotIndexesClampedAndBandOrdered(t *testing.T) {
	svc := testService(t, nil)

	for _, region := range []string{"KE-NBO", "US-CA", "NL-ZH", "BR-SP", "IN-MH"} {
		snapshot, err := svc.GetSnapshot(context.Background(), enums.ProductCategoryVegetable, region)
		if err != nil {
			t.Fatalf("%s: %v", region, err)
		}
		if snapshot.DemandIndex < 0 || snapshot.DemandIndex > 100 {
			t.Fatalf("%s: demand index %d out of range", region, snapshot.DemandIndex)
		}
		if snapshot.SupplyIndex < 0 || snapshot.SupplyIndex > 100 {
			t.Fatalf("%s: supply index %d out of range", region, snapshot.SupplyIndex)
		}
		if snapshot.SuggestedMin.GreaterThan(snapshot.SuggestedMax) {
			t.Fatalf("%s: band inverted: %s > %s", region, snapshot.SuggestedMin, snapshot.SuggestedMax)
		}
		if !snapshot.SuggestedMin.IsPositive() {
			t.Fatalf("%s: suggested min must be positive, got %s", region, snapshot.SuggestedMin)
		}
	}
}

func TestSnapshotServedFromCache(t *testing.T) {
	cache := &stubCache{}
	svc := testService(t, cache)

	first, err := svc.GetSnapshot(context.Background(), enums.ProductCategoryFruit, "ke-nbo")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if cache.setCalls != 1 {
		t.Fatalf("expected one cache write, got %d", cache.setCalls)
	}

	second, err := svc.GetSnapshot(context.Background(), enums.ProductCategoryFruit, "KE-NBO")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if cache.setCalls != 1 {
		t.Fatalf("second read must hit the cache, got %d writes", cache.setCalls)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatal("cached snapshot must carry the original generation time")
	}
}

func TestSnapshotRejectsUnknownCategory(t *testing.T) {
	svc := testService(t, nil)

	_, err := svc.GetSnapshot(context.Background(), enums.ProductCategory("timber"), "KE-NBO")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGradeScoreCutoffs(t *testing.T) {
	svc := testService(t, nil)

	cases := []struct {
		score float64
		want  enums.QualityGrade
	}{
		{95, enums.QualityGradeA},
		{90, enums.QualityGradeA},
		{82, enums.QualityGradeB},
		{75, enums.QualityGradeB},
		{60, enums.QualityGradeC},
	}
	for _, tc := range cases {
		got, err := svc.GradeScore(tc.score)
		if err != nil {
			t.Fatalf("score %v: %v", tc.score, err)
		}
		if got != tc.want {
			t.Fatalf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}

	if _, err := svc.GradeScore(120); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
