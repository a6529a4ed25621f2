package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
	redisclient "github.com/farmgatehq/farmgate-backend/pkg/redis"
)

const baseIndex = 50

// Snapshot is the computed market picture for one category in one region.
type Snapshot struct {
	Category       enums.ProductCategory `json:"category"`
	RegionCode     string                `json:"region_code"`
	DemandIndex    int                   `json:"demand_index"`
	SupplyIndex    int                   `json:"supply_index"`
	ReferencePrice decimal.Decimal       `json:"reference_price"`
	SuggestedMin   decimal.Decimal       `json:"suggested_min"`
	SuggestedMax   decimal.Decimal       `json:"suggested_max"`
	Outlook        string                `json:"outlook"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// Service exposes market intelligence for pricing decisions.
type Service interface {
	GetSnapshot(ctx context.Context, category enums.ProductCategory, regionCode string) (*Snapshot, error)
	GradeScore(score float64) (enums.QualityGrade, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

type service struct {
	prices  PriceFeed
	weather WeatherProvider
	grader  QualityGrader
	cache   snapshotCache
	cfg     config.MarketConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService constructs the market service. The cache is optional; without it
// every snapshot is computed fresh.
func NewService(prices PriceFeed, weather WeatherProvider, grader QualityGrader, cache snapshotCache, cfg config.MarketConfig, logg *logger.Logger) (Service, error) {
	if prices == nil {
		return nil, fmt.Errorf("price feed required")
	}
	if weather == nil {
		return nil, fmt.Errorf("weather provider required")
	}
	if grader == nil {
		return nil, fmt.Errorf("quality grader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		prices:  prices,
		weather: weather,
		grader:  grader,
		cache:   cache,
		cfg:     cfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) GetSnapshot(ctx context.Context, category enums.ProductCategory, regionCode string) (*Snapshot, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category").
			WithDetails(map[string]any{"category": category})
	}
	regionCode = strings.ToUpper(strings.TrimSpace(regionCode))
	if regionCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "region_code is required")
	}

	if cached := s.fromCache(ctx, category, regionCode); cached != nil {
		return cached, nil
	}

	snapshot, err := s.compute(ctx, category, regionCode)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, snapshot)
	return snapshot, nil
}

func (s *service) GradeScore(score float64) (enums.QualityGrade, error) {
	grade, err := s.grader.Grade(score)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "score must be between 0 and 100").
			WithDetails(map[string]any{"score": score})
	}
	return grade, nil
}

// compute builds the demand/supply picture: both indexes start at the neutral
// midpoint and move with regional offsets, with heavy rainfall depressing
// supply. Indexes are clamped to [0, 100] and the suggested band brackets the
// reference price shifted by the demand/supply imbalance.
func (s *service) compute(ctx context.Context, category enums.ProductCategory, regionCode string) (*Snapshot, error) {
	refPrice, err := s.prices.ReferencePrice(ctx, category, regionCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price feed unavailable")
	}
	outlook, err := s.weather.Outlook(ctx, regionCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "weather provider unavailable")
	}

	demand := clampIndex(baseIndex + regionOffset(regionCode+":"+string(category)+":demand", 20))
	supply := clampIndex(baseIndex + regionOffset(regionCode+":"+string(category)+":supply", 20) - int(outlook.RainfallMM/4))

	// imbalance in [-1, 1] shifts the midpoint by up to ±25%
	imbalance := decimal.NewFromInt(int64(demand - supply)).Div(decimal.NewFromInt(100))
	mid := refPrice.Mul(decimal.NewFromInt(1).Add(imbalance.Div(decimal.NewFromInt(4))))

	snapshot := &Snapshot{
		Category:       category,
		RegionCode:     regionCode,
		DemandIndex:    demand,
		SupplyIndex:    supply,
		ReferencePrice: refPrice,
		SuggestedMin:   mid.Mul(decimal.RequireFromString("0.95")).Round(2),
		SuggestedMax:   mid.Mul(decimal.RequireFromString("1.05")).Round(2),
		Outlook:        outlook.Condition,
		GeneratedAt:    s.now(),
	}
	return snapshot, nil
}

func (s *service) fromCache(ctx context.Context, category enums.ProductCategory, regionCode string) *Snapshot {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(category, regionCode))
	if err != nil {
		if !redisclient.IsMiss(err) {
			s.logg.Warn(ctx, "market snapshot cache read failed")
		}
		return nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

func (s *service) toCache(ctx context.Context, snapshot *Snapshot) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(snapshot.Category, snapshot.RegionCode), string(raw), s.cfg.SnapshotTTL); err != nil {
		s.logg.Warn(ctx, "market snapshot cache write failed")
	}
}

func (s *service) cacheKey(category enums.ProductCategory, regionCode string) string {
	return s.cache.CacheKey("market", string(category), regionCode)
}

func clampIndex(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
