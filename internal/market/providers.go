package market

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

// PriceFeed supplies a wholesale reference price per category and region.
type PriceFeed interface {
	ReferencePrice(ctx context.Context, category enums.ProductCategory, regionCode string) (decimal.Decimal, error)
}

// WeatherOutlook is the forecast slice the market model consumes.
type WeatherOutlook struct {
	Condition  string
	RainfallMM float64
}

// WeatherProvider supplies a short-range forecast for a region.
type WeatherProvider interface {
	Outlook(ctx context.Context, regionCode string) (WeatherOutlook, error)
}

// QualityGrader maps an inspection score to a grade.
type QualityGrader interface {
	Grade(score float64) (enums.QualityGrade, error)
}

// DemoPriceFeed serves fixed per-category base prices, nudged per region.
// Stand-in for a commodity price API; development and tests only.
type DemoPriceFeed struct{}

var demoBasePrices = map[enums.ProductCategory]decimal.Decimal{
	enums.ProductCategoryGrain:     decimal.RequireFromString("0.42"),
	enums.ProductCategoryVegetable: decimal.RequireFromString("1.85"),
	enums.ProductCategoryFruit:     decimal.RequireFromString("2.60"),
	enums.ProductCategoryDairy:     decimal.RequireFromString("1.10"),
	enums.ProductCategoryLivestock: decimal.RequireFromString("4.75"),
	enums.ProductCategoryHerb:      decimal.RequireFromString("9.40"),
}

func (DemoPriceFeed) ReferencePrice(ctx context.Context, category enums.ProductCategory, regionCode string) (decimal.Decimal, error) {
	base, ok := demoBasePrices[category]
	if !ok {
		return decimal.Zero, fmt.Errorf("no reference price for category %q", category)
	}
	// region shifts the base by up to ±5%
	shift := decimal.NewFromInt(int64(regionOffset(regionCode, 5))).Div(decimal.NewFromInt(100))
	return base.Mul(decimal.NewFromInt(1).Add(shift)).Round(2), nil
}

// DemoWeatherProvider derives a deterministic outlook from the region code.
// Stand-in for a meteorological API; development and tests only.
type DemoWeatherProvider struct{}

func (DemoWeatherProvider) Outlook(ctx context.Context, regionCode string) (WeatherOutlook, error) {
	rain := float64(regionHash(regionCode) % 40)
	condition := "clear"
	switch {
	case rain > 25:
		condition = "storm"
	case rain > 10:
		condition = "rain"
	}
	return WeatherOutlook{Condition: condition, RainfallMM: rain}, nil
}

// DemoQualityGrader applies fixed score cutoffs.
type DemoQualityGrader struct{}

func (DemoQualityGrader) Grade(score float64) (enums.QualityGrade, error) {
	switch {
	case score < 0 || score > 100:
		return "", fmt.Errorf("score %v out of range", score)
	case score >= 90:
		return enums.QualityGradeA, nil
	case score >= 75:
		return enums.QualityGradeB, nil
	default:
		return enums.QualityGradeC, nil
	}
}

func regionHash(regionCode string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(regionCode))
	return h.Sum32()
}

// regionOffset maps a region code into [-spread, spread].
func regionOffset(regionCode string, spread int) int {
	if spread <= 0 {
		return 0
	}
	return int(regionHash(regionCode)%uint32(2*spread+1)) - spread
}
