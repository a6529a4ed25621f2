package enums

import "fmt"

// ListingStatus tracks whether a product listing can still be purchased.
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusSoldOut   ListingStatus = "sold_out"
	ListingStatusDelisted  ListingStatus = "delisted"
)

var validListingStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusSoldOut,
	ListingStatusDelisted,
}

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}

// UnitOfMeasure defines the quantity units a listing may be priced in.
type UnitOfMeasure string

const (
	UnitKilogram UnitOfMeasure = "kg"
	UnitTonne    UnitOfMeasure = "tonne"
	UnitCrate    UnitOfMeasure = "crate"
	UnitDozen    UnitOfMeasure = "dozen"
	UnitLitre    UnitOfMeasure = "litre"
	UnitBundle   UnitOfMeasure = "bundle"
)

var validUnitsOfMeasure = []UnitOfMeasure{
	UnitKilogram,
	UnitTonne,
	UnitCrate,
	UnitDozen,
	UnitLitre,
	UnitBundle,
}

// String implements fmt.Stringer.
func (u UnitOfMeasure) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitOfMeasure.
func (u UnitOfMeasure) IsValid() bool {
	for _, candidate := range validUnitsOfMeasure {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitOfMeasure converts raw input into a UnitOfMeasure.
func ParseUnitOfMeasure(value string) (UnitOfMeasure, error) {
	for _, candidate := range validUnitsOfMeasure {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit of measure %q", value)
}

// ProductCategory buckets catalog products for browse filters.
type ProductCategory string

const (
	ProductCategoryGrain     ProductCategory = "grain"
	ProductCategoryVegetable ProductCategory = "vegetable"
	ProductCategoryFruit     ProductCategory = "fruit"
	ProductCategoryDairy     ProductCategory = "dairy"
	ProductCategoryLivestock ProductCategory = "livestock"
	ProductCategoryHerb      ProductCategory = "herb"
)

var validProductCategories = []ProductCategory{
	ProductCategoryGrain,
	ProductCategoryVegetable,
	ProductCategoryFruit,
	ProductCategoryDairy,
	ProductCategoryLivestock,
	ProductCategoryHerb,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
