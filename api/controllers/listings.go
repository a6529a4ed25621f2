package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/farmgatehq/farmgate-backend/api/middleware"
	"github.com/farmgatehq/farmgate-backend/api/responses"
	"github.com/farmgatehq/farmgate-backend/api/validators"
	"github.com/farmgatehq/farmgate-backend/internal/listings"
	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type listingCreateRequest struct {
	ProductID         string     `json:"product_id" validate:"required,uuid"`
	QuantityAvailable string     `json:"quantity_available" validate:"required"`
	Unit              string     `json:"unit" validate:"required"`
	PricePerUnit      string     `json:"price_per_unit" validate:"required"`
	HarvestDate       *time.Time `json:"harvest_date,omitempty"`
}

type listingUpdateRequest struct {
	QuantityAvailable *string    `json:"quantity_available,omitempty"`
	PricePerUnit      *string    `json:"price_per_unit,omitempty"`
	HarvestDate       *time.Time `json:"harvest_date,omitempty"`
}

type listingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type listingAdjustRequest struct {
	Delta string `json:"delta" validate:"required"`
}

func parseDecimalField(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid request payload").
			WithDetails(map[string]any{field: "must be a decimal number"})
	}
	return value, nil
}

// ListingCreate publishes sale inventory for one of the caller's products.
func ListingCreate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		caller, err := middleware.RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload listingCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := parseDecimalField(payload.QuantityAvailable, "quantity_available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := parseDecimalField(payload.PricePerUnit, "price_per_unit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), caller, listings.CreateListingInput{
			ProductID:         productID,
			QuantityAvailable: quantity,
			Unit:              enums.UnitOfMeasure(payload.Unit),
			PricePerUnit:      price,
			HarvestDate:       payload.HarvestDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// ListingGet returns one listing with its product preloaded.
func ListingGet(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListingByFarmer lists everything a farmer currently has posted.
func ListingByFarmer(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		farmerID, err := validators.ParsePathUUID(chi.URLParam(r, "farmerID"), "farmerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.GetByFarmer(r.Context(), farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// ListingBrowse is the public marketplace feed. Price bounds, unit and sort
// order come from the query string.
func ListingBrowse(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		page, err := validators.ParseQueryPage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		var filters []repo.Filter
		if raw := query.Get("min_price"); raw != "" {
			price, err := parseDecimalField(raw, "min_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters = append(filters, repo.Gte("price_per_unit", price))
		}
		if raw := query.Get("max_price"); raw != "" {
			price, err := parseDecimalField(raw, "max_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters = append(filters, repo.Lte("price_per_unit", price))
		}
		if raw := query.Get("unit"); raw != "" {
			filters = append(filters, repo.Eq("unit", raw))
		}

		var sorts []repo.Sort
		switch query.Get("sort") {
		case "price_asc":
			sorts = append(sorts, repo.Sort{Column: "price_per_unit", Ascending: true})
		case "price_desc":
			sorts = append(sorts, repo.Sort{Column: "price_per_unit"})
		case "harvest_date":
			sorts = append(sorts, repo.Sort{Column: "harvest_date"})
		}

		rows, total, err := svc.ListAvailable(r.Context(), listings.BrowseInput{
			Filters: filters,
			Sorts:   sorts,
			Page:    &page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"listings": rows,
			"total":    total,
		})
	}
}

// ListingUpdate mutates price, quantity or harvest date on a caller-owned listing.
func ListingUpdate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		caller, err := middleware.RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload listingUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := listings.UpdateListingInput{HarvestDate: payload.HarvestDate}
		if payload.QuantityAvailable != nil {
			quantity, err := parseDecimalField(*payload.QuantityAvailable, "quantity_available")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.QuantityAvailable = &quantity
		}
		if payload.PricePerUnit != nil {
			price, err := parseDecimalField(*payload.PricePerUnit, "price_per_unit")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.PricePerUnit = &price
		}

		listing, err := svc.Update(r.Context(), caller, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListingUpdateStatus drives the listing lifecycle (available, sold_out, delisted).
func ListingUpdateStatus(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		caller, err := middleware.RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload listingStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.UpdateStatus(r.Context(), caller, id, enums.ListingStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListingAdjustQuantity applies a signed delta to available quantity.
func ListingAdjustQuantity(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		caller, err := middleware.RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload listingAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delta, err := parseDecimalField(payload.Delta, "delta")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.AdjustQuantity(r.Context(), caller, id, delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListingDelete removes a caller-owned listing.
func ListingDelete(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		caller, err := middleware.RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), caller, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
