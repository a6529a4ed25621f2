package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmgatehq/farmgate-backend/api/middleware"
	"github.com/farmgatehq/farmgate-backend/api/responses"
	"github.com/farmgatehq/farmgate-backend/api/validators"
	"github.com/farmgatehq/farmgate-backend/internal/trust"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type certificationSubmitRequest struct {
	Name         string    `json:"name" validate:"required,min=2,max=160"`
	IssuedBy     string    `json:"issued_by" validate:"required,min=2,max=160"`
	DocumentURLs []string  `json:"document_urls,omitempty" validate:"omitempty,dive,url"`
	IssuedAt     time.Time `json:"issued_at" validate:"required"`
	ExpiresAt    time.Time `json:"expires_at" validate:"required"`
}

type certificationVerifyRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=verified rejected"`
}

type qualityReportRequest struct {
	ListingID   string     `json:"listing_id" validate:"required,uuid"`
	Grade       string     `json:"grade" validate:"required"`
	Score       float64    `json:"score" validate:"gte=0,lte=100"`
	Defects     []string   `json:"defects,omitempty"`
	GradedBy    string     `json:"graded_by" validate:"required"`
	InspectedAt *time.Time `json:"inspected_at,omitempty"`
}

// CertificationSubmit files a certification document for the calling farmer.
func CertificationSubmit(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
			return
		}

		caller, err := middleware.RequirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload certificationSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		certification, err := svc.SubmitCertification(r.Context(), caller, trust.SubmitCertificationInput{
			Name:         payload.Name,
			IssuedBy:     payload.IssuedBy,
			DocumentURLs: payload.DocumentURLs,
			IssuedAt:     payload.IssuedAt,
			ExpiresAt:    payload.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, certification)
	}
}

// CertificationByFarmer lists a farmer's certifications.
func CertificationByFarmer(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
			return
		}

		farmerID, err := validators.ParsePathUUID(chi.URLParam(r, "farmerID"), "farmerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.GetCertificationsByFarmer(r.Context(), farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// CertificationExpiring lists verified certifications lapsing within
// ?days=N (default 30).
func CertificationExpiring(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 30, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.FindExpiring(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// CertificationVerify records the review outcome for a submitted certification.
func CertificationVerify(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload certificationVerifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		certification, err := svc.VerifyCertification(r.Context(), id, enums.CertificationStatus(payload.Outcome))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, certification)
	}
}

// QualityReportFile records an inspection result against a listing.
func QualityReportFile(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
			return
		}

		var payload qualityReportRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := validators.ParsePathUUID(payload.ListingID, "listing_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := trust.FileQualityReportInput{
			ListingID: listingID,
			Grade:     enums.QualityGrade(payload.Grade),
			Score:     payload.Score,
			Defects:   payload.Defects,
			GradedBy:  payload.GradedBy,
		}
		if payload.InspectedAt != nil {
			input.InspectedAt = *payload.InspectedAt
		}

		report, err := svc.FileQualityReport(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}

// QualityReportByListing lists inspection results for a listing.
func QualityReportByListing(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
			return
		}

		listingID, err := validators.ParsePathUUID(chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.GetReportsByListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// QualityReportAttach pins a report to its listing so buyers see it first.
func QualityReportAttach(svc trust.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trust service unavailable"))
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

		if err := svc.AttachReportToListing(r.Context(), caller, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "attached"})
	}
}
