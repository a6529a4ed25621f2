package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmgatehq/farmgate-backend/api/responses"
	"github.com/farmgatehq/farmgate-backend/api/validators"
	"github.com/farmgatehq/farmgate-backend/internal/payments"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type paymentRecordRequest struct {
	OrderID           string `json:"order_id" validate:"required,uuid"`
	Amount            string `json:"amount" validate:"required"`
	ExternalChargeRef string `json:"external_charge_ref" validate:"required,min=4,max=120"`
}

// PaymentRecord attaches a pending payment to an order.
func PaymentRecord(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload paymentRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(payload.OrderID, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := parseDecimalField(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Record(r.Context(), payments.RecordPaymentInput{
			OrderID:           orderID,
			Amount:            amount,
			ExternalChargeRef: payload.ExternalChargeRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// PaymentByOrder returns the payment record tied to an order.
func PaymentByOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.GetByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

// PaymentMarkSucceeded settles a pending payment and confirms its order.
func PaymentMarkSucceeded(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentSettle(svc, logg, true)
}

// PaymentMarkFailed marks a pending payment as failed.
func PaymentMarkFailed(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentSettle(svc, logg, false)
}

func paymentSettle(svc payments.Service, logg *logger.Logger, succeeded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payment any
		if succeeded {
			payment, err = svc.MarkSucceeded(r.Context(), id)
		} else {
			payment, err = svc.MarkFailed(r.Context(), id)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}
