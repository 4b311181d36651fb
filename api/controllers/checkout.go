package controllers

import (
	"net/http"

	"github.com/svillagran/tienda-backend/api/responses"
	checkoutsvc "github.com/svillagran/tienda-backend/internal/checkout"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
)

// Checkout snapshots the cart and creates a payment preference.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreatePreference(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentSuccess is the provider's success redirect target. It reconciles
// the payment and forwards the browser to the success view. A reconcile
// failure sends the user to the failure view instead of a JSON error; the
// caller here is a browser mid-redirect, not an API client.
func PaymentSuccess(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		query := r.URL.Query()
		paymentID := query.Get("payment_id")
		if paymentID == "" {
			paymentID = query.Get("collection_id")
		}

		input := checkoutsvc.SuccessCallbackInput{
			ExternalReference: query.Get("external_reference"),
			PaymentID:         paymentID,
		}

		ctx := logg.WithPaymentID(r.Context(), paymentID)

		redirect, err := svc.ReconcileSuccess(ctx, input)
		if err != nil {
			logg.Error(ctx, "payment.reconcile.failed", err)
			fallback := svc.ReconcileFailure(ctx, paymentID, reconcileFailureReason(err))
			http.Redirect(w, r, svc.FailureViewURL(fallback), http.StatusFound)
			return
		}

		if redirect.AlreadyReconciled {
			logg.Info(ctx, "payment.reconcile.replayed")
		}

		http.Redirect(w, r, svc.SuccessViewURL(*redirect), http.StatusFound)
	}
}

// PaymentFailure is the provider's failure redirect target.
func PaymentFailure(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		query := r.URL.Query()
		redirect := svc.ReconcileFailure(r.Context(), query.Get("payment_id"), query.Get("status_detail"))
		http.Redirect(w, r, svc.FailureViewURL(redirect), http.StatusFound)
	}
}

// PaymentPending is the provider's pending redirect target. Nothing is
// persisted; the order stays open until a success callback arrives.
func PaymentPending(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		query := r.URL.Query()
		redirect := svc.ReconcilePending(r.Context(), query.Get("external_reference"), query.Get("payment_id"))
		http.Redirect(w, r, svc.PendingViewURL(redirect), http.StatusFound)
	}
}

// reconcileFailureReason keeps user-facing reasons generic for internal
// faults while passing through validation and domain messages.
func reconcileFailureReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "payment could not be processed"
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeEmptyCart, pkgerrors.CodeInsufficientStock:
		return typed.Message()
	default:
		return "payment could not be processed"
	}
}
