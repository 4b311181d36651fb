package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/svillagran/tienda-backend/api/responses"
	"github.com/svillagran/tienda-backend/api/validators"
	discountsvc "github.com/svillagran/tienda-backend/internal/discounts"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
)

type upsertTierRequest struct {
	MinQty     int    `json:"min_qty" validate:"required,min=2"`
	Percentage string `json:"percentage" validate:"required"`
	Label      string `json:"label,omitempty" validate:"omitempty,max=80"`
}

// GetProductDiscounts lists the active tiers of one product, sorted by
// ascending minimum quantity.
func GetProductDiscounts(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tiers, err := svc.ListTiers(r.Context(), productID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"tiers": tiers})
	}
}

// AdminUpsertDiscountTier creates or replaces the tier at the given minimum
// quantity for a product.
func AdminUpsertDiscountTier(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload upsertTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		percentage, err := decimal.NewFromString(payload.Percentage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percentage"))
			return
		}

		tier, err := svc.UpsertTier(r.Context(), discountsvc.UpsertTierInput{
			ProductID:  productID,
			MinQty:     payload.MinQty,
			Percentage: percentage,
			Label:      validators.SanitizeString(payload.Label, 80),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tier)
	}
}

// AdminRemoveDiscountTier deactivates the tier identified by product and
// minimum quantity. The tier id is resolved from the product's tiers since
// callers address tiers by quantity, not by id.
func AdminRemoveDiscountTier(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		minQty, err := strconv.Atoi(chi.URLParam(r, "minQty"))
		if err != nil || minQty < 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid minimum quantity"))
			return
		}

		tiers, err := svc.ListTiers(r.Context(), productID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var tierID *uuid.UUID
		for i := range tiers {
			if tiers[i].MinQty == minQty {
				tierID = &tiers[i].ID
				break
			}
		}
		if tierID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "discount tier not found"))
			return
		}

		if err := svc.RemoveTier(r.Context(), *tierID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
