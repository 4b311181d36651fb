package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/svillagran/tienda-backend/api/responses"
	"github.com/svillagran/tienda-backend/api/validators"
	earningsvc "github.com/svillagran/tienda-backend/internal/earnings"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
)

type setPercentageRequest struct {
	Percentage string `json:"percentage" validate:"required"`
}

// AdminGetEarnings returns the commission total, current percentage and
// full history.
func AdminGetEarnings(svc earningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		summary, err := svc.GetEarnings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// AdminSetEarningsPercentage changes the commission rate for future orders.
// Already recorded entries keep the rate they were computed with.
func AdminSetEarningsPercentage(svc earningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		var payload setPercentageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pct, err := decimal.NewFromString(payload.Percentage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percentage"))
			return
		}

		if err := svc.SetPercentage(r.Context(), pct); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"percentage": pct.String()})
	}
}
