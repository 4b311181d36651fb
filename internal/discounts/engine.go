package discounts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/svillagran/tienda-backend/pkg/db/models"
	"github.com/svillagran/tienda-backend/pkg/types"
)

// SelectTier picks the active tier with the largest min_qty that the quantity
// still satisfies. Returns nil when no tier qualifies.
func SelectTier(qty int, tiers []models.DiscountTier) *models.DiscountTier {
	var selected *models.DiscountTier
	for _, tier := range tiers {
		if !tier.IsActive {
			continue
		}
		if tier.MinQty <= qty {
			if selected == nil || tier.MinQty > selected.MinQty {
				copy := tier
				selected = &copy
			}
		}
	}
	return selected
}

// Apply computes the discount snapshot for a line priced in whole CLP units.
// The amount is rounded to the nearest whole unit, half away from zero.
func Apply(unitPrice int64, qty int, tier *models.DiscountTier) (int64, *types.AppliedDiscount) {
	lineTotal := unitPrice * int64(qty)
	if tier == nil {
		return lineTotal, nil
	}

	amount := decimal.NewFromInt(lineTotal).
		Mul(tier.Percentage).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if amount < 0 {
		amount = 0
	}
	if amount > lineTotal {
		amount = lineTotal
	}

	label := tier.Label
	if label == "" {
		label = fmt.Sprintf("%s%% desde %d unidades", tier.Percentage.String(), tier.MinQty)
	}
	applied := &types.AppliedDiscount{
		Label:      label,
		MinQty:     tier.MinQty,
		Percentage: tier.Percentage.String(),
		Amount:     amount,
	}
	return lineTotal - amount, applied
}
