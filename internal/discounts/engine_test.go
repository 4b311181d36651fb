package discounts

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/svillagran/tienda-backend/pkg/db/models"
)

func tier(minQty int, pct int64, active bool) models.DiscountTier {
	return models.DiscountTier{
		MinQty:     minQty,
		Percentage: decimal.NewFromInt(pct),
		IsActive:   active,
	}
}

func TestSelectTier(t *testing.T) {
	t.Parallel()

	tiers := []models.DiscountTier{
		tier(3, 5, true),
		tier(5, 10, true),
		tier(10, 15, true),
	}

	if res := SelectTier(7, tiers); res == nil || res.MinQty != 5 {
		t.Fatalf("expected tier with min 5 for qty 7, got %+v", res)
	}
	if res := SelectTier(10, tiers); res == nil || res.MinQty != 10 {
		t.Fatalf("expected tier with min 10 for qty 10, got %+v", res)
	}
	if res := SelectTier(2, tiers); res != nil {
		t.Fatalf("expected no tier for qty 2, got %+v", res)
	}
}

func TestSelectTierSkipsInactive(t *testing.T) {
	t.Parallel()

	tiers := []models.DiscountTier{
		tier(3, 5, true),
		tier(5, 10, false),
	}
	if res := SelectTier(6, tiers); res == nil || res.MinQty != 3 {
		t.Fatalf("expected inactive tier skipped, got %+v", res)
	}
}

func TestSelectTierPrefersLargestQualifyingMin(t *testing.T) {
	t.Parallel()

	// The selection rule keys on min_qty, not on the percentage, so a
	// non-monotonic table can pick the smaller percentage.
	tiers := []models.DiscountTier{
		tier(3, 20, true),
		tier(5, 10, true),
	}
	if res := SelectTier(6, tiers); res == nil || res.MinQty != 5 {
		t.Fatalf("expected tier with min 5, got %+v", res)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	qualifying := tier(5, 10, true)

	total, applied := Apply(1000, 7, &qualifying)
	if total != 6300 {
		t.Fatalf("expected discounted total 6300, got %d", total)
	}
	if applied == nil || applied.Amount != 700 {
		t.Fatalf("expected discount amount 700, got %+v", applied)
	}
	if applied.MinQty != 5 || applied.Percentage != "10" {
		t.Fatalf("unexpected discount snapshot %+v", applied)
	}

	total, applied = Apply(1000, 7, nil)
	if total != 7000 || applied != nil {
		t.Fatalf("expected undiscounted total 7000, got %d %+v", total, applied)
	}
}

func TestApplyRoundsToWholeUnits(t *testing.T) {
	t.Parallel()

	half := models.DiscountTier{
		MinQty:     1,
		Percentage: decimal.RequireFromString("2.5"),
		IsActive:   true,
	}
	// 999 * 2.5% = 24.975, rounds to 25.
	total, applied := Apply(999, 1, &half)
	if applied == nil || applied.Amount != 25 {
		t.Fatalf("expected rounded amount 25, got %+v", applied)
	}
	if total != 974 {
		t.Fatalf("expected total 974, got %d", total)
	}
}
