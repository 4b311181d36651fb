package cart

import (
	"github.com/google/uuid"

	"github.com/svillagran/tienda-backend/pkg/types"
)

// PricingKind tags the pricing variant of a cart line.
type PricingKind string

const (
	PricingUndiscounted PricingKind = "undiscounted"
	PricingDiscounted   PricingKind = "discounted"
)

// LinePricing is a tagged variant: either the plain price, or the original
// plus final price with the discount that produced it.
type LinePricing struct {
	Kind         PricingKind            `json:"kind"`
	UnitPrice    int64                  `json:"unit_price"`
	LineSubtotal int64                  `json:"line_subtotal"`
	Discount     *types.AppliedDiscount `json:"discount,omitempty"`
}

// LineView is one priced cart line as of the read.
type LineView struct {
	ProductID uuid.UUID   `json:"product_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Stock     int         `json:"stock"`
	ImageURL  *string     `json:"image_url,omitempty"`
	Pricing   LinePricing `json:"pricing"`
}

// View is the full cart with its recomputed subtotal.
type View struct {
	Lines    []LineView `json:"lines"`
	Subtotal int64      `json:"subtotal"`
}
