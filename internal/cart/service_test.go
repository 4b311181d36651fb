package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	productsrepo "github.com/svillagran/tienda-backend/internal/products"
	"github.com/svillagran/tienda-backend/pkg/db/models"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
)

func newCartService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db := setupCartTestDB(t)
	svc, err := NewService(NewRepository(db), productsrepo.NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func TestPriceLines_tierScenario(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	product := &models.Product{
		ID:       productID,
		Name:     "Yerba Premium",
		Price:    1000,
		Stock:    50,
		IsActive: true,
		DiscountTiers: []models.DiscountTier{
			{ProductID: productID, MinQty: 3, Percentage: decimal.NewFromInt(5), IsActive: true},
			{ProductID: productID, MinQty: 5, Percentage: decimal.NewFromInt(10), IsActive: true},
			{ProductID: productID, MinQty: 10, Percentage: decimal.NewFromInt(15), IsActive: true},
		},
	}
	lines := []models.CartLine{{UserID: uuid.New(), ProductID: productID, Quantity: 7, Product: product}}

	view := PriceLines(lines)
	require.Len(t, view.Lines, 1)

	pricing := view.Lines[0].Pricing
	assert.Equal(t, PricingDiscounted, pricing.Kind)
	require.NotNil(t, pricing.Discount)
	assert.Equal(t, 5, pricing.Discount.MinQty)
	assert.Equal(t, "10", pricing.Discount.Percentage)
	// 7 * 1000 minus 10% = 6300.
	assert.Equal(t, int64(6300), pricing.LineSubtotal)
	assert.Equal(t, int64(6300), view.Subtotal)
}

func TestPriceLines_undiscountedBelowLowestTier(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	product := &models.Product{
		ID:       productID,
		Name:     "Yerba Premium",
		Price:    1000,
		IsActive: true,
		DiscountTiers: []models.DiscountTier{
			{ProductID: productID, MinQty: 3, Percentage: decimal.NewFromInt(5), IsActive: true},
		},
	}
	lines := []models.CartLine{{UserID: uuid.New(), ProductID: productID, Quantity: 2, Product: product}}

	view := PriceLines(lines)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, PricingUndiscounted, view.Lines[0].Pricing.Kind)
	assert.Nil(t, view.Lines[0].Pricing.Discount)
	assert.Equal(t, int64(2000), view.Subtotal)
}

func TestServiceAddItem_readTimeRepricing(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Yerba", 1000, 100)
	seedTier(t, db, product.ID, 3, 5)
	seedTier(t, db, product.ID, 5, 10)

	view, err := svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, PricingUndiscounted, view.Lines[0].Pricing.Kind)
	assert.Equal(t, int64(2000), view.Subtotal)

	// A later add retroactively reprices the whole line.
	view, err = svc.AddItem(ctx, userID, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)
	assert.Equal(t, PricingDiscounted, view.Lines[0].Pricing.Kind)
	assert.Equal(t, int64(4500), view.Subtotal)
}

func TestServiceAddItem_unknownProduct(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}

func TestServiceAddItem_validation(t *testing.T) {
	svc, db := newCartService(t)
	product := seedProduct(t, db, "Termo", 20000, 5)

	_, err := svc.AddItem(context.Background(), uuid.New(), product.ID, 0)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())

	_, err = svc.AddItem(context.Background(), uuid.Nil, product.ID, 1)
	domainErr = pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
}

func TestServiceSetQuantityZeroRemovesLine(t *testing.T) {
	svc, db := newCartService(t)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, "Mate", 9000, 10)

	_, err := svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)

	view, err := svc.SetQuantity(ctx, userID, product.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.Subtotal)
}
