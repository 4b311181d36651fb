package discounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/pkg/db/models"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
)

type productChecker interface {
	Exists(ctx context.Context, productID uuid.UUID) (bool, error)
}

// Service manages discount tiers and resolves the percentage for a quantity.
type Service interface {
	ListTiers(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.DiscountTier, error)
	UpsertTier(ctx context.Context, input UpsertTierInput) (*models.DiscountTier, error)
	RemoveTier(ctx context.Context, tierID uuid.UUID) error
	ResolveDiscount(ctx context.Context, productID uuid.UUID, qty int) (decimal.Decimal, error)
}

type service struct {
	repo     Repository
	products productChecker
}

// UpsertTierInput carries the fields an admin supplies for a tier.
type UpsertTierInput struct {
	ProductID  uuid.UUID
	MinQty     int
	Percentage decimal.Decimal
	Label      string
}

// NewService builds a discount service with the required dependencies.
func NewService(repo Repository, products productChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) ListTiers(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.DiscountTier, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	tiers, err := s.repo.ListByProduct(ctx, productID, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount tiers")
	}
	return tiers, nil
}

func (s *service) UpsertTier(ctx context.Context, input UpsertTierInput) (*models.DiscountTier, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.MinQty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum quantity must be at least 1")
	}
	if input.Percentage.IsNegative() || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}

	exists, err := s.products.Exists(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	tier := &models.DiscountTier{
		ID:         uuid.New(),
		ProductID:  input.ProductID,
		MinQty:     input.MinQty,
		Percentage: input.Percentage,
		Label:      input.Label,
		IsActive:   true,
	}
	stored, err := s.repo.Upsert(ctx, tier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert discount tier")
	}
	return stored, nil
}

func (s *service) RemoveTier(ctx context.Context, tierID uuid.UUID) error {
	if tierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier id required")
	}
	if err := s.repo.Deactivate(ctx, tierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount tier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate discount tier")
	}
	return nil
}

// ResolveDiscount returns the applicable percentage for the quantity, or zero
// when no active tier qualifies.
func (s *service) ResolveDiscount(ctx context.Context, productID uuid.UUID, qty int) (decimal.Decimal, error) {
	if productID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty <= 0 {
		return decimal.Zero, nil
	}
	tiers, err := s.repo.ListByProduct(ctx, productID, false)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount tiers")
	}
	tier := SelectTier(qty, tiers)
	if tier == nil {
		return decimal.Zero, nil
	}
	return tier.Percentage, nil
}
