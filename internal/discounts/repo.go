package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/svillagran/tienda-backend/pkg/db/models"
)

// Repository exposes discount tier persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.DiscountTier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountTier, error)
	Upsert(ctx context.Context, tier *models.DiscountTier) (*models.DiscountTier, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discount tier repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, includeInactive bool) ([]models.DiscountTier, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var tiers []models.DiscountTier
	if err := query.Order("min_qty ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountTier, error) {
	var tier models.DiscountTier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// Upsert inserts a tier or, when (product_id, min_qty) already exists,
// refreshes its percentage and label and reactivates it.
func (r *repository) Upsert(ctx context.Context, tier *models.DiscountTier) (*models.DiscountTier, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "min_qty"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"percentage", "label", "is_active", "updated_at",
		}),
	}).Create(tier).Error
	if err != nil {
		return nil, err
	}

	var stored models.DiscountTier
	err = r.db.WithContext(ctx).
		Where("product_id = ? AND min_qty = ?", tier.ProductID, tier.MinQty).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.DiscountTier{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
