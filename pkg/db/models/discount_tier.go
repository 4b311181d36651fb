package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountTier captures tiered percentage pricing per product.
type DiscountTier struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_discount_tiers_product_min_qty"`
	MinQty     int             `gorm:"column:min_qty;not null;uniqueIndex:idx_discount_tiers_product_min_qty"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	Label      string          `gorm:"column:label;type:text;not null"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
