package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a storefront listing priced in whole CLP units.
type Product struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;type:text;not null"`
	Description   *string        `gorm:"column:description"`
	Price         int64          `gorm:"column:price;not null"`
	Stock         int            `gorm:"column:stock;not null;default:0"`
	ImageURL      *string        `gorm:"column:image_url"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	Categories    []Category     `gorm:"many2many:product_categories"`
	DiscountTiers []DiscountTier `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
