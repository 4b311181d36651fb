package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/svillagran/tienda-backend/pkg/types"
)

// OrderItem snapshots a purchased line at reconciliation time.
type OrderItem struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	Name      string                 `gorm:"column:name;type:text;not null"`
	Quantity  int                    `gorm:"column:quantity;not null"`
	UnitPrice int64                  `gorm:"column:unit_price;not null"`
	Discount  *types.AppliedDiscount `gorm:"column:discount;type:jsonb;serializer:json"`
	Total     int64                  `gorm:"column:total;not null"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
