package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/svillagran/tienda-backend/pkg/enums"
)

// Order is the reconciled record of a collected payment. PaymentID carries a
// unique index so a payment can only ever produce one order.
type Order struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentID string            `gorm:"column:payment_id;type:text;not null;uniqueIndex:idx_orders_payment_id"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pendiente'"`
	Subtotal  int64             `gorm:"column:subtotal;not null"`
	Items     []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
