package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningsSetting is a single-row table holding the commission percentage.
type EarningsSetting struct {
	ID         int             `gorm:"column:id;primaryKey"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// EarningsRecord appends one commission entry per reconciled payment. The
// running total is carried forward so reads never re-sum history.
type EarningsRecord struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	PaymentID    string          `gorm:"column:payment_id;type:text;not null"`
	Subtotal     int64           `gorm:"column:subtotal;not null"`
	Percentage   decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	RunningTotal decimal.Decimal `gorm:"column:running_total;type:numeric(14,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
