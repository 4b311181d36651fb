package earnings

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/pkg/db/models"
)

// Summary is the ledger read model: running total, current percentage, and
// the append-only history.
type Summary struct {
	Total      decimal.Decimal         `json:"total"`
	Percentage decimal.Decimal         `json:"percentage"`
	History    []models.EarningsRecord `json:"history"`
}

// AppendInput carries the data for one commission entry.
type AppendInput struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	PaymentID string
	Subtotal  int64
}

// Store persists the commission ledger. The gorm-backed store honors the
// transaction handed to Append; the file-backed fallback ignores it.
type Store interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.EarningsRecord, error)
	Summary(ctx context.Context) (*Summary, error)
	Percentage(ctx context.Context) (decimal.Decimal, error)
	SetPercentage(ctx context.Context, pct decimal.Decimal) error
}
