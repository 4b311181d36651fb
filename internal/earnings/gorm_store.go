package earnings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/svillagran/tienda-backend/pkg/db/models"
)

const settingsRowID = 1

type gormStore struct {
	db         *gorm.DB
	defaultPct decimal.Decimal
}

// NewGormStore builds the database-backed ledger store. defaultPct seeds the
// settings row when it does not exist yet.
func NewGormStore(db *gorm.DB, defaultPct decimal.Decimal) Store {
	return &gormStore{db: db, defaultPct: defaultPct}
}

func (s *gormStore) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Append computes subtotal × percentage / 100, carries the running total
// forward from the latest entry, and inserts the new record.
func (s *gormStore) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.EarningsRecord, error) {
	conn := s.conn(tx).WithContext(ctx)

	pct, err := s.percentage(conn)
	if err != nil {
		return nil, err
	}

	var latest models.EarningsRecord
	runningTotal := decimal.Zero
	query := conn.Order("created_at DESC").Order("id DESC")
	if conn.Dialector.Name() == "postgres" {
		// Lock the tail row so concurrent reconciliations cannot read the
		// same running total. sqlite serializes writers on its own.
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err = query.First(&latest).Error
	switch {
	case err == nil:
		runningTotal = latest.RunningTotal
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, err
	}

	amount := decimal.NewFromInt(input.Subtotal).
		Mul(pct).
		Div(decimal.NewFromInt(100)).
		Round(2)

	record := &models.EarningsRecord{
		ID:           uuid.New(),
		OrderID:      input.OrderID,
		UserID:       input.UserID,
		PaymentID:    input.PaymentID,
		Subtotal:     input.Subtotal,
		Percentage:   pct,
		Amount:       amount,
		RunningTotal: runningTotal.Add(amount),
	}
	if err := conn.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (s *gormStore) Summary(ctx context.Context) (*Summary, error) {
	conn := s.db.WithContext(ctx)

	pct, err := s.percentage(conn)
	if err != nil {
		return nil, err
	}

	var history []models.EarningsRecord
	if err := conn.Order("created_at ASC").Order("id ASC").Find(&history).Error; err != nil {
		return nil, err
	}

	total := decimal.Zero
	if len(history) > 0 {
		total = history[len(history)-1].RunningTotal
	}
	return &Summary{Total: total, Percentage: pct, History: history}, nil
}

func (s *gormStore) Percentage(ctx context.Context) (decimal.Decimal, error) {
	return s.percentage(s.db.WithContext(ctx))
}

func (s *gormStore) SetPercentage(ctx context.Context, pct decimal.Decimal) error {
	conn := s.db.WithContext(ctx)
	res := conn.Model(&models.EarningsSetting{}).
		Where("id = ?", settingsRowID).
		Update("percentage", pct)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conn.Create(&models.EarningsSetting{ID: settingsRowID, Percentage: pct}).Error
	}
	return nil
}

func (s *gormStore) percentage(conn *gorm.DB) (decimal.Decimal, error) {
	var setting models.EarningsSetting
	err := conn.First(&setting, "id = ?", settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaultPct, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return setting.Percentage, nil
}
