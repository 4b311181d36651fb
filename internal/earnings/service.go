package earnings

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/pkg/config"
	"github.com/svillagran/tienda-backend/pkg/db"
	"github.com/svillagran/tienda-backend/pkg/db/models"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/logger"
)

// Service manages the commission ledger. AddEarning has no idempotence
// check of its own; the checkout orchestrator guarantees at most one call
// per payment identifier.
type Service interface {
	AddEarning(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.EarningsRecord, error)
	GetEarnings(ctx context.Context) (*Summary, error)
	SetPercentage(ctx context.Context, pct decimal.Decimal) error
}

type service struct {
	mu    sync.Mutex
	store Store
}

// NewService builds an earnings service over the chosen store.
func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("earnings store required")
	}
	return &service{store: store}, nil
}

func (s *service) AddEarning(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.EarningsRecord, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.PaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.Subtotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	// The running total is a read-modify-write; serialize appends so two
	// concurrent reconciliations cannot base their totals on the same
	// predecessor entry.
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.store.Append(ctx, tx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append earning")
	}
	return record, nil
}

func (s *service) GetEarnings(ctx context.Context) (*Summary, error) {
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load earnings")
	}
	return summary, nil
}

func (s *service) SetPercentage(ctx context.Context, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetPercentage(ctx, pct); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set percentage")
	}
	return nil
}

// SelectStore probes the database and falls back to the JSON file ledger
// when it is unreachable.
func SelectStore(ctx context.Context, client db.Pinger, gormDB *gorm.DB, cfg config.EarningsConfig, logg *logger.Logger) Store {
	defaultPct := decimal.NewFromFloat(cfg.DefaultPercentage)
	if client != nil && gormDB != nil {
		if err := client.Ping(ctx); err == nil {
			return NewGormStore(gormDB, defaultPct)
		} else if logg != nil {
			logg.Warn(ctx, fmt.Sprintf("earnings: database unreachable, using file ledger at %s: %v", cfg.FilePath, err))
		}
	}
	return NewFileStore(cfg.FilePath, defaultPct)
}
