package earnings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/pkg/db/models"
)

// fileDocument is the on-disk shape. Field names follow the storefront's
// existing data file so an operator can keep using it unchanged.
type fileDocument struct {
	Porcentaje decimal.Decimal `json:"porcentaje"`
	Total      decimal.Decimal `json:"total"`
	Ganancias  []fileRecord    `json:"ganancias"`
}

type fileRecord struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	UserID       uuid.UUID       `json:"user_id"`
	PaymentID    string          `json:"payment_id"`
	Subtotal     int64           `json:"subtotal"`
	Percentage   decimal.Decimal `json:"percentage"`
	Amount       decimal.Decimal `json:"amount"`
	RunningTotal decimal.Decimal `json:"running_total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type fileStore struct {
	mu         sync.Mutex
	path       string
	defaultPct decimal.Decimal
	loaded     bool
	doc        fileDocument
}

// NewFileStore builds the JSON-file ledger fallback used when the database
// is unreachable. The file is loaded lazily and rewritten after every
// mutation.
func NewFileStore(path string, defaultPct decimal.Decimal) Store {
	return &fileStore{path: path, defaultPct: defaultPct}
}

func (s *fileStore) Append(ctx context.Context, _ *gorm.DB, input AppendInput) (*models.EarningsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	amount := decimal.NewFromInt(input.Subtotal).
		Mul(s.doc.Porcentaje).
		Div(decimal.NewFromInt(100)).
		Round(2)

	record := fileRecord{
		ID:           uuid.New(),
		OrderID:      input.OrderID,
		UserID:       input.UserID,
		PaymentID:    input.PaymentID,
		Subtotal:     input.Subtotal,
		Percentage:   s.doc.Porcentaje,
		Amount:       amount,
		RunningTotal: s.doc.Total.Add(amount),
		CreatedAt:    time.Now().UTC(),
	}
	s.doc.Ganancias = append(s.doc.Ganancias, record)
	s.doc.Total = record.RunningTotal

	if err := s.persist(); err != nil {
		return nil, err
	}
	out := record.toModel()
	return &out, nil
}

func (s *fileStore) Summary(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	history := make([]models.EarningsRecord, 0, len(s.doc.Ganancias))
	for _, record := range s.doc.Ganancias {
		history = append(history, record.toModel())
	}
	return &Summary{
		Total:      s.doc.Total,
		Percentage: s.doc.Porcentaje,
		History:    history,
	}, nil
}

func (s *fileStore) Percentage(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return decimal.Zero, err
	}
	return s.doc.Porcentaje, nil
}

func (s *fileStore) SetPercentage(ctx context.Context, pct decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.doc.Porcentaje = pct
	return s.persist()
}

func (s *fileStore) load() error {
	if s.loaded {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.doc = fileDocument{Porcentaje: s.defaultPct, Total: decimal.Zero}
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read earnings file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return fmt.Errorf("decode earnings file: %w", err)
	}
	s.loaded = true
	return nil
}

func (s *fileStore) persist() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create earnings dir: %w", err)
		}
	}

	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode earnings file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write earnings file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (r fileRecord) toModel() models.EarningsRecord {
	return models.EarningsRecord{
		ID:           r.ID,
		OrderID:      r.OrderID,
		UserID:       r.UserID,
		PaymentID:    r.PaymentID,
		Subtotal:     r.Subtotal,
		Percentage:   r.Percentage,
		Amount:       r.Amount,
		RunningTotal: r.RunningTotal,
		CreatedAt:    r.CreatedAt,
	}
}
