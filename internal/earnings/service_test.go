package earnings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
)

func TestServiceSetPercentage_bounds(t *testing.T) {
	db := setupEarningsTestDB(t)
	svc, err := NewService(NewGormStore(db, decimal.NewFromInt(10)))
	require.NoError(t, err)
	ctx := context.Background()

	for _, invalid := range []int64{-1, 101} {
		err := svc.SetPercentage(ctx, decimal.NewFromInt(invalid))
		domainErr := pkgerrors.As(err)
		require.NotNil(t, domainErr, "pct %d", invalid)
		assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
	}

	require.NoError(t, svc.SetPercentage(ctx, decimal.NewFromInt(0)))
	require.NoError(t, svc.SetPercentage(ctx, decimal.NewFromInt(100)))
}

func TestServiceAddEarning_validation(t *testing.T) {
	db := setupEarningsTestDB(t)
	svc, err := NewService(NewGormStore(db, decimal.NewFromInt(10)))
	require.NoError(t, err)

	_, err = svc.AddEarning(context.Background(), nil, AppendInput{Subtotal: 100})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestServiceAddEarning_monotonicity(t *testing.T) {
	db := setupEarningsTestDB(t)
	svc, err := NewService(NewGormStore(db, decimal.NewFromInt(10)))
	require.NoError(t, err)
	ctx := context.Background()

	subtotals := []int64{10000, 2500, 999}
	expected := decimal.Zero
	for _, subtotal := range subtotals {
		record, err := svc.AddEarning(ctx, nil, appendInput(subtotal))
		require.NoError(t, err)
		expected = expected.Add(decimal.NewFromInt(subtotal).Mul(decimal.NewFromInt(10)).Div(decimal.NewFromInt(100)).Round(2))
		assert.True(t, record.RunningTotal.Equal(expected), "running total %s want %s", record.RunningTotal, expected)
	}

	summary, err := svc.GetEarnings(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Total.Equal(expected))
	assert.Len(t, summary.History, len(subtotals))
}
