package products

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/svillagran/tienda-backend/pkg/db/models"
	"github.com/svillagran/tienda-backend/pkg/pagination"
)

// Each test gets its own named shared-cache database so every pooled
// connection sees the same tables.
func testDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
}

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(testDSN(t)), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS product_categories (
  product_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  PRIMARY KEY (product_id, category_id)
);`,
		`CREATE TABLE IF NOT EXISTS discount_tiers (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  min_qty INTEGER NOT NULL,
  percentage NUMERIC NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, min_qty)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int, created time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryListSummaries_pagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	older := createProduct(t, db, "Mate Imperial", 12000, 10, now.Add(-time.Hour))
	newer := createProduct(t, db, "Bombilla Alpaca", 8000, 5, now)

	first, err := repo.ListSummaries(ctx, pagination.Params{Limit: 1}, ProductListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Products, 1)
	assert.Equal(t, newer.ID, first.Products[0].ID)
	assert.NotEmpty(t, first.NextCursor)

	second, err := repo.ListSummaries(ctx, pagination.Params{Limit: 1, Cursor: first.NextCursor}, ProductListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, older.ID, second.Products[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListSummaries_discountFlagAndFilters(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	discounted := createProduct(t, db, "Yerba Organica", 6000, 20, now)
	createProduct(t, db, "Termo Acero", 25000, 3, now.Add(-time.Minute))

	tier := &models.DiscountTier{
		ID:         uuid.New(),
		ProductID:  discounted.ID,
		MinQty:     3,
		Percentage: decimal.NewFromInt(5),
		IsActive:   true,
	}
	require.NoError(t, db.Create(tier).Error)

	hasDiscount := true
	list, err := repo.ListSummaries(ctx, pagination.Params{Limit: 10}, ProductListFilters{HasDiscount: &hasDiscount})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, discounted.ID, list.Products[0].ID)
	assert.True(t, list.Products[0].HasDiscount)

	list, err = repo.ListSummaries(ctx, pagination.Params{Limit: 10}, ProductListFilters{Query: "termo"})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Termo Acero", list.Products[0].Name)
	assert.False(t, list.Products[0].HasDiscount)
}

func TestRepositoryListSummaries_categoryFilter(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	tagged := createProduct(t, db, "Mate Camionero", 9000, 8, now)
	createProduct(t, db, "Yerba Suave", 4000, 30, now.Add(-time.Minute))

	category := &models.Category{ID: uuid.New(), Name: "Mates", Slug: "mates"}
	require.NoError(t, db.Create(category).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO product_categories (product_id, category_id) VALUES (?, ?)",
		tagged.ID, category.ID,
	).Error)

	list, err := repo.ListSummaries(ctx, pagination.Params{Limit: 10}, ProductListFilters{CategorySlug: "mates"})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, tagged.ID, list.Products[0].ID)
}

func TestRepositoryListSummaries_hidesInactive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "Descatalogado", 1000, 1, time.Now().UTC())
	require.NoError(t, repo.SetActive(ctx, product.ID, false))

	list, err := repo.ListSummaries(ctx, pagination.Params{Limit: 10}, ProductListFilters{})
	require.NoError(t, err)
	assert.Empty(t, list.Products)

	list, err = repo.ListSummaries(ctx, pagination.Params{Limit: 10}, ProductListFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, list.Products, 1)
}

func TestRepositoryDecrementStockClamped(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "Stock Bajo", 2000, 3, time.Now().UTC())

	require.NoError(t, repo.DecrementStockClamped(ctx, product.ID, 2))
	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)

	// Oversell clamps at zero instead of going negative.
	require.NoError(t, repo.DecrementStockClamped(ctx, product.ID, 5))
	reloaded, err = repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestRepositoryExists(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := createProduct(t, db, "Existente", 2000, 3, time.Now().UTC())

	ok, err := repo.Exists(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.SetActive(ctx, product.ID, false))
	ok, err = repo.Exists(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
