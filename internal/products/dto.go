package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/svillagran/tienda-backend/pkg/db/models"
)

// ProductSummary is the storefront listing row returned by list queries.
type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    *string   `json:"image_url,omitempty"`
	HasDiscount bool      `json:"has_discount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResult carries one page of summaries plus the next cursor.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ProductListFilters narrows the storefront list query.
type ProductListFilters struct {
	CategorySlug    string
	Query           string
	HasDiscount     *bool
	IncludeInactive bool
}

// CreateProductInput carries the fields an admin supplies for a new listing.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       int64
	Stock       int
	ImageURL    *string
	CategoryIDs []uuid.UUID
}

// UpdateProductInput applies partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
	ImageURL    *string
	IsActive    *bool
	CategoryIDs []uuid.UUID
}

// ProductDetail bundles a product with its categories and active tiers.
type ProductDetail struct {
	Product models.Product        `json:"product"`
	Tiers   []models.DiscountTier `json:"tiers"`
}
