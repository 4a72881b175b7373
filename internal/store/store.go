package store

import (
	"context"
	"errors"
	"time"

	"promoengine/internal/promo"
)

// ErrNotFound is returned when a promotion, product or variant does not exist.
var ErrNotFound = errors.New("not found")

// PromotionStore defines promotion catalog persistence.
// Implementations must be thread-safe and support concurrent access.
type PromotionStore interface {
	// FindActive retrieves the promotions that are candidates at the given
	// instant, ordered by priority descending.
	FindActive(ctx context.Context, now time.Time) ([]promo.Promotion, error)

	// GetPromotion retrieves a single promotion by id.
	// Returns ErrNotFound if it does not exist.
	GetPromotion(ctx context.Context, id string) (*promo.Promotion, error)

	// ListPromotions retrieves every promotion, ordered by priority descending.
	ListPromotions(ctx context.Context) ([]promo.Promotion, error)

	// UpsertPromotion creates or updates a promotion by id.
	UpsertPromotion(ctx context.Context, p promo.Promotion) error

	// DeletePromotion removes a promotion by id. Idempotent.
	DeletePromotion(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// Product is the catalog view needed by FREE_PRODUCT_ITEM actions and by
// cart snapshot construction (category/brand resolution).
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Brand       string   `json:"brand,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
}

// Variant is the catalog view needed by FREE_VARIANT_ITEM actions.
type Variant struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	SKU         string  `json:"sku,omitempty"`
	ProductName string  `json:"productName,omitempty"`
	Price       float64 `json:"price"`
}

// CatalogStore defines the product/variant reads used by free-gift actions
// and cart construction, plus the writes used for seeding.
type CatalogStore interface {
	// GetProduct retrieves a product by id. Returns ErrNotFound if absent.
	GetProduct(ctx context.Context, id string) (Product, error)

	// GetVariant retrieves a variant by id. Returns ErrNotFound if absent.
	GetVariant(ctx context.Context, id string) (Variant, error)

	// UpsertProduct creates or updates a product.
	UpsertProduct(ctx context.Context, p Product) error

	// UpsertVariant creates or updates a variant.
	UpsertVariant(ctx context.Context, v Variant) error

	// Close releases any resources held by the store.
	Close() error
}
