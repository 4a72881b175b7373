package store

import (
	"context"
	"fmt"

	mydb "promoengine/internal/db"
)

// Stores bundles the catalog interfaces a single backend provides.
type Stores struct {
	Promotions PromotionStore
	Catalog    CatalogStore
}

// NewStores creates the promotion and product stores for the given backend.
// Supported types: "memory", "postgres".
func NewStores(ctx context.Context, storeType, dbDSN string) (Stores, error) {
	switch storeType {
	case "memory":
		m := NewMemoryStore()
		return Stores{Promotions: m, Catalog: m}, nil
	case "postgres":
		pool, err := mydb.NewPool(ctx, dbDSN)
		if err != nil {
			return Stores{}, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		p := NewPostgresStore(pool)
		return Stores{Promotions: p, Catalog: p}, nil
	default:
		return Stores{}, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
