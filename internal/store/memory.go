package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"promoengine/internal/promo"
)

// MemoryStore is an in-memory implementation of PromotionStore and
// CatalogStore. It uses maps guarded by an RWMutex and is suitable for
// development, testing, or single-instance deployments.
type MemoryStore struct {
	mu         sync.RWMutex
	promotions map[string]promo.Promotion
	products   map[string]Product
	variants   map[string]Variant
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		promotions: make(map[string]promo.Promotion),
		products:   make(map[string]Product),
		variants:   make(map[string]Variant),
	}
}

// FindActive returns the promotions that are candidates at the given instant,
// ordered by priority descending.
func (m *MemoryStore) FindActive(ctx context.Context, now time.Time) ([]promo.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]promo.Promotion, 0, len(m.promotions))
	for _, p := range m.promotions {
		if p.ActiveAt(now) {
			result = append(result, p)
		}
	}
	sortByPriority(result)
	return result, nil
}

// GetPromotion retrieves a single promotion by id.
func (m *MemoryStore) GetPromotion(ctx context.Context, id string) (*promo.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.promotions[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListPromotions returns every promotion ordered by priority descending.
func (m *MemoryStore) ListPromotions(ctx context.Context) ([]promo.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]promo.Promotion, 0, len(m.promotions))
	for _, p := range m.promotions {
		result = append(result, p)
	}
	sortByPriority(result)
	return result, nil
}

// UpsertPromotion creates or updates a promotion in memory.
func (m *MemoryStore) UpsertPromotion(ctx context.Context, p promo.Promotion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()
	m.promotions[p.ID] = p
	return nil
}

// DeletePromotion removes a promotion from memory. Idempotent.
func (m *MemoryStore) DeletePromotion(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.promotions, id)
	return nil
}

// GetProduct retrieves a product by id.
func (m *MemoryStore) GetProduct(ctx context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.products[id]
	if !exists {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// GetVariant retrieves a variant by id.
func (m *MemoryStore) GetVariant(ctx context.Context, id string) (Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.variants[id]
	if !exists {
		return Variant{}, ErrNotFound
	}
	return v, nil
}

// UpsertProduct creates or updates a product in memory.
func (m *MemoryStore) UpsertProduct(ctx context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[p.ID] = p
	return nil
}

// UpsertVariant creates or updates a variant in memory.
func (m *MemoryStore) UpsertVariant(ctx context.Context, v Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.variants[v.ID] = v
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}

// sortByPriority orders promotions by priority descending; ties keep a
// deterministic id order so repeated reads yield identical slices.
func sortByPriority(promotions []promo.Promotion) {
	sort.SliceStable(promotions, func(i, j int) bool {
		if promotions[i].Priority != promotions[j].Priority {
			return promotions[i].Priority > promotions[j].Priority
		}
		return promotions[i].ID < promotions[j].ID
	})
}
