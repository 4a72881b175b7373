package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"promoengine/internal/api"
	"promoengine/internal/cep"
	"promoengine/internal/engine"
	"promoengine/internal/promo"
	"promoengine/internal/store"
)

// NewTestServer creates a test server backed by an in-memory store and a
// static postal resolver.
func NewTestServer(t *testing.T, adminKey string, states cep.StaticResolver) (*api.Server, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	log := zerolog.Nop()
	eng := engine.New(memStore, memStore, states, log)
	server := api.NewServer(eng, memStore, memStore, adminKey, 0, 0, log)
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedPromotions populates the store with test promotions.
func SeedPromotions(ctx context.Context, st store.PromotionStore, promos []promo.Promotion) error {
	for _, p := range promos {
		if err := st.UpsertPromotion(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// SeedCatalog populates the store with test products and variants.
func SeedCatalog(ctx context.Context, st store.CatalogStore, products []store.Product, variants []store.Variant) error {
	for _, p := range products {
		if err := st.UpsertProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, v := range variants {
		if err := st.UpsertVariant(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
