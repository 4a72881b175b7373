package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"promoengine/internal/cep"
	"promoengine/internal/promo"
	"promoengine/internal/store"
	"promoengine/internal/testutil"
)

const adminKey = "test-admin-key"

func seedTenPercent(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	err := testutil.SeedPromotions(context.Background(), st, []promo.Promotion{
		{
			ID:         "ten-off",
			Name:       "10% off",
			Status:     promo.StatusAvailable,
			Cumulative: true,
			Actions: []promo.Action{
				{Type: promo.ActPercentSubtotal, Params: json.RawMessage(`{"percent": 10}`)},
			},
		},
		{
			ID:        "free-ship",
			Name:      "Frete gratis",
			Status:    promo.StatusAvailable,
			HasCoupon: true,
			Coupons:   []promo.Coupon{{Code: "FRETEGRATIS"}},
			Actions: []promo.Action{
				{Type: promo.ActFixedShipping, Params: json.RawMessage(`{"amount": 30}`)},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

const quoteBody = `{
	"cartItems": [
		{"variantId": "v1", "productId": "p1", "quantity": 2, "unitPrice": 50, "brand": "acme"},
		{"variantId": "v2", "productId": "p2", "quantity": 1, "unitPrice": 100, "brand": "zeta"}
	],
	"cep": "01310-100",
	"shippingCost": 30
}`

func TestQuoteEndpoint(t *testing.T) {
	server, st := testutil.NewTestServer(t, adminKey, cep.StaticResolver{"01310100": "SP"})
	seedTenPercent(t, st)

	rr := (&testutil.HTTPRequest{
		Method: http.MethodPost,
		Path:   "/v1/cart/promotions",
		Body:   quoteBody,
	}).Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result struct {
		DiscountTotal   float64 `json:"discountTotal"`
		ProductDiscount float64 `json:"productDiscount"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.DiscountTotal != 20 {
		t.Errorf("Expected discount 20 (10%% of 200), got %v", result.DiscountTotal)
	}
}

func TestQuoteEndpoint_WithCoupon(t *testing.T) {
	server, st := testutil.NewTestServer(t, adminKey, nil)
	seedTenPercent(t, st)

	body := `{
		"cartItems": [{"productId": "p1", "quantity": 2, "unitPrice": 100}],
		"shippingCost": 30,
		"coupon": "FRETEGRATIS"
	}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/cart/promotions", Body: body}).Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		DiscountTotal    float64 `json:"discountTotal"`
		ShippingDiscount float64 `json:"shippingDiscount"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &result)
	if result.DiscountTotal != 50 {
		t.Errorf("Expected 20 + 30 = 50, got %v", result.DiscountTotal)
	}
	if result.ShippingDiscount != 30 {
		t.Errorf("Expected shipping discount 30, got %v", result.ShippingDiscount)
	}
}

func TestQuoteEndpoint_ResolvesCatalogMetadata(t *testing.T) {
	server, st := testutil.NewTestServer(t, adminKey, nil)
	ctx := context.Background()
	if err := testutil.SeedCatalog(ctx, st, []store.Product{
		{ID: "p1", Name: "Tenis", Price: 100, Brand: "acme", CategoryIDs: []string{"shoes"}},
	}, nil); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := testutil.SeedPromotions(ctx, st, []promo.Promotion{{
		ID:     "brand-promo",
		Name:   "acme promo",
		Status: promo.StatusAvailable,
		Conditions: []promo.Condition{
			{Type: promo.CondBrandValue, Operator: promo.OpGreaterEqual, Value: json.RawMessage(`{"brands": ["acme"], "amount": 100}`)},
		},
		Actions: []promo.Action{
			{Type: promo.ActFixedSubtotal, Params: json.RawMessage(`{"amount": 10}`)},
		},
	}}); err != nil {
		t.Fatalf("seed promotions: %v", err)
	}

	// the cart line omits brand; it must come from the catalog
	body := `{"cartItems": [{"productId": "p1", "quantity": 1, "unitPrice": 100}], "shippingCost": 0}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/cart/promotions", Body: body}).Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		DiscountTotal float64 `json:"discountTotal"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &result)
	if result.DiscountTotal != 10 {
		t.Errorf("Expected brand resolved from catalog to trigger the promotion, got %v", result.DiscountTotal)
	}
}

func TestQuoteEndpoint_BadRequests(t *testing.T) {
	server, _ := testutil.NewTestServer(t, adminKey, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{`},
		{"empty cart", `{"cartItems": []}`},
		{"missing product id", `{"cartItems": [{"quantity": 1, "unitPrice": 10}]}`},
		{"zero quantity", `{"cartItems": [{"productId": "p1", "quantity": 0, "unitPrice": 10}]}`},
		{"negative price", `{"cartItems": [{"productId": "p1", "quantity": 1, "unitPrice": -1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/cart/promotions", Body: tt.body}).Do(t, server.Router())
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCouponEndpoint(t *testing.T) {
	server, st := testutil.NewTestServer(t, adminKey, nil)
	seedTenPercent(t, st)

	body := `{"cartItems": [{"productId": "p1", "quantity": 1, "unitPrice": 200}], "shippingCost": 30, "coupon": "FRETEGRATIS"}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/coupons/validate", Body: body}).Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		Valid         bool     `json:"valid"`
		DiscountTotal *float64 `json:"discountTotal"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &result)
	if !result.Valid {
		t.Error("Expected coupon to be accepted")
	}
	if result.DiscountTotal == nil || *result.DiscountTotal != 50 {
		t.Errorf("Expected discount total 50, got %v", result.DiscountTotal)
	}
}

func TestCouponEndpoint_Rejection(t *testing.T) {
	server, st := testutil.NewTestServer(t, adminKey, nil)
	seedTenPercent(t, st)

	body := `{"cartItems": [{"productId": "p1", "quantity": 1, "unitPrice": 200}], "shippingCost": 30, "coupon": "GHOST"}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/coupons/validate", Body: body}).Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		Valid         bool     `json:"valid"`
		DiscountTotal *float64 `json:"discountTotal"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &result)
	if result.Valid {
		t.Error("Expected unknown coupon to be rejected")
	}
	if result.DiscountTotal != nil {
		t.Error("Expected no discount total on rejection")
	}
}

func TestCouponEndpoint_RequiresCode(t *testing.T) {
	server, _ := testutil.NewTestServer(t, adminKey, nil)

	body := `{"cartItems": [{"productId": "p1", "quantity": 1, "unitPrice": 200}]}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/coupons/validate", Body: body}).Do(t, server.Router())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing coupon, got %d", rr.Code)
	}
}

func TestAdminEndpoints_Auth(t *testing.T) {
	server, _ := testutil.NewTestServer(t, adminKey, nil)

	rr := (&testutil.HTTPRequest{Method: http.MethodGet, Path: "/v1/promotions"}).Do(t, server.Router())
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}

	rr = (&testutil.HTTPRequest{
		Method:  http.MethodGet,
		Path:    "/v1/promotions",
		Headers: map[string]string{"Authorization": "Bearer wrong-key"},
	}).Do(t, server.Router())
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 with wrong token, got %d", rr.Code)
	}

	rr = (&testutil.HTTPRequest{
		Method:  http.MethodGet,
		Path:    "/v1/promotions",
		Headers: map[string]string{"Authorization": "Bearer " + adminKey},
	}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid token, got %d", rr.Code)
	}
}

func TestAdminEndpoints_CRUD(t *testing.T) {
	server, _ := testutil.NewTestServer(t, adminKey, nil)
	auth := map[string]string{"Authorization": "Bearer " + adminKey}

	createBody := `{
		"name": "created via api",
		"status": "AVAILABLE",
		"actions": [{"type": "FIXED_SUBTOTAL", "params": {"amount": 5}}]
	}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/promotions", Body: createBody, Headers: auth}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &created)
	if !created.OK || created.ID == "" {
		t.Fatalf("Expected server-assigned id, got %+v", created)
	}

	rr = (&testutil.HTTPRequest{Method: http.MethodGet, Path: "/v1/promotions/" + created.ID, Headers: auth}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 on get, got %d", rr.Code)
	}
	var fetched promo.Promotion
	_ = json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched.Name != "created via api" {
		t.Errorf("Unexpected promotion: %+v", fetched)
	}

	rr = (&testutil.HTTPRequest{Method: http.MethodDelete, Path: "/v1/promotions/" + created.ID, Headers: auth}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", rr.Code)
	}

	rr = (&testutil.HTTPRequest{Method: http.MethodGet, Path: "/v1/promotions/" + created.ID, Headers: auth}).Do(t, server.Router())
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rr.Code)
	}
}

func TestAdminEndpoints_RejectsInvalidPromotion(t *testing.T) {
	server, _ := testutil.NewTestServer(t, adminKey, nil)
	auth := map[string]string{"Authorization": "Bearer " + adminKey}

	// no actions
	body := `{"name": "bad", "status": "AVAILABLE", "actions": []}`
	rr := (&testutil.HTTPRequest{Method: http.MethodPost, Path: "/v1/promotions", Body: body, Headers: auth}).Do(t, server.Router())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid promotion, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	server, _ := testutil.NewTestServer(t, adminKey, nil)

	rr := (&testutil.HTTPRequest{Method: http.MethodGet, Path: "/healthz"}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}
