package targeting

import (
	"errors"
	"testing"

	"promoengine/internal/cart"
)

func sampleCart() cart.Context {
	return cart.Context{
		Items: []cart.Item{
			{VariantID: "v1", ProductID: "p1", Quantity: 2, UnitPrice: 50, CategoryIDs: []string{"shoes"}, Brand: "acme"},
			{VariantID: "v2", ProductID: "p2", Quantity: 1, UnitPrice: 100, CategoryIDs: []string{"shoes", "sale"}, Brand: "acme"},
		},
		IsFirstPurchase: true,
		Subtotal:        200,
		Shipping:        30,
		Total:           230,
	}
}

func TestCartAttributes(t *testing.T) {
	attrs := CartAttributes(sampleCart(), "SP")

	if attrs["subtotal"] != 200.0 {
		t.Errorf("Expected subtotal 200, got %v", attrs["subtotal"])
	}
	if attrs["itemCount"] != 3 {
		t.Errorf("Expected itemCount 3, got %v", attrs["itemCount"])
	}
	if attrs["state"] != "SP" {
		t.Errorf("Expected state SP, got %v", attrs["state"])
	}
	if attrs["firstPurchase"] != true {
		t.Errorf("Expected firstPurchase true, got %v", attrs["firstPurchase"])
	}

	brands := attrs["brands"].([]string)
	if len(brands) != 1 || brands[0] != "acme" {
		t.Errorf("Expected deduplicated brands [acme], got %v", brands)
	}
	categories := attrs["categoryIds"].([]string)
	if len(categories) != 2 {
		t.Errorf("Expected deduplicated categories [shoes sale], got %v", categories)
	}
}

func TestEvaluate_Match(t *testing.T) {
	expr := `{"and": [{">=": [{"var": "subtotal"}, 150]}, {"==": [{"var": "state"}, "SP"]}]}`

	match, err := Evaluate(expr, CartAttributes(sampleCart(), "SP"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !match {
		t.Error("Expected expression to match")
	}
}

func TestEvaluate_NoMatch(t *testing.T) {
	expr := `{"==": [{"var": "state"}, "RJ"]}`

	match, err := Evaluate(expr, CartAttributes(sampleCart(), "SP"))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if match {
		t.Error("Expected expression not to match")
	}
}

func TestEvaluate_ArrayMembership(t *testing.T) {
	expr := `{"in": ["acme", {"var": "brands"}]}`

	match, err := Evaluate(expr, CartAttributes(sampleCart(), ""))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !match {
		t.Error("Expected brand membership to match")
	}
}

func TestEvaluate_EmptyExpression(t *testing.T) {
	if _, err := Evaluate("   ", CartContext{}); !errors.Is(err, ErrEmptyExpression) {
		t.Errorf("Expected ErrEmptyExpression, got %v", err)
	}
}

func TestEvaluate_InvalidExpression(t *testing.T) {
	if _, err := Evaluate(`{"not closed`, CartContext{}); !errors.Is(err, ErrInvalidExpression) {
		t.Errorf("Expected ErrInvalidExpression, got %v", err)
	}
}

func TestValidateExpression(t *testing.T) {
	if err := ValidateExpression(`{"==": [1, 1]}`); err != nil {
		t.Errorf("Expected valid expression, got %v", err)
	}
	if err := ValidateExpression(""); !errors.Is(err, ErrEmptyExpression) {
		t.Errorf("Expected ErrEmptyExpression, got %v", err)
	}
	if err := ValidateExpression(`{"bad json`); !errors.Is(err, ErrInvalidExpression) {
		t.Errorf("Expected ErrInvalidExpression, got %v", err)
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"true", true, true},
		{"false", false, false},
		{"zero", 0.0, false},
		{"number", 1.5, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"empty array", []any{}, false},
		{"array", []any{1}, true},
		{"empty map", map[string]any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTruthy(tt.v); got != tt.want {
				t.Errorf("isTruthy(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
