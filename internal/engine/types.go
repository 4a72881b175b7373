package engine

import (
	"promoengine/internal/promo"
)

// DiscountType classifies where a promotion's discount landed.
type DiscountType string

const (
	DiscountProduct  DiscountType = "product"
	DiscountShipping DiscountType = "shipping"
	DiscountMixed    DiscountType = "mixed"
)

// DisplayKind is the UI hint for rendering a promotion's discount.
type DisplayKind string

const (
	DisplayNone     DisplayKind = "none"
	DisplayPercent  DisplayKind = "percent"
	DisplayCurrency DisplayKind = "currency"
)

// Display summarizes how a promotion's discount should be presented:
// a single percentage when every contribution used the same one,
// a currency amount otherwise.
type Display struct {
	Kind    DisplayKind `json:"kind"`
	Percent float64     `json:"percent,omitempty"`
	Amount  float64     `json:"amount"`
}

// PromotionDetail records one applied promotion and the delta it contributed.
// Discount is the measured before/after delta, not a recomputation.
type PromotionDetail struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Discount    float64      `json:"discount"`
	Type        DiscountType `json:"type"`
	Display     Display      `json:"display"`
}

// FreeGift is a zero-price cart line produced by FREE_* actions.
// UnitPrice is nil when the catalog lookup failed; quantity and identity are
// preserved so the caller can decide fallback pricing.
type FreeGift struct {
	ProductID string   `json:"productId,omitempty"`
	VariantID string   `json:"variantId,omitempty"`
	SKU       string   `json:"sku,omitempty"`
	Quantity  int      `json:"quantity"`
	IsVariant bool     `json:"isVariant"`
	Name      string   `json:"name,omitempty"`
	UnitPrice *float64 `json:"unitPrice"`
}

// Result is the aggregate outcome of one engine run over a cart snapshot.
type Result struct {
	DiscountTotal    float64                `json:"discountTotal"`
	ProductDiscount  float64                `json:"productDiscount"`
	ShippingDiscount float64                `json:"shippingDiscount"`
	FreeGifts        []FreeGift             `json:"freeGifts"`
	Badges           map[string]promo.Badge `json:"badgeMap"`
	Descriptions     []string               `json:"descriptions"`
	Promotions       []PromotionDetail      `json:"promotions"`
}

// CouponValidation is the outcome of checking a coupon against a cart.
// Result is set only when the coupon was accepted; callers must not apply a
// rejected coupon's discounts.
type CouponValidation struct {
	Valid  bool    `json:"valid"`
	Result *Result `json:"result,omitempty"`
}
