package promo

import (
	"encoding/json"
	"strings"
	"time"
)

// Operator represents a comparison operator used in promotion conditions.
type Operator string

// Supported condition operators (string values for clean JSON serialization).
const (
	OpEqual        Operator = "EQUAL"
	OpNotEqual     Operator = "NOT_EQUAL"
	OpGreater      Operator = "GREATER"
	OpGreaterEqual Operator = "GREATER_EQUAL"
	OpLess         Operator = "LESS"
	OpLessEqual    Operator = "LESS_EQUAL"
	OpContains     Operator = "CONTAINS"
	OpNotContains  Operator = "NOT_CONTAINS"
	OpEvery        Operator = "EVERY"
)

// ConditionType identifies what metric of the cart a condition inspects.
type ConditionType string

const (
	CondState              ConditionType = "STATE"
	CondFirstOrder         ConditionType = "FIRST_ORDER"
	CondCartItemCount      ConditionType = "CART_ITEM_COUNT"
	CondCategory           ConditionType = "CATEGORY"
	CondCategoryItemCount  ConditionType = "CATEGORY_ITEM_COUNT"
	CondCategoryValue      ConditionType = "CATEGORY_VALUE"
	CondBrandValue         ConditionType = "BRAND_VALUE"
	CondProductItemCount   ConditionType = "PRODUCT_ITEM_COUNT"
	CondUniqueVariantCount ConditionType = "UNIQUE_VARIANT_COUNT"
	CondProductCode        ConditionType = "PRODUCT_CODE"
	CondVariantCode        ConditionType = "VARIANT_CODE"
	CondZipCode            ConditionType = "ZIP_CODE"
	CondSubtotalValue      ConditionType = "SUBTOTAL_VALUE"
	CondShippingValue      ConditionType = "SHIPPING_VALUE"
	CondTotalValue         ConditionType = "TOTAL_VALUE"
)

// ActionType identifies the effect a promotion action has on the cart.
type ActionType string

const (
	ActFixedShipping          ActionType = "FIXED_SHIPPING"
	ActPercentShipping        ActionType = "PERCENT_SHIPPING"
	ActMaxShippingDiscount    ActionType = "MAX_SHIPPING_DISCOUNT"
	ActFixedSubtotal          ActionType = "FIXED_SUBTOTAL"
	ActPercentSubtotal        ActionType = "PERCENT_SUBTOTAL"
	ActFixedProduct           ActionType = "FIXED_PRODUCT"
	ActPercentProduct         ActionType = "PERCENT_PRODUCT"
	ActFixedVariant           ActionType = "FIXED_VARIANT"
	ActPercentVariant         ActionType = "PERCENT_VARIANT"
	ActFixedBrand             ActionType = "FIXED_BRAND"
	ActPercentBrand           ActionType = "PERCENT_BRAND"
	ActFixedCategory          ActionType = "FIXED_CATEGORY"
	ActPercentCategory        ActionType = "PERCENT_CATEGORY"
	ActFixedTotalPerProduct   ActionType = "FIXED_TOTAL_PER_PRODUCT"
	ActPercentTotalPerProduct ActionType = "PERCENT_TOTAL_PER_PRODUCT"
	ActPercentExtremeItem     ActionType = "PERCENT_EXTREME_ITEM"
	ActFreeVariantItem        ActionType = "FREE_VARIANT_ITEM"
	ActFreeProductItem        ActionType = "FREE_PRODUCT_ITEM"
)

// Status describes the availability state of a promotion.
type Status string

const (
	// StatusAvailable promotions are always candidates.
	StatusAvailable Status = "AVAILABLE"
	// StatusScheduledAvailable promotions are candidates only inside
	// their [StartDate, EndDate] window.
	StatusScheduledAvailable Status = "SCHEDULED_AVAILABLE"
)

// Condition is a single predicate attached to a promotion.
// A promotion's conditions are evaluated in order with AND semantics:
// all must pass for the promotion's actions to apply.
// Value carries a type-specific payload decoded by the evaluator.
type Condition struct {
	ID       string          `json:"id,omitempty"`
	Type     ConditionType   `json:"type"`
	Operator Operator        `json:"operator"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// Action is an effect executed when a promotion's conditions pass.
// Params carries a type-specific payload decoded by the applier.
type Action struct {
	ID     string          `json:"id,omitempty"`
	Type   ActionType      `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Coupon is a redemption code gating a promotion.
type Coupon struct {
	Code string `json:"code"`
}

// Badge is a visual marker rendered next to promoted items.
type Badge struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// VariantLink pins a promotion's badges to a specific variant.
type VariantLink struct {
	VariantID string `json:"variantId"`
}

// Promotion is the full rule definition read from the catalog.
type Promotion struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Priority        int           `json:"priority"`
	Cumulative      bool          `json:"cumulative"`
	HasCoupon       bool          `json:"hasCoupon"`
	MultipleCoupons bool          `json:"multipleCoupons"`
	Status          Status        `json:"status"`
	StartDate       *time.Time    `json:"startDate,omitempty"`
	EndDate         *time.Time    `json:"endDate,omitempty"`
	Expression      *string       `json:"expression,omitempty"`
	Conditions      []Condition   `json:"conditions"`
	Actions         []Action      `json:"actions"`
	Coupons         []Coupon      `json:"coupons,omitempty"`
	Badges          []Badge       `json:"badges,omitempty"`
	VariantLinks    []VariantLink `json:"variantLinks,omitempty"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ActiveAt reports whether the promotion is a candidate at the given instant.
func (p *Promotion) ActiveAt(now time.Time) bool {
	switch p.Status {
	case StatusAvailable:
		return true
	case StatusScheduledAvailable:
		if p.StartDate != nil && now.Before(*p.StartDate) {
			return false
		}
		if p.EndDate != nil && now.After(*p.EndDate) {
			return false
		}
		return true
	default:
		return false
	}
}

// MatchesCoupon reports whether any of the promotion's coupons matches the
// supplied code. Codes are compared trimmed and case-insensitively.
func (p *Promotion) MatchesCoupon(code string) bool {
	want := strings.TrimSpace(code)
	if want == "" {
		return false
	}
	for _, c := range p.Coupons {
		if strings.EqualFold(strings.TrimSpace(c.Code), want) {
			return true
		}
	}
	return false
}
