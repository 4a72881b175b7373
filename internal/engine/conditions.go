package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"promoengine/internal/cart"
	"promoengine/internal/promo"
)

// conditionHandler evaluates one condition type against the cart snapshot.
// A returned error is treated by the evaluator as a failed condition
// (fail-closed), never propagated.
type conditionHandler func(cond promo.Condition, c cart.Context, userState string) (bool, error)

var conditionHandlers = map[promo.ConditionType]conditionHandler{
	promo.CondState:              evalState,
	promo.CondFirstOrder:         evalFirstOrder,
	promo.CondCartItemCount:      evalCartItemCount,
	promo.CondCategory:           evalCategory,
	promo.CondCategoryItemCount:  evalCategoryItemCount,
	promo.CondCategoryValue:      evalCategoryValue,
	promo.CondBrandValue:         evalBrandValue,
	promo.CondProductItemCount:   evalProductItemCount,
	promo.CondUniqueVariantCount: evalUniqueVariantCount,
	promo.CondProductCode:        evalProductCode,
	promo.CondVariantCode:        evalVariantCode,
	promo.CondZipCode:            evalZipCode,
	promo.CondSubtotalValue:      evalSubtotalValue,
	promo.CondShippingValue:      evalShippingValue,
	promo.CondTotalValue:         evalTotalValue,
}

// evalConditions evaluates a promotion's conditions in order with
// short-circuit AND semantics. An empty list passes. A malformed or
// unrecognized condition fails the whole promotion rather than crashing the
// engine or wrongly granting a discount.
func (e *Engine) evalConditions(conditions []promo.Condition, c cart.Context, userState string) bool {
	for _, cond := range conditions {
		handler, ok := conditionHandlers[cond.Type]
		if !ok {
			e.log.Warn().Str("condition", cond.ID).Str("type", string(cond.Type)).
				Msg("unrecognized condition type, failing closed")
			return false
		}
		pass, err := handler(cond, c, userState)
		if err != nil {
			e.log.Warn().Err(err).Str("condition", cond.ID).Str("type", string(cond.Type)).
				Msg("condition evaluation failed, failing closed")
			return false
		}
		if !pass {
			return false
		}
	}
	return true
}

// decodePayload unmarshals the condition's structured value into dst.
func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

// ---- payloads ----

type statePayload struct {
	States []string `json:"states"`
}

type boolPayload struct {
	Value bool `json:"value"`
}

type countPayload struct {
	Count float64 `json:"count"`
}

type amountPayload struct {
	Amount float64 `json:"amount"`
}

type categoryPayload struct {
	CategoryIDs []string `json:"categoryIds"`
}

type categoryCountPayload struct {
	CategoryIDs []string `json:"categoryIds"`
	Count       float64  `json:"count"`
}

type categoryAmountPayload struct {
	CategoryIDs []string `json:"categoryIds"`
	Amount      float64  `json:"amount"`
}

type brandAmountPayload struct {
	Brands []string `json:"brands"`
	Amount float64  `json:"amount"`
}

type productCountPayload struct {
	ProductIDs []string `json:"productIds"`
	Count      float64  `json:"count"`
}

type variantCountPayload struct {
	VariantIDs []string `json:"variantIds"`
	Count      float64  `json:"count"`
}

type productCodePayload struct {
	ProductIDs []string `json:"productIds"`
	MatchAll   bool     `json:"matchAll"`
}

type variantCodePayload struct {
	VariantIDs []string `json:"variantIds"`
	MatchAll   bool     `json:"matchAll"`
}

type zipRangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ---- handlers ----

// evalState checks the state resolved from the cart's CEP. When the postal
// lookup degraded to no state, the condition fails closed.
func evalState(cond promo.Condition, _ cart.Context, userState string) (bool, error) {
	var p statePayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	if userState == "" {
		return false, nil
	}
	return compareArray([]string{userState}, cond.Operator, p.States, false), nil
}

func evalFirstOrder(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p boolPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	return compareBoolean(c.IsFirstPurchase, cond.Operator, p.Value), nil
}

func evalCartItemCount(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p countPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	return compareNumber(float64(c.ItemCount()), cond.Operator, p.Count), nil
}

// evalCategory checks category membership across the cart.
// CONTAINS/NOT_CONTAINS test presence/absence of any overlap; EQUAL and EVERY
// both require every cart item to intersect the allow-list (the catalog has
// always treated EVERY as EQUAL here).
func evalCategory(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p categoryPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}

	switch cond.Operator {
	case promo.OpContains:
		for _, it := range c.Items {
			if it.HasCategory(p.CategoryIDs) {
				return true, nil
			}
		}
		return false, nil
	case promo.OpNotContains:
		for _, it := range c.Items {
			if it.HasCategory(p.CategoryIDs) {
				return false, nil
			}
		}
		return true, nil
	case promo.OpEqual, promo.OpEvery:
		if len(c.Items) == 0 {
			return false, nil
		}
		for _, it := range c.Items {
			if !it.HasCategory(p.CategoryIDs) {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("operator %q not supported for CATEGORY", cond.Operator)
	}
}

func evalCategoryItemCount(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p categoryCountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	count := 0
	for _, it := range c.Items {
		if it.HasCategory(p.CategoryIDs) {
			count += it.Quantity
		}
	}
	return compareNumber(float64(count), cond.Operator, p.Count), nil
}

func evalCategoryValue(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p categoryAmountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	sum := 0.0
	for _, it := range c.Items {
		if it.HasCategory(p.CategoryIDs) {
			sum += it.LineTotal()
		}
	}
	return compareNumber(sum, cond.Operator, p.Amount), nil
}

func evalBrandValue(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p brandAmountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	brands := toSet(p.Brands)
	sum := 0.0
	for _, it := range c.Items {
		if _, ok := brands[it.Brand]; ok {
			sum += it.LineTotal()
		}
	}
	return compareNumber(sum, cond.Operator, p.Amount), nil
}

// evalProductItemCount sums quantities, optionally restricted to a target
// product id set (empty set means the whole cart).
func evalProductItemCount(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p productCountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	targets := toSet(p.ProductIDs)
	count := 0
	for _, it := range c.Items {
		if len(targets) > 0 {
			if _, ok := targets[it.ProductID]; !ok {
				continue
			}
		}
		count += it.Quantity
	}
	return compareNumber(float64(count), cond.Operator, p.Count), nil
}

func evalUniqueVariantCount(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p variantCountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	targets := toSet(p.VariantIDs)
	seen := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		if it.VariantID == "" {
			continue
		}
		if len(targets) > 0 {
			if _, ok := targets[it.VariantID]; !ok {
				continue
			}
		}
		seen[it.VariantID] = struct{}{}
	}
	return compareNumber(float64(len(seen)), cond.Operator, p.Count), nil
}

func evalProductCode(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p productCodePayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	ids := make([]string, 0, len(c.Items))
	seen := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return compareArray(ids, cond.Operator, p.ProductIDs, p.MatchAll), nil
}

func evalVariantCode(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p variantCodePayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	ids := make([]string, 0, len(c.Items))
	seen := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		if it.VariantID == "" {
			continue
		}
		if _, ok := seen[it.VariantID]; ok {
			continue
		}
		seen[it.VariantID] = struct{}{}
		ids = append(ids, it.VariantID)
	}
	return compareArray(ids, cond.Operator, p.VariantIDs, p.MatchAll), nil
}

// evalZipCode performs a digit-only numeric range check on the cart's CEP.
// CONTAINS means from <= cep <= to; NOT_CONTAINS means outside the range.
func evalZipCode(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p zipRangePayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}

	cep, err := zipToInt(c.CEP)
	if err != nil {
		return false, err
	}
	from, err := zipToInt(p.From)
	if err != nil {
		return false, err
	}
	to, err := zipToInt(p.To)
	if err != nil {
		return false, err
	}

	inRange := cep >= from && cep <= to
	switch cond.Operator {
	case promo.OpContains:
		return inRange, nil
	case promo.OpNotContains:
		return !inRange, nil
	default:
		return false, fmt.Errorf("operator %q not supported for ZIP_CODE", cond.Operator)
	}
}

func evalSubtotalValue(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p amountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	return compareNumber(c.Subtotal, cond.Operator, p.Amount), nil
}

func evalShippingValue(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p amountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	return compareNumber(c.Shipping, cond.Operator, p.Amount), nil
}

func evalTotalValue(cond promo.Condition, c cart.Context, _ string) (bool, error) {
	var p amountPayload
	if err := decodePayload(cond.Value, &p); err != nil {
		return false, err
	}
	return compareNumber(c.Total, cond.Operator, p.Amount), nil
}

// zipToInt strips non-digits and parses the remainder, so zero-padded codes
// compare as integers regardless of formatting ("01310-100" vs "1310100").
func zipToInt(code string) (int64, error) {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("zip code %q has no digits", code)
	}
	return strconv.ParseInt(b.String(), 10, 64)
}
