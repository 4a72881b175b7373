package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"promoengine/internal/cart"
	"promoengine/internal/promo"
)

// contribution records one monetary action's share of a promotion so the
// display kind can be resolved afterwards: all-percent-and-identical renders
// as a percentage, anything else as a currency amount.
type contribution struct {
	percent bool
	pct     float64
}

// Outcome is the pure result of applying one promotion's actions to a cart.
// The orchestrator accumulates outcomes; nothing here mutates shared state.
type Outcome struct {
	ProductDelta  float64
	ShippingDelta float64
	FreeGifts     []FreeGift
	contributions []contribution
}

func (o *Outcome) addProduct(amount float64) {
	if amount <= 0 {
		return
	}
	o.ProductDelta += amount
	o.contributions = append(o.contributions, contribution{})
}

func (o *Outcome) addProductPercent(amount, pct float64) {
	if amount <= 0 {
		return
	}
	o.ProductDelta += amount
	o.contributions = append(o.contributions, contribution{percent: true, pct: pct})
}

func (o *Outcome) addShipping(amount float64) {
	if amount <= 0 {
		return
	}
	o.ShippingDelta += amount
	o.contributions = append(o.contributions, contribution{})
}

func (o *Outcome) addShippingPercent(amount, pct float64) {
	if amount <= 0 {
		return
	}
	o.ShippingDelta += amount
	o.contributions = append(o.contributions, contribution{percent: true, pct: pct})
}

// actionHandler applies one action type to the cart, accumulating into out.
// A returned error means the single action is skipped (logged by the caller);
// it never aborts the promotion or the engine run.
type actionHandler func(e *Engine, ctx context.Context, act promo.Action, c cart.Context, out *Outcome) error

var actionHandlers = map[promo.ActionType]actionHandler{
	promo.ActFixedShipping:          applyFixedShipping,
	promo.ActPercentShipping:        applyPercentShipping,
	promo.ActMaxShippingDiscount:    applyMaxShippingDiscount,
	promo.ActFixedSubtotal:          applyFixedSubtotal,
	promo.ActPercentSubtotal:        applyPercentSubtotal,
	promo.ActFixedProduct:           applyFixedProduct,
	promo.ActPercentProduct:         applyPercentProduct,
	promo.ActFixedVariant:           applyFixedVariant,
	promo.ActPercentVariant:         applyPercentVariant,
	promo.ActFixedBrand:             applyFixedBrand,
	promo.ActPercentBrand:           applyPercentBrand,
	promo.ActFixedCategory:          applyFixedCategory,
	promo.ActPercentCategory:        applyPercentCategory,
	promo.ActFixedTotalPerProduct:   applyFixedTotalPerProduct,
	promo.ActPercentTotalPerProduct: applyPercentTotalPerProduct,
	promo.ActPercentExtremeItem:     applyPercentExtremeItem,
	promo.ActFreeVariantItem:        applyFreeVariantItem,
	promo.ActFreeProductItem:        applyFreeProductItem,
}

// applyActions runs every action of a promotion whose conditions passed.
// Unrecognized action types are logged no-ops, keeping the engine forward
// compatible with action kinds defined by newer catalog versions.
func (e *Engine) applyActions(ctx context.Context, p promo.Promotion, c cart.Context) Outcome {
	var out Outcome
	for _, act := range p.Actions {
		handler, ok := actionHandlers[act.Type]
		if !ok {
			e.log.Warn().Str("promotion", p.ID).Str("type", string(act.Type)).
				Msg("unrecognized action type, skipping")
			continue
		}
		if err := handler(e, ctx, act, c, &out); err != nil {
			e.log.Warn().Err(err).Str("promotion", p.ID).Str("type", string(act.Type)).
				Msg("action skipped")
		}
	}
	return out
}

// ---- params ----

type amountParams struct {
	Amount float64 `json:"amount"`
}

type percentParams struct {
	Percent float64 `json:"percent"`
}

type productScopeParams struct {
	Amount     float64  `json:"amount,omitempty"`
	Percent    float64  `json:"percent,omitempty"`
	ProductIDs []string `json:"productIds"`
}

type variantScopeParams struct {
	Amount     float64  `json:"amount,omitempty"`
	Percent    float64  `json:"percent,omitempty"`
	VariantIDs []string `json:"variantIds"`
}

type brandScopeParams struct {
	Amount  float64  `json:"amount,omitempty"`
	Percent float64  `json:"percent,omitempty"`
	Brands  []string `json:"brands"`
}

type categoryScopeParams struct {
	Amount      float64  `json:"amount,omitempty"`
	Percent     float64  `json:"percent,omitempty"`
	CategoryIDs []string `json:"categoryIds"`
}

type perProductParams struct {
	Amount            float64  `json:"amount,omitempty"`
	Percent           float64  `json:"percent,omitempty"`
	ProductIDs        []string `json:"productIds,omitempty"`
	ExcludeProductIDs []string `json:"excludeProductIds,omitempty"`
}

type extremeItemParams struct {
	Percent    float64  `json:"percent"`
	VariantIDs []string `json:"variantIds,omitempty"`
	// Position selects which unit to discount: "lowest" (default) or "highest".
	Position string `json:"position,omitempty"`
}

type freeVariantParams struct {
	VariantIDs []string `json:"variantIds"`
	Quantity   int      `json:"quantity"`
}

type freeProductParams struct {
	ProductIDs []string `json:"productIds"`
	Quantity   int      `json:"quantity"`
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing params")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed params: %w", err)
	}
	return nil
}

// ---- shipping ----

func applyFixedShipping(_ *Engine, _ context.Context, act promo.Action, _ cart.Context, out *Outcome) error {
	var p amountParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	out.addShipping(p.Amount)
	return nil
}

func applyPercentShipping(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p percentParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	out.addShippingPercent(c.Shipping*p.Percent/100, p.Percent)
	return nil
}

// applyMaxShippingDiscount clamps the discount to the cart's shipping cost,
// so this action alone can never push the shipping discount past it.
func applyMaxShippingDiscount(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p amountParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	amount := p.Amount
	if amount > c.Shipping {
		amount = c.Shipping
	}
	out.addShipping(amount)
	return nil
}

// ---- subtotal ----

func applyFixedSubtotal(_ *Engine, _ context.Context, act promo.Action, _ cart.Context, out *Outcome) error {
	var p amountParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	out.addProduct(p.Amount)
	return nil
}

func applyPercentSubtotal(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p percentParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	out.addProductPercent(c.Subtotal*p.Percent/100, p.Percent)
	return nil
}

// ---- scoped fixed/percent ----

// scopedDiscount applies a per-unit fixed amount or a percentage of the line
// total to every cart item accepted by match.
func scopedDiscount(c cart.Context, amount, percent float64, match func(cart.Item) bool, out *Outcome) {
	for _, it := range c.Items {
		if !match(it) {
			continue
		}
		if percent > 0 {
			out.addProductPercent(it.LineTotal()*percent/100, percent)
		} else {
			out.addProduct(amount * float64(it.Quantity))
		}
	}
}

func applyFixedProduct(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p productScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	targets := toSet(p.ProductIDs)
	scopedDiscount(c, p.Amount, 0, func(it cart.Item) bool {
		_, ok := targets[it.ProductID]
		return ok
	}, out)
	return nil
}

func applyPercentProduct(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p productScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	targets := toSet(p.ProductIDs)
	scopedDiscount(c, 0, p.Percent, func(it cart.Item) bool {
		_, ok := targets[it.ProductID]
		return ok
	}, out)
	return nil
}

func applyFixedVariant(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p variantScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	targets := toSet(p.VariantIDs)
	scopedDiscount(c, p.Amount, 0, func(it cart.Item) bool {
		_, ok := targets[it.VariantID]
		return ok
	}, out)
	return nil
}

func applyPercentVariant(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p variantScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	targets := toSet(p.VariantIDs)
	scopedDiscount(c, 0, p.Percent, func(it cart.Item) bool {
		_, ok := targets[it.VariantID]
		return ok
	}, out)
	return nil
}

func applyFixedBrand(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p brandScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	brands := toSet(p.Brands)
	scopedDiscount(c, p.Amount, 0, func(it cart.Item) bool {
		_, ok := brands[it.Brand]
		return ok
	}, out)
	return nil
}

func applyPercentBrand(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p brandScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	brands := toSet(p.Brands)
	scopedDiscount(c, 0, p.Percent, func(it cart.Item) bool {
		_, ok := brands[it.Brand]
		return ok
	}, out)
	return nil
}

func applyFixedCategory(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p categoryScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	scopedDiscount(c, p.Amount, 0, func(it cart.Item) bool {
		return it.HasCategory(p.CategoryIDs)
	}, out)
	return nil
}

func applyPercentCategory(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p categoryScopeParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	scopedDiscount(c, 0, p.Percent, func(it cart.Item) bool {
		return it.HasCategory(p.CategoryIDs)
	}, out)
	return nil
}

// ---- per-product with allow/deny lists ----

func perProductMatch(p perProductParams) func(cart.Item) bool {
	allow := toSet(p.ProductIDs)
	deny := toSet(p.ExcludeProductIDs)
	return func(it cart.Item) bool {
		if _, excluded := deny[it.ProductID]; excluded {
			return false
		}
		if len(allow) > 0 {
			_, ok := allow[it.ProductID]
			return ok
		}
		return true
	}
}

func applyFixedTotalPerProduct(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p perProductParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	scopedDiscount(c, p.Amount, 0, perProductMatch(p), out)
	return nil
}

func applyPercentTotalPerProduct(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p perProductParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	scopedDiscount(c, 0, p.Percent, perProductMatch(p), out)
	return nil
}

// ---- extreme item ----

// applyPercentExtremeItem discounts a single unit: the cheapest or costliest
// one among the targeted variants (or the whole cart when untargeted).
func applyPercentExtremeItem(_ *Engine, _ context.Context, act promo.Action, c cart.Context, out *Outcome) error {
	var p extremeItemParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	targets := toSet(p.VariantIDs)
	highest := p.Position == "highest"

	found := false
	extreme := 0.0
	for _, it := range c.Items {
		if len(targets) > 0 {
			if _, ok := targets[it.VariantID]; !ok {
				continue
			}
		}
		if !found || (highest && it.UnitPrice > extreme) || (!highest && it.UnitPrice < extreme) {
			extreme = it.UnitPrice
			found = true
		}
	}
	if !found {
		return nil
	}
	out.addProductPercent(extreme*p.Percent/100, p.Percent)
	return nil
}

// ---- free gifts ----

// applyFreeVariantItem resolves display metadata for each target variant and
// appends a gift entry. A lookup failure degrades to a gift with a nil unit
// price instead of aborting the action.
func applyFreeVariantItem(e *Engine, ctx context.Context, act promo.Action, _ cart.Context, out *Outcome) error {
	var p freeVariantParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	qty := p.Quantity
	if qty <= 0 {
		qty = 1
	}
	for _, id := range p.VariantIDs {
		gift := FreeGift{VariantID: id, Quantity: qty, IsVariant: true}
		if v, err := e.catalog.GetVariant(ctx, id); err == nil {
			price := v.Price
			gift.SKU = v.SKU
			gift.Name = v.ProductName
			gift.UnitPrice = &price
		} else {
			e.log.Warn().Err(err).Str("variant", id).Msg("free gift lookup failed, emitting without price")
		}
		out.FreeGifts = append(out.FreeGifts, gift)
	}
	return nil
}

func applyFreeProductItem(e *Engine, ctx context.Context, act promo.Action, _ cart.Context, out *Outcome) error {
	var p freeProductParams
	if err := decodeParams(act.Params, &p); err != nil {
		return err
	}
	qty := p.Quantity
	if qty <= 0 {
		qty = 1
	}
	for _, id := range p.ProductIDs {
		gift := FreeGift{ProductID: id, Quantity: qty}
		if prod, err := e.catalog.GetProduct(ctx, id); err == nil {
			price := prod.Price
			gift.Name = prod.Name
			gift.UnitPrice = &price
		} else {
			e.log.Warn().Err(err).Str("product", id).Msg("free gift lookup failed, emitting without price")
		}
		out.FreeGifts = append(out.FreeGifts, gift)
	}
	return nil
}
