// Package engine decides which promotions apply to a cart snapshot, computes
// the resulting discounts, collects free gifts and badges, and validates
// coupon codes. Each run is a pure computation over the injected catalog:
// the engine performs no writes and holds no state across calls.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"promoengine/internal/cart"
	"promoengine/internal/promo"
	"promoengine/internal/store"
	"promoengine/internal/targeting"
)

// PromotionSource supplies the active promotion catalog.
type PromotionSource interface {
	FindActive(ctx context.Context, now time.Time) ([]promo.Promotion, error)
}

// CatalogLookup resolves display metadata for free-gift actions.
type CatalogLookup interface {
	GetProduct(ctx context.Context, id string) (store.Product, error)
	GetVariant(ctx context.Context, id string) (store.Variant, error)
}

// StateResolver maps a postal code to a state code, best-effort. A false
// return means the state is unknown; STATE conditions then fail closed.
// Implementations must never block past their own timeout.
type StateResolver interface {
	StateFor(ctx context.Context, cep string) (string, bool)
}

// Engine composes the promotion selector, condition evaluator and action
// applier over injected dependencies.
type Engine struct {
	promotions PromotionSource
	catalog    CatalogLookup
	states     StateResolver
	log        zerolog.Logger
	now        func() time.Time
}

// New creates an engine. states may be nil when no postal resolution is
// available; STATE conditions will then never pass.
func New(promotions PromotionSource, catalog CatalogLookup, states StateResolver, log zerolog.Logger) *Engine {
	return &Engine{
		promotions: promotions,
		catalog:    catalog,
		states:     states,
		log:        log,
		now:        time.Now,
	}
}

// Apply evaluates the active catalog against the cart and returns the
// aggregate result. couponCode may be empty. The only error returned is an
// infrastructure failure reading the catalog; business-data problems degrade
// per item and never abort the run.
func (e *Engine) Apply(ctx context.Context, c cart.Context, couponCode string) (Result, error) {
	active, err := e.promotions.FindActive(ctx, e.now())
	if err != nil {
		return Result{}, fmt.Errorf("load active promotions: %w", err)
	}

	userState := e.resolveState(ctx, c.CEP)

	result := Result{
		FreeGifts:    []FreeGift{},
		Badges:       map[string]promo.Badge{},
		Descriptions: []string{},
		Promotions:   []PromotionDetail{},
	}

	var productDiscount, shippingDiscount float64
	for _, p := range selectPromotions(active, couponCode) {
		if !e.promotionMatches(p, c, userState) {
			continue
		}

		outcome := e.applyActions(ctx, p, c)
		deltaProduct := round2(outcome.ProductDelta)
		deltaShipping := round2(outcome.ShippingDelta)
		delta := round2(deltaProduct + deltaShipping)

		productDiscount += deltaProduct
		shippingDiscount += deltaShipping
		result.FreeGifts = append(result.FreeGifts, outcome.FreeGifts...)
		applyBadges(p, c, result.Badges)

		result.Promotions = append(result.Promotions, PromotionDetail{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Discount:    delta,
			Type:        classifyDiscount(deltaProduct, deltaShipping),
			Display:     resolveDisplay(outcome.contributions, delta),
		})
		result.Descriptions = append(result.Descriptions, p.Description)

		// A non-cumulative promotion is the last one applied.
		if !p.Cumulative {
			break
		}
	}

	result.ProductDiscount = round2(productDiscount)
	result.ShippingDiscount = round2(shippingDiscount)
	result.DiscountTotal = round2(result.ProductDiscount + result.ShippingDiscount)
	return result, nil
}

// resolveState resolves the buyer's state from the cart CEP once per run.
// Resolution is best-effort; failures degrade to an unknown state.
func (e *Engine) resolveState(ctx context.Context, cep string) string {
	if cep == "" || e.states == nil {
		return ""
	}
	state, ok := e.states.StateFor(ctx, cep)
	if !ok {
		return ""
	}
	return state
}

// promotionMatches runs the optional JSON Logic expression and the ordered
// condition list. Both are fail-closed.
func (e *Engine) promotionMatches(p promo.Promotion, c cart.Context, userState string) bool {
	if p.Expression != nil && *p.Expression != "" {
		match, err := targeting.Evaluate(*p.Expression, targeting.CartAttributes(c, userState))
		if err != nil || !match {
			if err != nil {
				e.log.Warn().Err(err).Str("promotion", p.ID).Msg("expression evaluation failed, failing closed")
			}
			return false
		}
	}
	return e.evalConditions(p.Conditions, c, userState)
}

// applyBadges records the promotion's badges: per linked variant when links
// exist, otherwise for every cart item.
func applyBadges(p promo.Promotion, c cart.Context, badges map[string]promo.Badge) {
	if len(p.Badges) == 0 {
		return
	}
	for _, badge := range p.Badges {
		if len(p.VariantLinks) > 0 {
			for _, link := range p.VariantLinks {
				badges[link.VariantID] = badge
			}
			continue
		}
		for _, it := range c.Items {
			badges[it.Key()] = badge
		}
	}
}

// classifyDiscount labels where the promotion's delta landed.
func classifyDiscount(deltaProduct, deltaShipping float64) DiscountType {
	switch {
	case deltaProduct > 0 && deltaShipping > 0:
		return DiscountMixed
	case deltaShipping > 0:
		return DiscountShipping
	case deltaProduct > 0:
		return DiscountProduct
	default:
		return DiscountMixed
	}
}

// resolveDisplay derives the UI hint: percent when every contribution used
// the same percentage, currency when any fixed amount occurred or the
// percentages differed, none when the promotion produced no discount.
func resolveDisplay(contributions []contribution, delta float64) Display {
	if delta == 0 {
		return Display{Kind: DisplayNone}
	}

	allPercent := len(contributions) > 0
	pct := 0.0
	for i, cb := range contributions {
		if !cb.percent {
			allPercent = false
			break
		}
		if i == 0 {
			pct = cb.pct
		} else if cb.pct != pct {
			allPercent = false
			break
		}
	}

	if allPercent {
		return Display{Kind: DisplayPercent, Percent: pct, Amount: delta}
	}
	return Display{Kind: DisplayCurrency, Amount: delta}
}

// round2 rounds half away from zero to two decimals, the same arithmetic the
// storefront uses for money.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
