package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"promoengine/internal/cart"
)

// ValidateCoupon decides whether a coupon is accepted for the cart by
// comparing a no-coupon run against a coupon run. The two runs are
// independent and side-effect free, so they execute concurrently over the
// same immutable snapshot.
//
// The coupon is accepted when it strictly improves the outcome: a larger
// discount total, more free gifts, or a promotion that the base run did not
// apply. On rejection no result is returned; callers must not apply a
// rejected coupon's discounts.
func (e *Engine) ValidateCoupon(ctx context.Context, c cart.Context, code string) (CouponValidation, error) {
	var base, withCoupon Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = e.Apply(gctx, c, "")
		return err
	})
	g.Go(func() error {
		var err error
		withCoupon, err = e.Apply(gctx, c, code)
		return err
	})
	if err := g.Wait(); err != nil {
		return CouponValidation{}, err
	}

	if !couponImproved(base, withCoupon) {
		return CouponValidation{Valid: false}, nil
	}
	return CouponValidation{Valid: true, Result: &withCoupon}, nil
}

func couponImproved(base, withCoupon Result) bool {
	if withCoupon.DiscountTotal > base.DiscountTotal {
		return true
	}
	if len(withCoupon.FreeGifts) > len(base.FreeGifts) {
		return true
	}

	baseIDs := make(map[string]struct{}, len(base.Promotions))
	for _, d := range base.Promotions {
		baseIDs[d.ID] = struct{}{}
	}
	for _, d := range withCoupon.Promotions {
		if _, ok := baseIDs[d.ID]; !ok {
			return true
		}
	}
	return false
}
