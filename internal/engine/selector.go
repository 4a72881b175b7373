package engine

import (
	"sort"
	"strings"

	"promoengine/internal/promo"
)

// selectPromotions produces the priority-ordered application list.
//
// Automatic promotions (no coupon) always participate. Coupon-gated
// promotions participate only when the supplied code matches; if the
// highest-priority match disallows multiple coupons, it is the only coupon
// promotion kept.
func selectPromotions(active []promo.Promotion, couponCode string) []promo.Promotion {
	code := strings.TrimSpace(couponCode)

	auto := make([]promo.Promotion, 0, len(active))
	var couponMatches []promo.Promotion
	for _, p := range active {
		if !p.HasCoupon {
			auto = append(auto, p)
			continue
		}
		if code != "" && p.MatchesCoupon(code) {
			couponMatches = append(couponMatches, p)
		}
	}

	if len(couponMatches) > 0 {
		sortDescending(couponMatches)
		if !couponMatches[0].MultipleCoupons {
			couponMatches = couponMatches[:1]
		}
	}

	ordered := append(auto, couponMatches...)
	sortDescending(ordered)
	return ordered
}

func sortDescending(promotions []promo.Promotion) {
	sort.SliceStable(promotions, func(i, j int) bool {
		return promotions[i].Priority > promotions[j].Priority
	})
}
