package api

import (
	"context"
	"errors"
	"fmt"
	"math"

	"promoengine/internal/cart"
	"promoengine/internal/engine"
	"promoengine/internal/store"
)

// CartItemRequest is one raw cart line. CategoryIDs and Brand may be supplied
// by the caller; when absent they are resolved from the product catalog
// before the engine runs.
type CartItemRequest struct {
	VariantID   string   `json:"variantId,omitempty"`
	ProductID   string   `json:"productId"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	Brand       string   `json:"brand,omitempty"`
}

// CartRequest is the public quote/coupon request body.
type CartRequest struct {
	CartItems       []CartItemRequest `json:"cartItems"`
	CustomerID      string            `json:"customer_id,omitempty"`
	IsFirstPurchase bool              `json:"isFirstPurchase"`
	CEP             string            `json:"cep,omitempty"`
	ShippingCost    float64           `json:"shippingCost"`
	Coupon          string            `json:"coupon,omitempty"`
}

// CouponValidationResponse is the coupon endpoint surface: promotions and
// discountTotal are present only when the coupon was accepted.
type CouponValidationResponse struct {
	Valid         bool                     `json:"valid"`
	Promotions    []engine.PromotionDetail `json:"promotions,omitempty"`
	DiscountTotal *float64                 `json:"discountTotal,omitempty"`
}

var errEmptyCart = errors.New("cart has no items")

// buildCart validates the raw lines and produces the resolved snapshot the
// engine consumes. Catalog misses degrade to empty category/brand metadata
// rather than failing the request.
func (s *Server) buildCart(ctx context.Context, req CartRequest) (cart.Context, error) {
	if len(req.CartItems) == 0 {
		return cart.Context{}, errEmptyCart
	}

	items := make([]cart.Item, 0, len(req.CartItems))
	subtotal := 0.0
	for i, line := range req.CartItems {
		if line.ProductID == "" {
			return cart.Context{}, fmt.Errorf("cartItems[%d]: productId is required", i)
		}
		if line.Quantity <= 0 {
			return cart.Context{}, fmt.Errorf("cartItems[%d]: quantity must be positive", i)
		}
		if line.UnitPrice < 0 {
			return cart.Context{}, fmt.Errorf("cartItems[%d]: unitPrice must not be negative", i)
		}

		item := cart.Item{
			VariantID:   line.VariantID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			CategoryIDs: line.CategoryIDs,
			Brand:       line.Brand,
		}
		if len(item.CategoryIDs) == 0 || item.Brand == "" {
			if p, err := s.catalog.GetProduct(ctx, line.ProductID); err == nil {
				if len(item.CategoryIDs) == 0 {
					item.CategoryIDs = p.CategoryIDs
				}
				if item.Brand == "" {
					item.Brand = p.Brand
				}
			} else if !errors.Is(err, store.ErrNotFound) {
				s.log.Warn().Err(err).Str("product", line.ProductID).Msg("product metadata lookup failed")
			}
		}

		subtotal += item.LineTotal()
		items = append(items, item)
	}

	subtotal = math.Round(subtotal*100) / 100
	return cart.Context{
		Items:           items,
		UserID:          req.CustomerID,
		IsFirstPurchase: req.IsFirstPurchase,
		CEP:             req.CEP,
		Subtotal:        subtotal,
		Shipping:        req.ShippingCost,
		Total:           math.Round((subtotal+req.ShippingCost)*100) / 100,
	}, nil
}
