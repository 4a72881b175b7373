package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"promoengine/internal/api"
	"promoengine/internal/promo"
)

// Client is an HTTP client for the promotion engine API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListPromotions retrieves every promotion in the catalog
func (c *Client) ListPromotions(ctx context.Context) ([]promo.Promotion, error) {
	var result struct {
		Promotions []promo.Promotion `json:"promotions"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/promotions", nil, &result); err != nil {
		return nil, err
	}
	return result.Promotions, nil
}

// GetPromotion retrieves a single promotion by id
func (c *Client) GetPromotion(ctx context.Context, id string) (*promo.Promotion, error) {
	var p promo.Promotion
	if err := c.do(ctx, http.MethodGet, "/v1/promotions/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPromotion creates or updates a promotion
func (c *Client) UpsertPromotion(ctx context.Context, p promo.Promotion) (string, error) {
	var result struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/promotions", p, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// DeletePromotion deletes a promotion by id
func (c *Client) DeletePromotion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/promotions/"+id, nil, nil)
}

// QuoteCart evaluates promotions against a cart without a coupon check
func (c *Client) QuoteCart(ctx context.Context, req api.CartRequest) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/v1/cart/promotions", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ValidateCoupon checks whether a coupon improves the cart outcome
func (c *Client) ValidateCoupon(ctx context.Context, req api.CartRequest) (*api.CouponValidationResponse, error) {
	var result api.CouponValidationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/coupons/validate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
