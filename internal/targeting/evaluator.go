// Package targeting provides free-form expression evaluation for promotions.
// It uses JSON Logic (jsonlogic.com) for evaluating an optional promotion
// expression against cart attributes, complementing the typed condition list.
package targeting

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"promoengine/internal/cart"
)

// CartContext represents cart attributes for expression evaluation.
// Common attributes include:
//   - subtotal, shipping, total: monetary amounts (number)
//   - itemCount: sum of all line quantities (number)
//   - firstPurchase: whether this is the buyer's first order (bool)
//   - state: state code resolved from the CEP, "" when unknown (string)
//   - brands, categoryIds, productIds, variantIds: cart contents (arrays)
type CartContext map[string]any

// ErrInvalidExpression is returned when an expression is not valid JSON Logic.
var ErrInvalidExpression = errors.New("invalid expression: not valid JSON Logic")

// ErrEmptyExpression is returned when an expression is empty or whitespace.
var ErrEmptyExpression = errors.New("invalid expression: empty or whitespace")

// CartAttributes flattens the cart snapshot into the attribute map
// expressions evaluate against.
func CartAttributes(c cart.Context, state string) CartContext {
	brands := make([]string, 0, len(c.Items))
	categoryIDs := make([]string, 0, len(c.Items))
	productIDs := make([]string, 0, len(c.Items))
	variantIDs := make([]string, 0, len(c.Items))
	seenBrand := map[string]struct{}{}
	seenCategory := map[string]struct{}{}
	for _, it := range c.Items {
		productIDs = append(productIDs, it.ProductID)
		if it.VariantID != "" {
			variantIDs = append(variantIDs, it.VariantID)
		}
		if it.Brand != "" {
			if _, ok := seenBrand[it.Brand]; !ok {
				seenBrand[it.Brand] = struct{}{}
				brands = append(brands, it.Brand)
			}
		}
		for _, id := range it.CategoryIDs {
			if _, ok := seenCategory[id]; !ok {
				seenCategory[id] = struct{}{}
				categoryIDs = append(categoryIDs, id)
			}
		}
	}

	return CartContext{
		"subtotal":      c.Subtotal,
		"shipping":      c.Shipping,
		"total":         c.Total,
		"itemCount":     c.ItemCount(),
		"firstPurchase": c.IsFirstPurchase,
		"state":         state,
		"brands":        brands,
		"categoryIds":   categoryIDs,
		"productIds":    productIDs,
		"variantIds":    variantIDs,
	}
}

// Evaluate evaluates a JSON Logic expression against cart attributes.
// Returns true if the cart matches the expression, false otherwise.
// Returns an error if the expression is invalid.
func Evaluate(expression string, attrs CartContext) (bool, error) {
	if strings.TrimSpace(expression) == "" {
		return false, ErrEmptyExpression
	}

	dataBytes, err := json.Marshal(attrs)
	if err != nil {
		return false, err
	}

	ruleReader := strings.NewReader(expression)
	dataReader := bytes.NewReader(dataBytes)
	var resultBuf bytes.Buffer

	// Apply the rule - this will fail if expression is not valid JSON
	if err := jsonlogic.Apply(ruleReader, dataReader, &resultBuf); err != nil {
		return false, ErrInvalidExpression
	}

	var result any
	if err := json.Unmarshal(resultBuf.Bytes(), &result); err != nil {
		return false, err
	}

	// Convert to bool following JavaScript-like truthiness
	return isTruthy(result), nil
}

// ValidateExpression checks if an expression is valid JSON Logic.
// Returns nil if valid, or an error describing why it's invalid.
func ValidateExpression(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return ErrEmptyExpression
	}

	var rule any
	if err := json.Unmarshal([]byte(expression), &rule); err != nil {
		return ErrInvalidExpression
	}

	ruleReader := strings.NewReader(expression)
	dataReader := strings.NewReader("{}")
	var resultBuf bytes.Buffer

	if err := jsonlogic.Apply(ruleReader, dataReader, &resultBuf); err != nil {
		return ErrInvalidExpression
	}

	return nil
}

// isTruthy follows JavaScript-like truthiness rules.
// Returns true for non-zero numbers, non-empty strings, non-empty
// arrays/objects, and true boolean.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
