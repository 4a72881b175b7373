// Package cart defines the immutable cart snapshot consumed by the promotion
// engine. Category ids and brand are resolved by the caller before the
// snapshot is built; the engine never performs those lookups itself.
package cart

// Item is a single resolved cart line.
type Item struct {
	VariantID   string   `json:"variantId,omitempty"`
	ProductID   string   `json:"productId"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	Brand       string   `json:"brand,omitempty"`
}

// Key identifies the item in badge maps: the variant id when present,
// the product id otherwise.
func (i Item) Key() string {
	if i.VariantID != "" {
		return i.VariantID
	}
	return i.ProductID
}

// LineTotal is quantity times unit price.
func (i Item) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// HasCategory reports whether the item belongs to any of the given categories.
func (i Item) HasCategory(categoryIDs []string) bool {
	for _, want := range categoryIDs {
		for _, have := range i.CategoryIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Context is the read-only snapshot of cart contents and buyer metadata fed
// into the engine. Subtotal and Shipping are caller-computed; Total is
// informational.
type Context struct {
	Items           []Item  `json:"items"`
	UserID          string  `json:"userId,omitempty"`
	IsFirstPurchase bool    `json:"isFirstPurchase"`
	CEP             string  `json:"cep,omitempty"`
	Subtotal        float64 `json:"subtotal"`
	Shipping        float64 `json:"shipping"`
	Total           float64 `json:"total"`
}

// ItemCount is the sum of all line quantities.
func (c Context) ItemCount() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}
