package cart

import "testing"

func TestItemKey(t *testing.T) {
	if got := (Item{VariantID: "v1", ProductID: "p1"}).Key(); got != "v1" {
		t.Errorf("Expected variant id, got %s", got)
	}
	if got := (Item{ProductID: "p1"}).Key(); got != "p1" {
		t.Errorf("Expected product id fallback, got %s", got)
	}
}

func TestItemLineTotal(t *testing.T) {
	it := Item{Quantity: 3, UnitPrice: 19.9}
	if got := it.LineTotal(); got != 59.7 {
		t.Errorf("Expected 59.7, got %v", got)
	}
}

func TestItemHasCategory(t *testing.T) {
	it := Item{CategoryIDs: []string{"shoes", "sale"}}

	if !it.HasCategory([]string{"sale", "hats"}) {
		t.Error("Expected overlap to match")
	}
	if it.HasCategory([]string{"hats"}) {
		t.Error("Expected no overlap not to match")
	}
	if it.HasCategory(nil) {
		t.Error("Expected empty query not to match")
	}
	if (Item{}).HasCategory([]string{"shoes"}) {
		t.Error("Expected uncategorized item not to match")
	}
}

func TestContextItemCount(t *testing.T) {
	c := Context{Items: []Item{{Quantity: 2}, {Quantity: 3}}}
	if got := c.ItemCount(); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
	if got := (Context{}).ItemCount(); got != 0 {
		t.Errorf("Expected 0 for empty cart, got %d", got)
	}
}
