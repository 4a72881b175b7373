package engine

import (
	"testing"

	"promoengine/internal/promo"
)

func TestCompareNumber(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		op       promo.Operator
		expected float64
		want     bool
	}{
		{"equal match", 10, promo.OpEqual, 10, true},
		{"equal mismatch", 10, promo.OpEqual, 11, false},
		{"not equal", 10, promo.OpNotEqual, 11, true},
		{"greater", 10, promo.OpGreater, 9, true},
		{"greater boundary", 10, promo.OpGreater, 10, false},
		{"greater equal boundary", 10, promo.OpGreaterEqual, 10, true},
		{"less", 9, promo.OpLess, 10, true},
		{"less equal boundary", 10, promo.OpLessEqual, 10, true},
		{"unknown operator fails closed", 10, promo.Operator("BOGUS"), 10, false},
		{"contains is not numeric", 10, promo.OpContains, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareNumber(tt.actual, tt.op, tt.expected); got != tt.want {
				t.Errorf("compareNumber(%v, %s, %v) = %v, want %v", tt.actual, tt.op, tt.expected, got, tt.want)
			}
		})
	}
}

func TestCompareBoolean(t *testing.T) {
	if !compareBoolean(true, promo.OpEqual, true) {
		t.Error("Expected EQUAL true/true to pass")
	}
	if compareBoolean(true, promo.OpEqual, false) {
		t.Error("Expected EQUAL true/false to fail")
	}
	// any non-EQUAL operator means inequality
	if !compareBoolean(true, promo.OpNotEqual, false) {
		t.Error("Expected NOT_EQUAL true/false to pass")
	}
	if compareBoolean(true, promo.OpNotEqual, true) {
		t.Error("Expected NOT_EQUAL true/true to fail")
	}
}

func TestCompareArray_Contains(t *testing.T) {
	actual := []string{"a", "b", "c"}

	if !compareArray(actual, promo.OpContains, []string{"b"}, false) {
		t.Error("Expected CONTAINS any to pass when one element present")
	}
	if !compareArray(actual, promo.OpContains, []string{"b", "z"}, false) {
		t.Error("Expected CONTAINS any to pass when at least one element present")
	}
	if compareArray(actual, promo.OpContains, []string{"b", "z"}, true) {
		t.Error("Expected CONTAINS all to fail when one element missing")
	}
	if !compareArray(actual, promo.OpContains, []string{"a", "c"}, true) {
		t.Error("Expected CONTAINS all to pass when all elements present")
	}
	if compareArray(actual, promo.OpContains, nil, false) {
		t.Error("Expected CONTAINS with empty expected set to fail")
	}
}

func TestCompareArray_NotContains(t *testing.T) {
	actual := []string{"a", "b"}

	if !compareArray(actual, promo.OpNotContains, []string{"z"}, false) {
		t.Error("Expected NOT_CONTAINS to pass when no overlap")
	}
	if compareArray(actual, promo.OpNotContains, []string{"b"}, false) {
		t.Error("Expected NOT_CONTAINS to fail when overlap exists")
	}
	if !compareArray(actual, promo.OpNotContains, nil, false) {
		t.Error("Expected NOT_CONTAINS with empty expected set to pass vacuously")
	}
}

func TestCompareArray_Equal(t *testing.T) {
	if !compareArray([]string{"a", "b"}, promo.OpEqual, []string{"b", "a"}, false) {
		t.Error("Expected EQUAL to ignore order")
	}
	if compareArray([]string{"a", "b"}, promo.OpEqual, []string{"a"}, false) {
		t.Error("Expected EQUAL to fail on different lengths")
	}
	if !compareArray([]string{"a"}, promo.OpNotEqual, []string{"b"}, false) {
		t.Error("Expected NOT_EQUAL to pass on different sets")
	}
	if compareArray([]string{"a"}, promo.Operator("BOGUS"), []string{"a"}, false) {
		t.Error("Expected unknown operator to fail closed")
	}
}
