package engine

import (
	"promoengine/internal/promo"
)

// Comparators are pure predicate functions shared by condition evaluation.
// Unknown operators compare to false; the evaluator is fail-closed.

func compareNumber(actual float64, op promo.Operator, expected float64) bool {
	switch op {
	case promo.OpEqual:
		return actual == expected
	case promo.OpNotEqual:
		return actual != expected
	case promo.OpGreater:
		return actual > expected
	case promo.OpGreaterEqual:
		return actual >= expected
	case promo.OpLess:
		return actual < expected
	case promo.OpLessEqual:
		return actual <= expected
	default:
		return false
	}
}

// compareBoolean treats EQUAL as equality and every other operator as
// inequality, mirroring the catalog's historical payloads.
func compareBoolean(actual bool, op promo.Operator, expected bool) bool {
	if op == promo.OpEqual {
		return actual == expected
	}
	return actual != expected
}

// compareArray compares the cart-derived set against the expected set.
//
//	CONTAINS:     every expected element in actual when matchAll, else any.
//	              An empty expected set can match nothing and yields false.
//	NOT_CONTAINS: none of expected in actual (vacuously true when empty).
//	EQUAL:        same length and same element set.
//	NOT_EQUAL:    negation of EQUAL.
func compareArray(actual []string, op promo.Operator, expected []string, matchAll bool) bool {
	actualSet := toSet(actual)

	switch op {
	case promo.OpContains:
		if len(expected) == 0 {
			return false
		}
		if matchAll {
			for _, want := range expected {
				if _, ok := actualSet[want]; !ok {
					return false
				}
			}
			return true
		}
		for _, want := range expected {
			if _, ok := actualSet[want]; ok {
				return true
			}
		}
		return false

	case promo.OpNotContains:
		for _, want := range expected {
			if _, ok := actualSet[want]; ok {
				return false
			}
		}
		return true

	case promo.OpEqual:
		return sameSet(actual, expected, actualSet)

	case promo.OpNotEqual:
		return !sameSet(actual, expected, actualSet)

	default:
		return false
	}
}

func sameSet(actual, expected []string, actualSet map[string]struct{}) bool {
	if len(actual) != len(expected) {
		return false
	}
	expectedSet := toSet(expected)
	if len(actualSet) != len(expectedSet) {
		return false
	}
	for k := range expectedSet {
		if _, ok := actualSet[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
