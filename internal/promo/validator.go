package promo

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by Validate.
var (
	ErrInvalidPromotion = errors.New("invalid promotion")
	ErrInvalidOperator  = errors.New("invalid operator")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidAction    = errors.New("invalid action")
)

// validOperators is the set of all recognised condition operators.
var validOperators = map[Operator]struct{}{
	OpEqual:        {},
	OpNotEqual:     {},
	OpGreater:      {},
	OpGreaterEqual: {},
	OpLess:         {},
	OpLessEqual:    {},
	OpContains:     {},
	OpNotContains:  {},
	OpEvery:        {},
}

var validConditionTypes = map[ConditionType]struct{}{
	CondState:              {},
	CondFirstOrder:         {},
	CondCartItemCount:      {},
	CondCategory:           {},
	CondCategoryItemCount:  {},
	CondCategoryValue:      {},
	CondBrandValue:         {},
	CondProductItemCount:   {},
	CondUniqueVariantCount: {},
	CondProductCode:        {},
	CondVariantCode:        {},
	CondZipCode:            {},
	CondSubtotalValue:      {},
	CondShippingValue:      {},
	CondTotalValue:         {},
}

// Validate performs strict validation of a promotion definition before it is
// written to the catalog. The engine itself is lenient (fail-closed) with bad
// payloads; this guard exists so the admin surface rejects them up front.
// It is a pure function: it never mutates p and has no side effects.
//
// Action types are deliberately NOT validated against a closed set: the
// engine treats unrecognized action kinds as no-ops, so a catalog may carry
// actions introduced by a newer engine version.
func Validate(p Promotion) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidPromotion)
	}

	if p.Status != StatusAvailable && p.Status != StatusScheduledAvailable {
		return fmt.Errorf("%w: status %q is not supported", ErrInvalidPromotion, p.Status)
	}

	if p.Status == StatusScheduledAvailable && p.StartDate == nil {
		return fmt.Errorf("%w: scheduled promotion requires a start date", ErrInvalidPromotion)
	}

	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidPromotion)
	}

	if p.HasCoupon && len(p.Coupons) == 0 {
		return fmt.Errorf("%w: coupon-gated promotion has no coupon codes", ErrInvalidPromotion)
	}

	if len(p.Actions) == 0 {
		return fmt.Errorf("%w: promotion must have at least one action", ErrInvalidPromotion)
	}

	for i, c := range p.Conditions {
		if err := validateCondition(i, c); err != nil {
			return err
		}
	}

	for i, a := range p.Actions {
		if err := validateAction(i, a); err != nil {
			return err
		}
	}

	return nil
}

func validateCondition(i int, c Condition) error {
	if _, ok := validConditionTypes[c.Type]; !ok {
		return fmt.Errorf("%w: condition[%d] type %q is not supported", ErrInvalidCondition, i, c.Type)
	}

	if _, ok := validOperators[c.Operator]; !ok {
		return fmt.Errorf("%w: condition[%d] operator %q is not supported", ErrInvalidOperator, i, c.Operator)
	}

	if len(c.Value) > 0 && !json.Valid(c.Value) {
		return fmt.Errorf("%w: condition[%d] value is not valid JSON", ErrInvalidCondition, i)
	}

	return nil
}

func validateAction(i int, a Action) error {
	if a.Type == "" {
		return fmt.Errorf("%w: action[%d] type must not be empty", ErrInvalidAction, i)
	}

	if len(a.Params) > 0 && !json.Valid(a.Params) {
		return fmt.Errorf("%w: action[%d] params is not valid JSON", ErrInvalidAction, i)
	}

	return nil
}
