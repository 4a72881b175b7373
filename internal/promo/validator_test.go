package promo

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validPromotion() Promotion {
	return Promotion{
		ID:     "p1",
		Name:   "ten off",
		Status: StatusAvailable,
		Conditions: []Condition{
			{Type: CondSubtotalValue, Operator: OpGreaterEqual, Value: json.RawMessage(`{"amount": 100}`)},
		},
		Actions: []Action{
			{Type: ActPercentSubtotal, Params: json.RawMessage(`{"percent": 10}`)},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validPromotion()); err != nil {
		t.Errorf("Expected valid promotion, got %v", err)
	}
}

func TestValidate_Promotion(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name   string
		mutate func(*Promotion)
		want   error
	}{
		{"empty name", func(p *Promotion) { p.Name = "" }, ErrInvalidPromotion},
		{"unknown status", func(p *Promotion) { p.Status = "DRAFT" }, ErrInvalidPromotion},
		{"scheduled without start", func(p *Promotion) { p.Status = StatusScheduledAvailable }, ErrInvalidPromotion},
		{"end before start", func(p *Promotion) { p.StartDate = &now; p.EndDate = &earlier }, ErrInvalidPromotion},
		{"coupon gate without codes", func(p *Promotion) { p.HasCoupon = true }, ErrInvalidPromotion},
		{"no actions", func(p *Promotion) { p.Actions = nil }, ErrInvalidPromotion},
		{"unknown condition type", func(p *Promotion) { p.Conditions[0].Type = "WEATHER" }, ErrInvalidCondition},
		{"unknown operator", func(p *Promotion) { p.Conditions[0].Operator = "ALMOST_EQUAL" }, ErrInvalidOperator},
		{"bad condition JSON", func(p *Promotion) { p.Conditions[0].Value = json.RawMessage(`{`) }, ErrInvalidCondition},
		{"empty action type", func(p *Promotion) { p.Actions[0].Type = "" }, ErrInvalidAction},
		{"bad action JSON", func(p *Promotion) { p.Actions[0].Params = json.RawMessage(`{`) }, ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPromotion()
			tt.mutate(&p)
			if err := Validate(p); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate_UnknownActionTypeAllowed(t *testing.T) {
	p := validPromotion()
	p.Actions[0].Type = "FUTURE_ACTION_KIND"
	if err := Validate(p); err != nil {
		t.Errorf("Expected unknown action types to pass validation, got %v", err)
	}
}

func TestActiveAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	available := Promotion{Status: StatusAvailable}
	if !available.ActiveAt(now) {
		t.Error("Expected AVAILABLE to always be active")
	}

	running := Promotion{Status: StatusScheduledAvailable, StartDate: &past, EndDate: &future}
	if !running.ActiveAt(now) {
		t.Error("Expected in-window scheduled promotion to be active")
	}

	upcoming := Promotion{Status: StatusScheduledAvailable, StartDate: &future}
	if upcoming.ActiveAt(now) {
		t.Error("Expected future scheduled promotion to be inactive")
	}

	expired := Promotion{Status: StatusScheduledAvailable, StartDate: &past, EndDate: &past}
	if expired.ActiveAt(now) {
		t.Error("Expected expired scheduled promotion to be inactive")
	}

	openEnded := Promotion{Status: StatusScheduledAvailable, StartDate: &past}
	if !openEnded.ActiveAt(now) {
		t.Error("Expected open-ended scheduled promotion to be active")
	}

	other := Promotion{Status: "DRAFT"}
	if other.ActiveAt(now) {
		t.Error("Expected unknown status to be inactive")
	}
}

func TestMatchesCoupon(t *testing.T) {
	p := Promotion{Coupons: []Coupon{{Code: "FreteGratis"}, {Code: " SAVE10 "}}}

	if !p.MatchesCoupon("FRETEGRATIS") {
		t.Error("Expected case-insensitive match")
	}
	if !p.MatchesCoupon("  save10 ") {
		t.Error("Expected trimmed match")
	}
	if p.MatchesCoupon("GHOST") {
		t.Error("Expected unknown code not to match")
	}
	if p.MatchesCoupon("") {
		t.Error("Expected empty code not to match")
	}
	if p.MatchesCoupon("   ") {
		t.Error("Expected blank code not to match")
	}
}
