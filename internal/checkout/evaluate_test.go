package checkout

import (
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		lines          []CartLine
		wantViolations int
	}{
		{
			name: "giftboxes exceed physical gift cards",
			lines: []CartLine{
				{Quantity: 2, Type: "physical", ProductTitle: "Physical Gift Card"},
				{Quantity: 3, Giftbox: true, ProductTitle: "Luxury Hamper"},
			},
			wantViolations: 1,
		},
		{
			name: "equal quantities pass",
			lines: []CartLine{
				{Quantity: 3, Type: "physical"},
				{Quantity: 3, Giftbox: true},
			},
			wantViolations: 0,
		},
		{
			name: "fewer giftboxes pass",
			lines: []CartLine{
				{Quantity: 5, Type: "physical"},
				{Quantity: 2, Giftbox: true},
			},
			wantViolations: 0,
		},
		{
			name: "giftboxes without any gift card",
			lines: []CartLine{
				{Quantity: 1, Giftbox: true, ProductTitle: "Hamper"},
			},
			wantViolations: 1,
		},
		{
			name: "quantities accumulate across lines",
			lines: []CartLine{
				{Quantity: 1, Type: "physical"},
				{Quantity: 1, Type: "physical"},
				{Quantity: 3, Giftbox: true},
			},
			wantViolations: 1,
		},
		{
			name: "digital gift cards do not count",
			lines: []CartLine{
				{Quantity: 5, Type: "digital"},
				{Quantity: 1, Giftbox: true},
			},
			wantViolations: 1,
		},
		{
			name:           "empty cart",
			lines:          nil,
			wantViolations: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tc.lines)
			if len(got) != tc.wantViolations {
				t.Fatalf("Evaluate() returned %d violations, want %d: %+v", len(got), tc.wantViolations, got)
			}
		})
	}
}

func TestEvaluate_ViolationMessage(t *testing.T) {
	t.Parallel()

	got := Evaluate([]CartLine{
		{Quantity: 2, Type: "physical", ProductTitle: "Physical Gift Card"},
		{Quantity: 3, Giftbox: true, ProductTitle: "Luxury Hamper"},
	})
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %d", len(got))
	}
	v := got[0]
	if v.Target != "cart" {
		t.Fatalf("violation target = %q, want %q", v.Target, "cart")
	}
	if !strings.Contains(v.LocalizedMessage, `"Luxury Hamper"`) || !strings.Contains(v.LocalizedMessage, `"Physical Gift Card"`) {
		t.Fatalf("violation message missing product names: %q", v.LocalizedMessage)
	}
}

func TestEvaluate_FallbackNames(t *testing.T) {
	t.Parallel()

	got := Evaluate([]CartLine{
		{Quantity: 2, Giftbox: true},
	})
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %d", len(got))
	}
	msg := got[0].LocalizedMessage
	if !strings.Contains(msg, `"Gift Hamper"`) || !strings.Contains(msg, `"Physical Gift Card"`) {
		t.Fatalf("violation message missing fallback names: %q", msg)
	}
}

func TestEvaluate_VariantTitleFallback(t *testing.T) {
	t.Parallel()

	got := Evaluate([]CartLine{
		{Quantity: 1, Type: "physical", VariantTitle: "Gift Card / 250.00"},
		{Quantity: 2, Giftbox: true, VariantTitle: "Hamper / Large"},
	})
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %d", len(got))
	}
	msg := got[0].LocalizedMessage
	if !strings.Contains(msg, `"Hamper / Large"`) || !strings.Contains(msg, `"Gift Card / 250.00"`) {
		t.Fatalf("violation message should use variant titles when product titles are absent: %q", msg)
	}
}
