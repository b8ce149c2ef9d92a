package churn

import (
	"math"
	"testing"
)

func TestNewPrediction_DecisionBoundary(t *testing.T) {
	cases := []struct {
		probability float64
		decision    int
	}{
		{0.0, 0},
		{0.4999, 0},
		{0.5, 0}, // exactly on the threshold stays
		{0.5000001, 1},
		{0.9, 1},
		{1.0, 1},
	}
	for _, tc := range cases {
		got := NewPrediction(tc.probability)
		if got.Decision != tc.decision {
			t.Errorf("NewPrediction(%v).Decision = %d, want %d", tc.probability, got.Decision, tc.decision)
		}
		if got.Probability != tc.probability {
			t.Errorf("NewPrediction(%v) should keep full precision, got %v", tc.probability, got.Probability)
		}
	}
}

func TestRound4(t *testing.T) {
	cases := map[float64]float64{
		0.123456: 0.1235,
		0.12344:  0.1234,
		0.99995:  1.0,
		0:        0,
	}
	for in, want := range cases {
		if got := Round4(in); math.Abs(got-want) > 1e-12 {
			t.Errorf("Round4(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRiskCategory(t *testing.T) {
	cases := map[float64]string{
		0.1:  "Low",
		0.3:  "Low", // boundary is exclusive
		0.31: "Medium",
		0.7:  "Medium",
		0.71: "High",
		0.99: "High",
	}
	for p, want := range cases {
		if got := RiskCategory(p); got != want {
			t.Errorf("RiskCategory(%v) = %q, want %q", p, got, want)
		}
	}
}

func TestAttributionSet_Top(t *testing.T) {
	set := AttributionSet{Entries: []Attribution{
		{Feature: "A", Impact: 0.5, AbsImpact: 0.5},
		{Feature: "B", Impact: -0.3, AbsImpact: 0.3},
		{Feature: "C", Impact: 0, AbsImpact: 0},
		{Feature: "D", Impact: 0.1, AbsImpact: 0.1},
	}}

	top := set.Top(3, 1e-9)
	if len(top) != 3 {
		t.Fatalf("Top(3) returned %d entries", len(top))
	}
	// Zero-impact entries are filtered, order is preserved.
	want := []string{"A", "B", "D"}
	for i, name := range want {
		if top[i].Feature != name {
			t.Errorf("Top(3)[%d] = %s, want %s", i, top[i].Feature, name)
		}
	}

	if got := set.Top(2, 1e-9); len(got) != 2 {
		t.Errorf("Top(2) returned %d entries", len(got))
	}
}

func TestAttributionSet_Sum(t *testing.T) {
	set := AttributionSet{Entries: []Attribution{
		{Impact: 0.5}, {Impact: -0.3}, {Impact: 0.1},
	}}
	if got := set.Sum(); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("Sum = %v, want 0.3", got)
	}
}
