package churn

import (
	"math"

	"churnsight/domain/schema"
)

// DecisionThreshold is the fixed probability cutoff for the churn decision.
// The business has no cost-sensitive threshold requirement today; if that
// changes this is the single place to make it configurable.
const DecisionThreshold = 0.5

// Prediction is the classifier output for one customer.
// Decision is 1 iff Probability strictly exceeds the threshold, so a
// probability of exactly 0.5 decides 0 (stay).
type Prediction struct {
	Probability float64
	Decision    int
}

// NewPrediction derives the binary decision from a probability.
func NewPrediction(probability float64) Prediction {
	decision := 0
	if probability > DecisionThreshold {
		decision = 1
	}
	return Prediction{Probability: probability, Decision: decision}
}

// Round4 rounds a probability to four decimal digits. Applied only at the
// response boundary; internal comparisons keep full precision.
func Round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}

// RiskCategory buckets a churn probability for display.
func RiskCategory(p float64) string {
	switch {
	case p > 0.7:
		return "High"
	case p > 0.3:
		return "Medium"
	default:
		return "Low"
	}
}

// Attribution is one feature's signed contribution toward the churn class.
type Attribution struct {
	Feature   string  `json:"feature"`
	Impact    float64 `json:"impact"`
	AbsImpact float64 `json:"abs_impact"`
	Direction string  `json:"direction"`
}

// AttributionSet explains one prediction: per-feature contributions against
// a fixed background sample, sorted by descending absolute impact with ties
// broken by model feature order.
type AttributionSet struct {
	Entries   []Attribution
	BaseValue float64
}

// Top returns the n largest-magnitude entries, filtered to non-zero impact.
// The underlying set is never recomputed; both the key-driver list and the
// longer visualization list come from the same slice.
func (s AttributionSet) Top(n int, epsilon float64) []Attribution {
	out := make([]Attribution, 0, n)
	for _, e := range s.Entries {
		if e.AbsImpact <= epsilon {
			continue
		}
		out = append(out, e)
		if len(out) == n {
			break
		}
	}
	return out
}

// Sum returns the total signed contribution across all entries.
func (s AttributionSet) Sum() float64 {
	total := 0.0
	for _, e := range s.Entries {
		total += e.Impact
	}
	return total
}

// Priority tags a retention action by urgency.
type Priority string

const (
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ActionRecommendation is one human-readable retention lever. Delta-bearing
// recommendations come from a counterfactual diff; rule-triggered ones carry
// only the feature, advice, and priority.
type ActionRecommendation struct {
	Feature   string   `json:"feature"`
	Direction string   `json:"direction,omitempty"`
	Original  float64  `json:"original_value,omitempty"`
	Suggested float64  `json:"suggested_value,omitempty"`
	Delta     float64  `json:"delta,omitempty"`
	Action    string   `json:"action"`
	Priority  Priority `json:"priority,omitempty"`
}

// LabeledExample is one row of the labeled reference dataset the
// counterfactual search seeds from.
type LabeledExample struct {
	Vector schema.FeatureVector
	Churn  int
}

// Method identifies how a counterfactual result was produced.
const (
	MethodPrimary  = "primary"
	MethodFallback = "fallback"
)

// CounterfactualResult pairs an originating vector with whatever the engine
// produced: one or more flipped examples from the primary search, or rule
// triggers when the search found nothing. Method is always set so callers
// can distinguish confidence.
type CounterfactualResult struct {
	Method          string
	Original        schema.FeatureVector
	Counterfactuals []schema.FeatureVector
	RuleTriggers    []ActionRecommendation
	SearchReason    string
}
