package counterfactual

import (
	"churnsight/domain/churn"
	"churnsight/domain/schema"
)

// Rule is one deterministic retention trigger evaluated directly against the
// raw input and the already-computed churn probability. Rules are
// independent: every matching rule fires, none is exclusive.
type Rule struct {
	Name      string
	Feature   string
	Direction string
	Priority  churn.Priority
	Advice    string
	Applies   func(v schema.FeatureVector, probability float64) bool
}

func flag(v schema.FeatureVector, name string) bool {
	val, _ := v.Value(name)
	return val != 0
}

func value(v schema.FeatureVector, name string) float64 {
	val, _ := v.Value(name)
	return val
}

// DefaultRules is the production retention rule table. It fires whenever the
// primary counterfactual search comes back empty, which is the common case
// for customers whose actionable levers cannot reach the decision boundary.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "low_satisfaction",
			Feature:   "Satisfaction_Score",
			Direction: "increase",
			Priority:  churn.PriorityHigh,
			Advice:    "Customer reports very low satisfaction. Schedule an urgent outreach call within 48 hours.",
			Applies: func(v schema.FeatureVector, _ float64) bool {
				return value(v, "Satisfaction_Score") <= 2
			},
		},
		{
			Name:      "high_monthly_charge",
			Feature:   "Monthly_Charge",
			Direction: "decrease",
			Priority:  churn.PriorityHigh,
			Advice:    "Monthly charge exceeds the retention comfort band. Offer a targeted discount or plan review.",
			Applies: func(v schema.FeatureVector, _ float64) bool {
				return value(v, "Monthly_Charge") > 80
			},
		},
		{
			Name:      "early_tenure",
			Feature:   "Tenure_in_Months",
			Direction: "increase",
			Priority:  churn.PriorityMedium,
			Advice:    "Customer is in the first six months. Enroll in the onboarding success program.",
			Applies: func(v schema.FeatureVector, _ float64) bool {
				return value(v, "Tenure_in_Months") < 6
			},
		},
		{
			Name:      "no_premium_services",
			Feature:   "Premium_Tech_Support",
			Direction: "increase",
			Priority:  churn.PriorityMedium,
			Advice:    "No premium services subscribed. Propose a security and support bundle at introductory pricing.",
			Applies: func(v schema.FeatureVector, _ float64) bool {
				return !flag(v, "Online_Security") && !flag(v, "Online_Backup") &&
					!flag(v, "Device_Protection_Plan") && !flag(v, "Premium_Tech_Support")
			},
		},
		{
			Name:      "month_to_month_contract",
			Feature:   "Contract_Two_Year",
			Direction: "increase",
			Priority:  churn.PriorityMedium,
			Advice:    "Customer is month-to-month. Pitch an annual or biennial contract with a loyalty incentive.",
			Applies: func(v schema.FeatureVector, _ float64) bool {
				return !flag(v, "Contract_One_Year") && !flag(v, "Contract_Two_Year")
			},
		},
		{
			Name:      "executive_escalation",
			Feature:   "Churn_Risk",
			Direction: "decrease",
			Priority:  churn.PriorityCritical,
			Advice:    "Churn probability is extreme. Escalate to the executive retention desk immediately.",
			Applies: func(_ schema.FeatureVector, probability float64) bool {
				return probability > 0.95
			},
		},
	}
}

// EvaluateRules fires every matching rule and returns the recommendations in
// rule-table order, which is fixed and therefore deterministic.
func EvaluateRules(rules []Rule, v schema.FeatureVector, probability float64) []churn.ActionRecommendation {
	var recs []churn.ActionRecommendation
	for _, r := range rules {
		if !r.Applies(v, probability) {
			continue
		}
		recs = append(recs, churn.ActionRecommendation{
			Feature:   r.Feature,
			Direction: r.Direction,
			Action:    r.Advice,
			Priority:  r.Priority,
		})
	}
	return recs
}
