package counterfactual_test

import (
	"testing"

	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/counterfactual"
	"churnsight/internal/testkit"
)

func vectorFor(t *testing.T, raw map[string]float64) schema.FeatureVector {
	t.Helper()
	kit, err := testkit.New()
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	vec, err := kit.Vector(raw)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	return vec
}

func TestDefaultRules_AllFireForWorstCaseCustomer(t *testing.T) {
	vec := vectorFor(t, testkit.HighRiskCustomer())

	recs := counterfactual.EvaluateRules(counterfactual.DefaultRules(), vec, 0.97)

	if len(recs) != 6 {
		t.Fatalf("expected all 6 rules to fire, got %d: %+v", len(recs), recs)
	}

	// Rule-table order is fixed, so the output order is too.
	wantFeatures := []string{
		"Satisfaction_Score",
		"Monthly_Charge",
		"Tenure_in_Months",
		"Premium_Tech_Support",
		"Contract_Two_Year",
		"Churn_Risk",
	}
	wantPriorities := []churn.Priority{
		churn.PriorityHigh,
		churn.PriorityHigh,
		churn.PriorityMedium,
		churn.PriorityMedium,
		churn.PriorityMedium,
		churn.PriorityCritical,
	}
	for i, rec := range recs {
		if rec.Feature != wantFeatures[i] {
			t.Errorf("rec %d: feature %s, want %s", i, rec.Feature, wantFeatures[i])
		}
		if rec.Priority != wantPriorities[i] {
			t.Errorf("rec %d: priority %s, want %s", i, rec.Priority, wantPriorities[i])
		}
		if rec.Action == "" {
			t.Errorf("rec %d: empty advice text", i)
		}
	}
}

func TestDefaultRules_QuietForLowRiskCustomer(t *testing.T) {
	vec := vectorFor(t, testkit.LowRiskCustomer())

	// A satisfied two-year-contract customer with moderate pricing, premium
	// services, and established tenure matches none of the retention rules;
	// in particular nothing HIGH or CRITICAL may fire.
	recs := counterfactual.EvaluateRules(counterfactual.DefaultRules(), vec, 0.19)
	if len(recs) != 0 {
		t.Fatalf("expected no rules to fire, got %d: %+v", len(recs), recs)
	}
}

func TestDefaultRules_Boundaries(t *testing.T) {
	rules := counterfactual.DefaultRules()

	fired := func(raw map[string]float64, probability float64) map[string]bool {
		vec := vectorFor(t, raw)
		out := make(map[string]bool)
		for _, rec := range counterfactual.EvaluateRules(rules, vec, probability) {
			out[rec.Feature] = true
		}
		return out
	}

	t.Run("satisfaction threshold is inclusive at 2", func(t *testing.T) {
		at2 := testkit.BaseCustomer()
		at2["Satisfaction_Score"] = 2
		if !fired(at2, 0.5)["Satisfaction_Score"] {
			t.Error("score 2 should trigger the satisfaction rule")
		}
		at3 := testkit.BaseCustomer()
		at3["Satisfaction_Score"] = 3
		if fired(at3, 0.5)["Satisfaction_Score"] {
			t.Error("score 3 should not trigger the satisfaction rule")
		}
	})

	t.Run("monthly charge threshold is exclusive at 80", func(t *testing.T) {
		at80 := testkit.BaseCustomer()
		at80["Monthly_Charge"] = 80
		if fired(at80, 0.5)["Monthly_Charge"] {
			t.Error("a charge of exactly 80 should not trigger the pricing rule")
		}
		above := testkit.BaseCustomer()
		above["Monthly_Charge"] = 80.01
		if !fired(above, 0.5)["Monthly_Charge"] {
			t.Error("a charge above 80 should trigger the pricing rule")
		}
	})

	t.Run("tenure threshold is exclusive at 6", func(t *testing.T) {
		at6 := testkit.BaseCustomer()
		at6["Tenure_in_Months"] = 6
		if fired(at6, 0.5)["Tenure_in_Months"] {
			t.Error("six months of tenure should not trigger the onboarding rule")
		}
		at5 := testkit.BaseCustomer()
		at5["Tenure_in_Months"] = 5
		if !fired(at5, 0.5)["Tenure_in_Months"] {
			t.Error("five months of tenure should trigger the onboarding rule")
		}
	})

	t.Run("premium rule needs all four services absent", func(t *testing.T) {
		none := testkit.BaseCustomer()
		none["Online_Security"] = 0
		none["Online_Backup"] = 0
		none["Device_Protection_Plan"] = 0
		none["Premium_Tech_Support"] = 0
		if !fired(none, 0.5)["Premium_Tech_Support"] {
			t.Error("no premium services should trigger the bundle rule")
		}
		one := testkit.BaseCustomer()
		one["Online_Security"] = 0
		one["Online_Backup"] = 0
		one["Device_Protection_Plan"] = 1
		one["Premium_Tech_Support"] = 0
		if fired(one, 0.5)["Premium_Tech_Support"] {
			t.Error("a single premium service should suppress the bundle rule")
		}
	})

	t.Run("contract rule needs both flags clear", func(t *testing.T) {
		m2m := testkit.BaseCustomer()
		m2m["Contract_One_Year"] = 0
		m2m["Contract_Two_Year"] = 0
		if !fired(m2m, 0.5)["Contract_Two_Year"] {
			t.Error("month-to-month should trigger the contract rule")
		}
		if fired(testkit.BaseCustomer(), 0.5)["Contract_Two_Year"] {
			t.Error("a one-year contract should suppress the contract rule")
		}
	})

	t.Run("escalation threshold is exclusive at 0.95", func(t *testing.T) {
		if fired(testkit.BaseCustomer(), 0.95)["Churn_Risk"] {
			t.Error("probability of exactly 0.95 should not escalate")
		}
		if !fired(testkit.BaseCustomer(), 0.951)["Churn_Risk"] {
			t.Error("probability above 0.95 should escalate")
		}
	})
}
