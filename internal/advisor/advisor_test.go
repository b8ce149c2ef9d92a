package advisor_test

import (
	"math"
	"testing"

	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/advisor"
	"churnsight/internal/testkit"
)

func baseVector(t *testing.T) schema.FeatureVector {
	t.Helper()
	kit, err := testkit.New()
	if err != nil {
		t.Fatalf("testkit: %v", err)
	}
	vec, err := kit.Vector(testkit.BaseCustomer())
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	return vec
}

func TestDiffActions_EmptyForIdenticalVectors(t *testing.T) {
	vec := baseVector(t)
	a := advisor.New(advisor.DefaultPolicyTable())

	if recs := a.DiffActions(vec, vec); len(recs) != 0 {
		t.Errorf("identical vectors should produce no actions, got %d", len(recs))
	}
}

func TestDiffActions_IgnoresSubEpsilonNoise(t *testing.T) {
	vec := baseVector(t)
	a := advisor.New(advisor.DefaultPolicyTable())

	orig, _ := vec.Value("Monthly_Charge")
	noisy := vec.With("Monthly_Charge", orig+1e-9)

	if recs := a.DiffActions(vec, noisy); len(recs) != 0 {
		t.Errorf("round-trip noise should not produce actions, got %+v", recs)
	}
}

func TestDiffActions_MapsChangesToAdvice(t *testing.T) {
	vec := baseVector(t)
	a := advisor.New(advisor.DefaultPolicyTable())

	origCharge, _ := vec.Value("Monthly_Charge")
	cf := vec.
		With("Monthly_Charge", origCharge-20).
		With("Contract_Two_Year", 1).
		With("Premium_Tech_Support", 1)

	recs := a.DiffActions(vec, cf)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d: %+v", len(recs), recs)
	}

	// Largest absolute delta first: the 20-unit price move dominates the
	// two unit flag flips.
	if recs[0].Feature != "Monthly_Charge" {
		t.Errorf("expected Monthly_Charge first, got %s", recs[0].Feature)
	}
	if recs[0].Direction != "decrease" {
		t.Errorf("expected decrease direction, got %s", recs[0].Direction)
	}
	if recs[0].Priority != churn.PriorityHigh {
		t.Errorf("price decrease should be high priority, got %s", recs[0].Priority)
	}
	if math.Abs(recs[0].Delta+20) > 1e-9 {
		t.Errorf("delta should be -20, got %v", recs[0].Delta)
	}
	if recs[0].Original != origCharge || recs[0].Suggested != origCharge-20 {
		t.Errorf("original/suggested mismatch: %v -> %v", recs[0].Original, recs[0].Suggested)
	}

	for i := 1; i < len(recs); i++ {
		if math.Abs(recs[i].Delta) > math.Abs(recs[i-1].Delta) {
			t.Errorf("recommendations out of order at %d", i)
		}
		if recs[i].Action == "" {
			t.Errorf("recommendation %d has no advice text", i)
		}
	}

	// Equal-magnitude deltas keep model feature order: Premium_Tech_Support
	// precedes Contract_Two_Year in the contract.
	if recs[1].Feature != "Premium_Tech_Support" || recs[2].Feature != "Contract_Two_Year" {
		t.Errorf("tie-break order wrong: got %s then %s", recs[1].Feature, recs[2].Feature)
	}
}

func TestDiffActions_OmitsLeversWithoutPolicy(t *testing.T) {
	vec := baseVector(t)
	a := advisor.New(advisor.DefaultPolicyTable())

	// Dropping streaming TV has no "decrease" entry in the playbook; the
	// advisor stays silent about it rather than inventing advice.
	cf := vec.
		With("Streaming_TV", 0).
		With("Contract_Two_Year", 1)

	recs := a.DiffActions(vec, cf)
	if len(recs) != 1 {
		t.Fatalf("expected exactly 1 recommendation, got %d: %+v", len(recs), recs)
	}
	if recs[0].Feature != "Contract_Two_Year" {
		t.Errorf("expected Contract_Two_Year, got %s", recs[0].Feature)
	}
}

func TestDiffActions_NilTableProducesNothing(t *testing.T) {
	vec := baseVector(t)
	a := advisor.New(nil)

	cf := vec.With("Contract_Two_Year", 1)
	if recs := a.DiffActions(vec, cf); len(recs) != 0 {
		t.Errorf("empty policy table should yield no actions, got %d", len(recs))
	}
}
