// Package advisor turns counterfactual diffs into ranked, human-readable
// retention actions via a static policy table.
package advisor

import (
	"math"
	"sort"

	"churnsight/domain/churn"
	"churnsight/domain/schema"
)

// diffEpsilon absorbs floating round-trip noise from scaling/unscaling when
// comparing original and counterfactual values.
const diffEpsilon = 1e-6

// Advisor maps feature deltas to advisory text.
type Advisor struct {
	table PolicyTable
}

// New creates an advisor over a policy table.
func New(table PolicyTable) *Advisor {
	if table == nil {
		table = PolicyTable{}
	}
	return &Advisor{table: table}
}

// DiffActions compares a counterfactual to its originating vector and emits
// one recommendation per changed lever that has a policy entry. Levers with
// no entry are silently omitted. Output is ordered by descending absolute
// delta; equal deltas keep model feature order (stable, documented).
func (a *Advisor) DiffActions(original, counterfactual schema.FeatureVector) []churn.ActionRecommendation {
	contract := original.Contract()
	recs := make([]churn.ActionRecommendation, 0, 4)

	for _, name := range contract.Features() {
		origVal, ok := original.Value(name)
		if !ok {
			continue
		}
		cfVal, ok := counterfactual.Value(name)
		if !ok {
			continue
		}

		delta := cfVal - origVal
		if math.Abs(delta) <= diffEpsilon {
			continue
		}

		direction := "decrease"
		if delta > 0 {
			direction = "increase"
		}

		entry, ok := a.table[PolicyKey{Feature: name, Direction: direction}]
		if !ok {
			// No advice defined for this lever movement.
			continue
		}

		recs = append(recs, churn.ActionRecommendation{
			Feature:   name,
			Direction: direction,
			Original:  origVal,
			Suggested: cfVal,
			Delta:     delta,
			Action:    entry.Advice,
			Priority:  entry.Priority,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return math.Abs(recs[i].Delta) > math.Abs(recs[j].Delta)
	})

	return recs
}
