// Package attribution explains individual predictions with per-feature
// contribution scores computed against a fixed background sample.
package attribution

import (
	"math"
	"sort"

	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/errors"
	"churnsight/internal/scoring"
	"churnsight/ports"
)

const (
	// ReportEpsilon filters zero-impact features from the reported set.
	// The underlying computation always covers every feature.
	ReportEpsilon = 1e-9

	// KeyDriverLimit caps the public-facing key-driver list.
	KeyDriverLimit = 10

	// ChartLimit caps the secondary visualization list.
	ChartLimit = 15
)

const (
	DirectionIncreases = "increases churn risk"
	DirectionDecreases = "decreases churn risk"
)

// Engine computes AttributionSets over the same scaled representation the
// classifier scores.
type Engine struct {
	scorer  *scoring.Engine
	backend ports.AttributionBackend
}

// New wires an attribution engine. The background sample is part of the
// artifact contract and lives inside the backend, not in requests.
func New(scorer *scoring.Engine, backend ports.AttributionBackend) (*Engine, error) {
	if backend == nil {
		return nil, errors.ModelUnavailable("attribution backend is not loaded")
	}
	return &Engine{scorer: scorer, backend: backend}, nil
}

// Explain produces the full, unfiltered AttributionSet for one customer,
// sorted by descending absolute contribution with ties broken by model
// feature order. Reported subsets derive from this set via Top.
func (e *Engine) Explain(v schema.FeatureVector) (churn.AttributionSet, error) {
	sv, err := e.scorer.Scale(v)
	if err != nil {
		return churn.AttributionSet{}, err
	}

	contract := sv.Contract()
	rows, baseValue, err := e.backend.Contributions(sv.Values())
	if err != nil {
		return churn.AttributionSet{}, errors.Wrap(err, "attribution computation failed")
	}

	impacts, err := ChurnClassVector(rows, contract.Len())
	if err != nil {
		return churn.AttributionSet{}, err
	}

	features := contract.Features()
	entries := make([]churn.Attribution, len(impacts))
	for i, impact := range impacts {
		direction := DirectionDecreases
		if impact > 0 {
			direction = DirectionIncreases
		}
		entries[i] = churn.Attribution{
			Feature:   features[i],
			Impact:    impact,
			AbsImpact: math.Abs(impact),
			Direction: direction,
		}
	}

	// Stable sort: entries start in model feature order, so equal magnitudes
	// keep that order as the tie-break.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AbsImpact > entries[j].AbsImpact
	})

	return churn.AttributionSet{Entries: entries, BaseValue: baseValue}, nil
}
