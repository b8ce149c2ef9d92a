package attribution

import (
	"fmt"

	"churnsight/internal/errors"
)

// ChurnClassVector normalizes an attribution backend's contribution rows to
// the single churn-class vector this service reports.
//
// Two shapes are accepted, per the backend contract:
//   - one row per output class, churn class last (binary classifiers)
//   - a single flat row already holding churn-class contributions
//
// Anything else is an artifact/backend mismatch and fails loudly rather than
// being guessed at.
func ChurnClassVector(rows [][]float64, nFeatures int) ([]float64, error) {
	switch len(rows) {
	case 1:
		if len(rows[0]) == nFeatures {
			return rows[0], nil
		}
	case 2:
		if len(rows[0]) == nFeatures && len(rows[1]) == nFeatures {
			return rows[1], nil
		}
	}

	shape := make([]int, len(rows))
	for i, r := range rows {
		shape[i] = len(r)
	}
	return nil, errors.AttributionShape(fmt.Sprintf(
		"attribution backend returned unrecognized shape %v for %d features", shape, nFeatures))
}
