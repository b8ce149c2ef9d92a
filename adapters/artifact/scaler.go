package artifact

import (
	"churnsight/internal/errors"
)

// StandardScaler is the training-time affine transform over the continuous
// feature subset: z = (x - mean) / std, indexed in the contract's continuous
// order. Parameters are frozen at load; the struct is read-only afterwards.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// NewStandardScaler validates and freezes scaler parameters.
func NewStandardScaler(mean, std []float64) (*StandardScaler, error) {
	if len(mean) != len(std) {
		return nil, errors.ConfigInvalid("scaler mean and std lengths differ")
	}
	for _, s := range std {
		if s <= 0 {
			return nil, errors.ConfigInvalid("scaler std must be positive for every feature")
		}
	}
	m := make([]float64, len(mean))
	s := make([]float64, len(std))
	copy(m, mean)
	copy(s, std)
	return &StandardScaler{mean: m, std: s}, nil
}

// Transform maps raw continuous values into model space.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, errors.InternalError("scaler input length does not match fitted parameters")
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.std[i]
	}
	return out, nil
}

// Inverse maps scaled values back to raw units.
func (s *StandardScaler) Inverse(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, errors.InternalError("scaler input length does not match fitted parameters")
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.std[i] + s.mean[i]
	}
	return out, nil
}
