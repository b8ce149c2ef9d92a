package schema

// FeatureVector is an immutable, model-ordered feature assignment.
// Mutating operations return a new vector; the original is never touched
// after normalization.
type FeatureVector struct {
	contract *Contract
	values   []float64
}

// Contract returns the schema this vector was normalized against.
func (v FeatureVector) Contract() *Contract {
	return v.contract
}

// Value returns the value for a feature name.
func (v FeatureVector) Value(name string) (float64, bool) {
	i, ok := v.contract.index[name]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// At returns the value at a model-order position.
func (v FeatureVector) At(i int) float64 {
	return v.values[i]
}

// Values returns a copy of the model-ordered value slice.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// ToMap returns the vector as a name-keyed map.
func (v FeatureVector) ToMap() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for i, name := range v.contract.features {
		out[name] = v.values[i]
	}
	return out
}

// With returns a copy of the vector with one feature replaced.
// Unknown names return the vector unchanged.
func (v FeatureVector) With(name string, value float64) FeatureVector {
	i, ok := v.contract.index[name]
	if !ok {
		return v
	}
	values := make([]float64, len(v.values))
	copy(values, v.values)
	values[i] = value
	return FeatureVector{contract: v.contract, values: values}
}

// Len returns the number of features.
func (v FeatureVector) Len() int {
	return len(v.values)
}

// ScaledFeatureVector is a FeatureVector whose continuous subset has passed
// through the training-time affine transform. Only Reassemble produces one,
// so anything holding this type is known to be in model space.
type ScaledFeatureVector struct {
	contract *Contract
	values   []float64
}

// Contract returns the schema this vector conforms to.
func (v ScaledFeatureVector) Contract() *Contract {
	return v.contract
}

// Values returns a copy of the model-ordered scaled values.
func (v ScaledFeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// At returns the scaled value at a model-order position.
func (v ScaledFeatureVector) At(i int) float64 {
	return v.values[i]
}

// Len returns the number of features.
func (v ScaledFeatureVector) Len() int {
	return len(v.values)
}
