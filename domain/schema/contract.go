package schema

import (
	"math"
	"strings"

	"churnsight/internal/errors"
)

// Contract pins the ordered, named input schema the trained model expects.
// Feature order is the order the model was fit on; feeding columns in any
// other order silently produces wrong predictions, so every path back into
// model space goes through Reassemble.
type Contract struct {
	features   []string
	index      map[string]int
	continuous []string
	contIndex  map[string]int
}

// NormalizeName converts an external column name to schema form.
// Applied once when a schema or reference dataset is loaded, never per request.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// NewContract builds a contract from the expected feature order and the
// subset the scaler was fit on. The continuous subset keeps its own order,
// which is the order the scaler's parameter vectors are indexed in.
func NewContract(features, continuous []string) (*Contract, error) {
	if len(features) == 0 {
		return nil, errors.ConfigInvalid("feature contract requires at least one feature")
	}

	c := &Contract{
		features:   make([]string, len(features)),
		index:      make(map[string]int, len(features)),
		continuous: make([]string, len(continuous)),
		contIndex:  make(map[string]int, len(continuous)),
	}

	for i, f := range features {
		name := NormalizeName(f)
		if _, dup := c.index[name]; dup {
			return nil, errors.ConfigInvalid("duplicate feature in contract: " + name)
		}
		c.features[i] = name
		c.index[name] = i
	}

	for i, f := range continuous {
		name := NormalizeName(f)
		if _, ok := c.index[name]; !ok {
			return nil, errors.ConfigInvalid("continuous feature not in contract: " + name)
		}
		if _, dup := c.contIndex[name]; dup {
			return nil, errors.ConfigInvalid("duplicate continuous feature: " + name)
		}
		c.continuous[i] = name
		c.contIndex[name] = i
	}

	return c, nil
}

// Features returns the expected feature names in model order.
func (c *Contract) Features() []string {
	out := make([]string, len(c.features))
	copy(out, c.features)
	return out
}

// ContinuousFeatures returns the scaled subset in scaler order.
func (c *Contract) ContinuousFeatures() []string {
	out := make([]string, len(c.continuous))
	copy(out, c.continuous)
	return out
}

// Len returns the number of features in the contract.
func (c *Contract) Len() int {
	return len(c.features)
}

// Index returns the model-order position of a feature name.
func (c *Contract) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// IsContinuous reports whether a feature belongs to the scaled subset.
func (c *Contract) IsContinuous(name string) bool {
	_, ok := c.contIndex[name]
	return ok
}

// Normalize translates a keyed payload into a model-ordered FeatureVector.
// Every contract feature must be present and finite; missing names fail
// together so the caller sees the complete list.
func (c *Contract) Normalize(raw map[string]float64) (FeatureVector, error) {
	values := make([]float64, len(c.features))
	var missing []string

	for i, name := range c.features {
		v, ok := raw[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FeatureVector{}, errors.InvalidInput("feature " + name + " is not a finite number")
		}
		values[i] = v
	}

	if len(missing) > 0 {
		return FeatureVector{}, errors.MissingFeature(missing)
	}

	return FeatureVector{contract: c, values: values}, nil
}

// NormalizeWithDefaults is the batch-path variant of Normalize: absent or
// non-finite entries default to zero instead of failing. Column presence is
// the bulk adapter's responsibility, checked once per batch.
func (c *Contract) NormalizeWithDefaults(raw map[string]float64) FeatureVector {
	values := make([]float64, len(c.features))
	for i, name := range c.features {
		if v, ok := raw[name]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[i] = v
		}
	}
	return FeatureVector{contract: c, values: values}
}

// FromValues wraps an already model-ordered value slice in a FeatureVector.
func (c *Contract) FromValues(values []float64) (FeatureVector, error) {
	if len(values) != len(c.features) {
		return FeatureVector{}, errors.InvalidInput("value count does not match feature contract")
	}
	copied := make([]float64, len(values))
	copy(copied, values)
	return FeatureVector{contract: c, values: copied}, nil
}

// Split partitions a vector into the continuous subvector (scaler order) and
// the passthrough subvector (model order, by name).
func (c *Contract) Split(v FeatureVector) ([]float64, map[string]float64) {
	cont := make([]float64, len(c.continuous))
	for i, name := range c.continuous {
		cont[i] = v.values[c.index[name]]
	}

	pass := make(map[string]float64, len(c.features)-len(c.continuous))
	for i, name := range c.features {
		if !c.IsContinuous(name) {
			pass[name] = v.values[i]
		}
	}
	return cont, pass
}

// Reassemble restores full model order from a scaled continuous subvector and
// the passthrough values. The output order is always the contract's feature
// order regardless of how the pieces were produced.
func (c *Contract) Reassemble(scaledContinuous []float64, passthrough map[string]float64) (ScaledFeatureVector, error) {
	if len(scaledContinuous) != len(c.continuous) {
		return ScaledFeatureVector{}, errors.InternalError("scaled subvector length does not match continuous feature set")
	}

	values := make([]float64, len(c.features))
	for i, name := range c.continuous {
		values[c.index[name]] = scaledContinuous[i]
	}
	for i, name := range c.features {
		if c.IsContinuous(name) {
			continue
		}
		v, ok := passthrough[name]
		if !ok {
			return ScaledFeatureVector{}, errors.InternalError("passthrough value missing for feature " + name)
		}
		values[i] = v
	}

	return ScaledFeatureVector{contract: c, values: values}, nil
}
