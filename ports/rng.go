package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. The counterfactual search derives its stream from the input
// vector, so identical requests walk identical search trajectories.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	SeededStream(name string, seed int64) *rand.Rand
}
