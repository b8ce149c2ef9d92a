package rng

import (
	"hash/fnv"
	"math/rand"

	"churnsight/ports"
)

// SeededRNG derives independent deterministic streams from a base seed and
// an operation name. Identical inputs always produce identical streams.
type SeededRNG struct {
	baseSeed int64
}

// New creates a seeded RNG source.
func New(baseSeed int64) ports.RNGPort {
	return &SeededRNG{baseSeed: baseSeed}
}

// SeededStream creates a deterministic generator for a named operation.
func (s *SeededRNG) SeededStream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	mixed := s.baseSeed ^ seed ^ int64(h.Sum64())
	return rand.New(rand.NewSource(mixed))
}
