package core

import "math/rand/v2"

// Entropy is the randomness a placement strategy may draw from.
// *rand.Rand satisfies it.
type Entropy interface {
	IntN(n int) int
}

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// IntN returns a uniform int in [0, n). It returns 0 for n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Between returns a uniform int in the closed range [lo, hi].
func Between(rng Entropy, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
