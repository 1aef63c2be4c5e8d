// Package rng provides the single seeded random source used anywhere this
// module needs reproducible randomness (BRIO shuffling being the primary
// consumer). The original tool relied on an un-seeded process-global
// generator; spec.md §9 calls that out as a reproducibility bug that
// should not be carried forward, so every caller here must supply (or
// accept the documented default) seed explicitly.
package rng

import "math/rand/v2"

// DefaultSeed is used when a caller has no specific seed requirement. It
// has no significance beyond being fixed, so repeated runs over the same
// input produce byte-identical output.
const DefaultSeed uint64 = 0x5EED5EEDC0FFEE

// New returns a new PCG-seeded generator from a single 64-bit seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

// Shuffle permutes a slice of n elements in place using Fisher-Yates,
// driven by r.
func Shuffle(r *rand.Rand, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		swap(i, j)
	}
}
