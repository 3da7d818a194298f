// Package rng isolates every random decision the simulation makes behind a
// small Source interface so tests can script exact outcomes.
package rng

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness capability handed to the engine and its
// collaborators.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// NormFloat64 returns a standard normal draw.
	NormFloat64() float64
}

// New returns a PCG backed source. A zero seed is replaced by the clock.
func New(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform returns a draw in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// IntRange returns a draw in [lo, hi], both inclusive.
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Gauss returns a normal draw with the given mean and standard deviation.
func Gauss(src Source, mean, sd float64) float64 {
	return mean + sd*src.NormFloat64()
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniformly chosen element of xs. It panics on an empty slice.
func Pick[T any](src Source, xs []T) T {
	return xs[src.IntN(len(xs))]
}

// Sample returns k distinct elements of xs chosen uniformly without
// replacement, in selection order. xs is not modified.
func Sample[T any](src Source, xs []T, k int) []T {
	if k > len(xs) {
		k = len(xs)
	}
	pool := make([]T, len(xs))
	copy(pool, xs)
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
