// Package rng provides the random sources used by the samplers.
//
// A Source is owned by one goroutine at a time. Concurrent code gives each
// worker its own generator from [Stream] instead of sharing one.
package rng

import "math/rand/v2"

// golden is the SplitMix64 increment; it also separates stream indexes.
const golden uint64 = 0x9e3779b97f4a7c15

// Source produces uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// New returns a deterministic source for the given seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^golden))
}

// NewRandom returns a source seeded from the runtime's entropy.
func NewRandom() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Stream returns the generator for worker index under seed.
//
// Seed and index are hashed with SplitMix64 into both halves of the PCG
// state, so every (seed, index) pair starts from a different state that is
// also distinct from New(seed). PCG has a single sequence; the streams are
// different starting points on it, not statistically independent generators.
func Stream(seed uint64, index int) *rand.Rand {
	hi := splitMix(seed ^ uint64(index+1)*golden)
	lo := splitMix(hi ^ uint64(index))

	return rand.New(rand.NewPCG(hi, lo))
}

// Uniform draws a value uniformly from [lo, hi].
func Uniform(src Source, lo, hi float64) float64 {
	return src.Float64()*(hi-lo) + lo
}

// splitMix is one SplitMix64 output step for state x.
func splitMix(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb

	return x ^ (x >> 31)
}
