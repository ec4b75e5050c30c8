// Package randutil centralises how seeded random sources are built so that
// shoes, policies and simulator workers all get reproducible sequences.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Two sources built from the same seed produce identical draw sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive returns a child seed for an independent stream (a simulator worker,
// a gateway connection). The mapping is stable for a given (seed, stream).
func Derive(seed int64, stream uint64) int64 {
	return int64(mix(uint64(seed) ^ mix(stream+goldenRatio64)))
}

// Seed returns seed unless it is zero, in which case a time based seed is
// returned. Callers should log the result so a run can be replayed.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
