package solver

import "math"

// EpsilonAt returns the exploration rate after e completed episodes:
//
//	min(1, (2·ln(e+1))^(1/3) / (e+1)^(1/3))
//
// The formula is 0 at e=0, rises to its peak at e+1≈3 and decays from there.
// Callers set an explicit initial epsilon for the first episode.
func EpsilonAt(e int) float64 {
	if e < 0 {
		e = 0
	}
	n := float64(e) + 1
	eps := math.Cbrt(2*math.Log(n)) / math.Cbrt(n)
	return math.Min(1, eps)
}
