// Package mathutil holds the small numeric helpers shared by the paths that
// build a preference vector (internal/scoring, internal/profileupdater).
// internal/features keeps its own L2-normalize step for feature vectors.
package mathutil

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Normalize L2-normalizes v into a float32 vector, falling back to a uniform
// unit vector when v has no magnitude (an all-zero sum has no direction to
// prefer).
func Normalize(v []float64) []float32 {
	norm := floats.Norm(v, 2)
	out := make([]float32, len(v))
	if norm == 0 {
		uniform := float32(1 / math.Sqrt(float64(len(v))))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
