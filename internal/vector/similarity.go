// Package vector provides similarity scoring for embedding vectors.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// cosineEpsilon keeps Cosine finite when either vector is all zeros.
const cosineEpsilon = 1e-9

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine returns the cosine similarity of a and b: their dot product divided by the
// product of their magnitudes plus a small epsilon. The result lies in [-1, 1].
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon), nil
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
