package utils

import "math"

// NormalizeL2 scales x in place to unit L2 norm. A zero vector is left unchanged.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 rounds a monetary amount to two decimals.
func Round2(v float64) float64 {
	return Round(v, 2)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
