package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v", x)
	}
	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{0.8123, 3, 0.812},
		{0.8125, 3, 0.813},
		{1422.456, 2, 1422.46},
		{1422, 2, 1422},
		{-1.005, 1, -1.0},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
	if Round2(1.234) != 1.23 {
		t.Errorf("Round2(1.234) = %v", Round2(1.234))
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Error("1.5 is finite")
	}
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Error("NaN and Inf are not finite")
	}
}
