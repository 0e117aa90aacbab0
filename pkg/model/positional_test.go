package model

import (
	"math"
	"testing"
)

func TestPosEncodingFirstRow(t *testing.T) {
	pe := PosEncoding(3, 6)

	// position 0: sin(0)=0 on even indices, cos(0)=1 on odd indices
	for i := 0; i < 6; i++ {
		want := 0.0
		if i%2 == 1 {
			want = 1.0
		}
		if got := pe.Get([]int{0, i}); got != want {
			t.Errorf("PE(0, %d) = %g, want %g", i, got, want)
		}
	}
}

func TestPosEncodingValues(t *testing.T) {
	pe := PosEncoding(2, 4)

	// with d_model=4 the divisors are 10^0 for i in {0,1} and 10^2 for
	// i in {2,3}
	want := []float64{
		math.Sin(1),    // i=0
		math.Cos(1),    // i=1
		math.Sin(0.01), // i=2
		math.Cos(0.01), // i=3
	}
	for i, w := range want {
		if got := pe.Get([]int{1, i}); math.Abs(got-w) > 1e-15 {
			t.Errorf("PE(1, %d) = %g, want %g", i, got, w)
		}
	}
}

func TestPosEncodingRange(t *testing.T) {
	pe := PosEncoding(50, 64)
	for i, v := range pe.Data {
		if v < -1 || v > 1 {
			t.Fatalf("encoding value %g at index %d outside [-1, 1]", v, i)
		}
	}
}
