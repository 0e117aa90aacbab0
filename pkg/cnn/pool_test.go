package cnn

import (
	"math"
	"strings"
	"testing"

	"nnkit/pkg/tensor"
)

func naivePool(x *tensor.Tensor, poolSize, stride int) *tensor.Tensor {
	batch, channels, height, width := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	outH := (height-poolSize)/stride + 1
	outW := (width-poolSize)/stride + 1

	out := tensor.NewTensor([]int{batch, channels, outH, outW})
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			for i := 0; i < outH; i++ {
				for j := 0; j < outW; j++ {
					maxVal := math.Inf(-1)
					for p := 0; p < poolSize; p++ {
						for q := 0; q < poolSize; q++ {
							if v := x.Get([]int{n, c, i*stride + p, j*stride + q}); v > maxVal {
								maxVal = v
							}
						}
					}
					out.Set([]int{n, c, i, j}, maxVal)
				}
			}
		}
	}
	return out
}

func TestMaxPoolKnownValues(t *testing.T) {
	pool := NewMaxPoolLayer(2, 2)

	x := tensor.MustFromSlice([]float64{
		1, 2,
		3, 4,
	}, []int{1, 1, 2, 2})

	got, err := pool.Forward(x)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	want := tensor.MustFromSlice([]float64{4}, []int{1, 1, 1, 1})
	if !got.Equals(want, 0) {
		t.Errorf("got %v, want [4]", got.Data)
	}
}

func TestMaxPoolDropsPartialWindows(t *testing.T) {
	pool := NewMaxPoolLayer(2, 2)

	// 5x5 input: the last row and column never fill a window
	x := tensor.NewTensor([]int{1, 1, 5, 5})
	for i := range x.Data {
		x.Data[i] = float64(i)
	}
	x.Set([]int{0, 0, 4, 4}, 1000)

	got, err := pool.Forward(x)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if got.Shape[2] != 2 || got.Shape[3] != 2 {
		t.Fatalf("unexpected output shape %v, want spatial 2x2", got.Shape)
	}
	want := tensor.MustFromSlice([]float64{6, 8, 16, 18}, []int{1, 1, 2, 2})
	if !got.Equals(want, 0) {
		t.Errorf("got %v, want %v", got.Data, want.Data)
	}
}

func TestMaxPoolMatchesNaive(t *testing.T) {
	tests := []struct {
		name             string
		shape            []int
		poolSize, stride int
	}{
		{"standard 2x2", []int{2, 3, 8, 8}, 2, 2},
		{"overlapping", []int{1, 2, 7, 7}, 3, 1},
		{"uneven", []int{2, 1, 9, 6}, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewMaxPoolLayer(tt.poolSize, tt.stride)
			x := randomInput(t, tt.shape, 23)

			got, err := pool.Forward(x)
			if err != nil {
				t.Fatalf("Forward failed: %v", err)
			}
			want := naivePool(x, tt.poolSize, tt.stride)
			if !got.Equals(want, 0) {
				t.Error("vectorized pooling diverges from the naive reference")
			}
		})
	}
}

func TestMaxPoolErrors(t *testing.T) {
	pool := NewMaxPoolLayer(4, 2)

	if _, err := pool.Forward(tensor.NewTensor([]int{2, 8, 8})); err == nil {
		t.Error("expected error for 3D input")
	}
	_, err := pool.Forward(tensor.NewTensor([]int{1, 1, 3, 8}))
	if err == nil || !strings.Contains(err.Error(), "smaller than pooling window") {
		t.Errorf("expected window-size error, got %v", err)
	}
}

func TestNewMaxPoolLayerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero stride")
		}
	}()
	NewMaxPoolLayer(2, 0)
}
