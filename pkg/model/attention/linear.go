package attention

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"nnkit/pkg/tensor"
)

// initRand seeds weight initialization across the package.
var initRand = rand.NewSource(uint64(time.Now().UnixNano()))

// SetInitSeed seeds weight initialization, for reproducible tests.
func SetInitSeed(seed uint64) {
	initRand = rand.NewSource(seed)
}

// Linear is a dense layer computing x @ W + b on the last dimension.
// It backs the attention projections and the position-wise feed-forward
// sublayers.
type Linear struct {
	W *tensor.Tensor // (in, out)
	B *tensor.Tensor // (out,)

	In  int
	Out int
}

// NewLinear creates a dense layer with Xavier-uniform weights and zero
// bias.
func NewLinear(in, out int) *Linear {
	if in < 1 || out < 1 {
		panic(fmt.Sprintf("invalid linear dimensions %d -> %d", in, out))
	}

	limit := math.Sqrt(6.0 / float64(in+out))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: initRand}

	w := tensor.NewTensor([]int{in, out})
	for i := range w.Data {
		w.Data[i] = dist.Rand()
	}

	return &Linear{
		W:   w,
		B:   tensor.NewTensor([]int{out}),
		In:  in,
		Out: out,
	}
}

// Forward applies the affine transform to the last dimension of x.
// Input shape (..., in), output shape (..., out).
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) < 2 {
		return nil, fmt.Errorf("expected at least 2D input, got %dD", len(x.Shape))
	}
	if last := x.Shape[len(x.Shape)-1]; last != l.In {
		return nil, fmt.Errorf("input dimension %d doesn't match linear input dimension %d", last, l.In)
	}

	out, err := tensor.Matmul(x, l.W)
	if err != nil {
		return nil, fmt.Errorf("failed to compute linear projection: %w", err)
	}
	out, err = tensor.Add(out, l.B)
	if err != nil {
		return nil, fmt.Errorf("failed to add bias: %w", err)
	}
	return out, nil
}
