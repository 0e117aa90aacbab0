package model

import (
	"fmt"
	"math"

	"nnkit/pkg/tensor"
)

// LayerNorm normalizes the input across the last dimension and applies a
// learned scale (gamma) and shift (beta):
//
//	mean = mean(x, dim=-1)
//	var  = var(x, dim=-1)
//	out  = (x - mean) / sqrt(var + eps) * scale + shift
type LayerNorm struct {
	Scale *tensor.Tensor // (dim,) gamma
	Shift *tensor.Tensor // (dim,) beta
	Eps   float64
}

// NewLayerNorm creates a LayerNorm with scale=1, shift=0.
func NewLayerNorm(dim int, eps float64) *LayerNorm {
	scale := tensor.NewTensor([]int{dim})
	for i := range scale.Data {
		scale.Data[i] = 1.0
	}
	return &LayerNorm{
		Scale: scale,
		Shift: tensor.NewTensor([]int{dim}),
		Eps:   eps,
	}
}

// Forward applies layer normalization independently to every position.
// Input shape: any shape whose last dimension matches the norm dimension.
func (ln *LayerNorm) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) == 0 {
		return nil, fmt.Errorf("cannot apply LayerNorm to 0D tensor")
	}
	lastDim := x.Shape[len(x.Shape)-1]
	if lastDim != len(ln.Scale.Data) {
		return nil, fmt.Errorf("input last dimension %d doesn't match LayerNorm dimension %d",
			lastDim, len(ln.Scale.Data))
	}

	x = x.Contiguous()
	result := tensor.NewTensor(x.Shape)
	numSlices := x.Size() / lastDim

	for s := 0; s < numSlices; s++ {
		offset := s * lastDim

		mean := 0.0
		for i := 0; i < lastDim; i++ {
			mean += x.Data[offset+i]
		}
		mean /= float64(lastDim)

		variance := 0.0
		for i := 0; i < lastDim; i++ {
			diff := x.Data[offset+i] - mean
			variance += diff * diff
		}
		variance /= float64(lastDim)

		invStd := 1.0 / math.Sqrt(variance+ln.Eps)
		for i := 0; i < lastDim; i++ {
			norm := (x.Data[offset+i] - mean) * invStd
			result.Data[offset+i] = norm*ln.Scale.Data[i] + ln.Shift.Data[i]
		}
	}
	return result, nil
}
