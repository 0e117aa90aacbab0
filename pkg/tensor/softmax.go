package tensor

import (
	"fmt"
	"math"
)

// Softmax applies softmax along the specified dimension with
// max-subtraction for numerical stability. Entries equal to -Inf receive
// exactly zero weight, which is what attention masking relies on.
func Softmax(t *Tensor, dim int) (*Tensor, error) {
	if dim < 0 || dim >= len(t.Shape) {
		return nil, fmt.Errorf("invalid dimension %d for tensor with %d dimensions", dim, len(t.Shape))
	}

	t = t.Contiguous()
	result := NewTensor(t.Shape)

	dimSize := t.Shape[dim]
	inner := 1
	for i := dim + 1; i < len(t.Shape); i++ {
		inner *= t.Shape[i]
	}
	outer := t.Size() / (dimSize * inner)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := math.Inf(-1)
			for k := 0; k < dimSize; k++ {
				if v := t.Data[base+k*inner]; v > maxVal {
					maxVal = v
				}
			}

			sum := 0.0
			for k := 0; k < dimSize; k++ {
				e := math.Exp(t.Data[base+k*inner] - maxVal)
				result.Data[base+k*inner] = e
				sum += e
			}

			for k := 0; k < dimSize; k++ {
				result.Data[base+k*inner] /= sum
			}
		}
	}

	return result, nil
}

// SoftmaxLast applies softmax along the last dimension.
func SoftmaxLast(t *Tensor) *Tensor {
	result, err := Softmax(t, len(t.Shape)-1)
	if err != nil {
		panic(err)
	}
	return result
}
