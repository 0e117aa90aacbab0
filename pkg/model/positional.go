package model

import (
	"math"

	"nnkit/pkg/tensor"
)

// PosEncoding builds the sinusoidal positional encoding table of shape
// (tLen, dModel):
//
//	PE(pos, i) = sin(pos / 10^(4i/d_model))      for even i
//	PE(pos, i) = cos(pos / 10^(4(i-1)/d_model))  for odd i
//
// Note the base-10 exponent with factor 4 rather than the textbook
// 10000^(2i/d_model); this matches the formula the model was trained
// with and is kept as-is.
func PosEncoding(tLen, dModel int) *tensor.Tensor {
	pe := tensor.NewTensor([]int{tLen, dModel})
	for pos := 0; pos < tLen; pos++ {
		for i := 0; i < dModel; i++ {
			var v float64
			if i%2 == 0 {
				v = math.Sin(float64(pos) / math.Pow(10, 4*float64(i)/float64(dModel)))
			} else {
				v = math.Cos(float64(pos) / math.Pow(10, 4*float64(i-1)/float64(dModel)))
			}
			pe.Data[pos*dModel+i] = v
		}
	}
	return pe
}
