package tensor

import "math"

// ReLU applies the rectified linear unit max(0, x) element-wise.
func (t *Tensor) ReLU() *Tensor {
	c := t.Contiguous()
	result := NewTensor(c.Shape)
	for i := 0; i < result.Size(); i++ {
		if c.Data[i] > 0 {
			result.Data[i] = c.Data[i]
		}
	}
	return result
}

// ReLU is the standalone form of Tensor.ReLU.
func ReLU(t *Tensor) *Tensor {
	return t.ReLU()
}

// GELU applies the Gaussian Error Linear Unit activation using the tanh
// approximation:
//
//	GELU(x) = 0.5 * x * (1 + tanh(sqrt(2/π) * (x + 0.044715 * x^3)))
//
// Reference: https://arxiv.org/abs/1606.08415
func (t *Tensor) GELU() *Tensor {
	const (
		sqrt2OverPi = 0.7978845608028654 // sqrt(2/π)
		coeff       = 0.044715
	)

	c := t.Contiguous()
	result := NewTensor(c.Shape)
	for i := 0; i < result.Size(); i++ {
		x := c.Data[i]
		inner := x + coeff*x*x*x
		result.Data[i] = 0.5 * x * (1 + math.Tanh(sqrt2OverPi*inner))
	}
	return result
}

// GELU is the standalone form of Tensor.GELU.
func GELU(t *Tensor) *Tensor {
	return t.GELU()
}
