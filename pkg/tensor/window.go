package tensor

import "fmt"

// Windows builds a zero-copy view of overlapping windows over t.
//
// windowShape gives the extent of a window in every dimension; a slice of
// length 1 broadcasts its value to all dimensions. step gives the stride
// between consecutive window positions per dimension; nil means 1
// everywhere and a length-1 slice broadcasts like windowShape.
//
// The result has one window-position axis per input dimension followed by
// one window-content axis per input dimension, in the same order:
//
//	shape   = (pos_0, ..., pos_{N-1}, win_0, ..., win_{N-1})
//	strides = (s_0*step_0, ..., s_{N-1}*step_{N-1}, s_0, ..., s_{N-1})
//
// where s_i are t's strides and pos_i = (extent_i - win_i)/step_i + 1.
// The view shares t's backing storage; no element is copied. Reading
// window (i0, ..., i_{N-1}) through the view is identical to reading the
// sub-block of t starting at (i0*step_0, ...) with extent windowShape.
func Windows(t *Tensor, windowShape, step []int) (*Tensor, error) {
	if t == nil || t.Data == nil {
		return nil, fmt.Errorf("input must be a tensor")
	}

	ndim := len(t.Shape)

	if len(windowShape) == 1 && ndim > 1 {
		w := windowShape[0]
		windowShape = make([]int, ndim)
		for i := range windowShape {
			windowShape[i] = w
		}
	}
	if len(windowShape) != ndim {
		return nil, fmt.Errorf("window shape %v is incompatible with input shape %v", windowShape, t.Shape)
	}

	if step == nil {
		step = make([]int, ndim)
		for i := range step {
			step[i] = 1
		}
	}
	if len(step) == 1 && ndim > 1 {
		s := step[0]
		step = make([]int, ndim)
		for i := range step {
			step[i] = s
		}
	}
	if len(step) != ndim {
		return nil, fmt.Errorf("step %v is incompatible with input shape %v", step, t.Shape)
	}
	for _, s := range step {
		if s < 1 {
			return nil, fmt.Errorf("step must be >= 1, got %v", step)
		}
	}

	for i := range windowShape {
		if windowShape[i] > t.Shape[i] {
			return nil, fmt.Errorf("window shape %v is too large for input shape %v", windowShape, t.Shape)
		}
	}
	for i := range windowShape {
		if windowShape[i] < 1 {
			return nil, fmt.Errorf("window shape %v is too small", windowShape)
		}
	}

	outShape := make([]int, 0, 2*ndim)
	outStrides := make([]int, 0, 2*ndim)
	for i := 0; i < ndim; i++ {
		outShape = append(outShape, (t.Shape[i]-windowShape[i])/step[i]+1)
		outStrides = append(outStrides, t.Strides[i]*step[i])
	}
	for i := 0; i < ndim; i++ {
		outShape = append(outShape, windowShape[i])
		outStrides = append(outStrides, t.Strides[i])
	}

	return &Tensor{
		Data:    t.Data,
		Shape:   outShape,
		Strides: outStrides,
	}, nil
}
