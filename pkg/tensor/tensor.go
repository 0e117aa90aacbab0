// Package tensor provides the tensor operations shared by the convolution
// and transformer exercises. Tensors store float64 data in a flat slice
// together with a shape and explicit per-dimension strides, so views with
// non-standard layouts (transposed slices, overlapping windows) can share
// the same backing storage.
package tensor

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Tensor represents a multi-dimensional array of float64 values.
//
// Data holds the backing storage. The element at index (i0, ..., i_{N-1})
// lives at Data[i0*Strides[0] + ... + i_{N-1}*Strides[N-1]]. A freshly
// constructed tensor is contiguous (row-major); views produced by Windows
// generally are not.
type Tensor struct {
	Data    []float64
	Shape   []int
	Strides []int
}

// NewTensor creates a contiguous tensor with the given shape, zero-filled.
func NewTensor(shape []int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return &Tensor{
		Data:    make([]float64, size),
		Shape:   copyInts(shape),
		Strides: contiguousStrides(shape),
	}
}

// FromSlice creates a tensor from existing data with the given shape.
// The data is copied so the tensor owns its memory.
func FromSlice(data []float64, shape []int) (*Tensor, error) {
	expected := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		expected *= dim
	}
	if len(data) != expected {
		return nil, fmt.Errorf("data size %d does not match shape %v (expected %d elements)",
			len(data), shape, expected)
	}

	cp := make([]float64, len(data))
	copy(cp, data)
	return &Tensor{
		Data:    cp,
		Shape:   copyInts(shape),
		Strides: contiguousStrides(shape),
	}, nil
}

// MustFromSlice is FromSlice that panics on error. Intended for literals
// in tests and examples where the shape is known to be consistent.
func MustFromSlice(data []float64, shape []int) *Tensor {
	t, err := FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// contiguousStrides computes row-major strides for a shape.
func contiguousStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Size returns the total number of elements addressed by the shape.
func (t *Tensor) Size() int {
	size := 1
	for _, dim := range t.Shape {
		size *= dim
	}
	return size
}

// NumDims returns the rank of the tensor.
func (t *Tensor) NumDims() int {
	return len(t.Shape)
}

// FlatIndex converts multi-dimensional indices into an offset into Data
// by the dot product of index and stride.
func (t *Tensor) FlatIndex(indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("indices length %d does not match shape dimensions %d",
			len(indices), len(t.Shape)))
	}
	idx := 0
	for i := range indices {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d with size %d",
				indices[i], i, t.Shape[i]))
		}
		idx += indices[i] * t.Strides[i]
	}
	return idx
}

// Get retrieves the value at the specified indices.
func (t *Tensor) Get(indices []int) float64 {
	return t.Data[t.FlatIndex(indices)]
}

// Set stores a value at the specified indices.
func (t *Tensor) Set(indices []int, value float64) {
	t.Data[t.FlatIndex(indices)] = value
}

// IsContiguous reports whether the tensor's strides describe a dense
// row-major layout.
func (t *Tensor) IsContiguous() bool {
	want := contiguousStrides(t.Shape)
	for i := range want {
		if t.Strides[i] != want[i] {
			return false
		}
	}
	return true
}

// Contiguous returns a tensor with dense row-major layout holding the same
// logical elements. Contiguous tensors are returned as-is; strided views
// are materialized into fresh storage.
func (t *Tensor) Contiguous() *Tensor {
	if t.IsContiguous() {
		return t
	}
	result := NewTensor(t.Shape)
	indices := make([]int, len(t.Shape))
	for out := 0; out < result.Size(); out++ {
		result.Data[out] = t.Data[t.FlatIndex(indices)]
		// odometer increment over the logical index space
		for d := len(indices) - 1; d >= 0; d-- {
			indices[d]++
			if indices[d] < t.Shape[d] {
				break
			}
			indices[d] = 0
		}
	}
	return result
}

// Clone creates a deep, contiguous copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	if !t.IsContiguous() {
		return t.Contiguous()
	}
	result := NewTensor(t.Shape)
	copy(result.Data, t.Data[:result.Size()])
	return result
}

// View returns a tensor with a different shape sharing the same underlying
// data. The receiver must be contiguous and the total size must match.
func (t *Tensor) View(newShape []int) (*Tensor, error) {
	if !t.IsContiguous() {
		return nil, fmt.Errorf("cannot view non-contiguous tensor with shape %v; call Contiguous first", t.Shape)
	}
	newSize := 1
	for _, dim := range newShape {
		if dim < 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, newShape)
		}
		newSize *= dim
	}
	if newSize != t.Size() {
		return nil, fmt.Errorf("cannot view tensor of size %d as shape %v (total size %d)",
			t.Size(), newShape, newSize)
	}
	return &Tensor{
		Data:    t.Data,
		Shape:   copyInts(newShape),
		Strides: contiguousStrides(newShape),
	}, nil
}

// Reshape is View with a panic on error, for shapes known to be valid.
// Non-contiguous tensors are materialized first.
func (t *Tensor) Reshape(newShape []int) *Tensor {
	result, err := t.Contiguous().View(newShape)
	if err != nil {
		panic(err)
	}
	return result
}

// Transpose exchanges two dimensions, producing a contiguous copy.
func (t *Tensor) Transpose(dim1, dim2 int) (*Tensor, error) {
	if dim1 < 0 || dim1 >= len(t.Shape) || dim2 < 0 || dim2 >= len(t.Shape) {
		return nil, fmt.Errorf("invalid transpose dimensions %d and %d for tensor with %d dimensions",
			dim1, dim2, len(t.Shape))
	}
	order := make([]int, len(t.Shape))
	for i := range order {
		order[i] = i
	}
	order[dim1], order[dim2] = order[dim2], order[dim1]
	return t.Permute(order)
}

// Permute reorders the dimensions according to order, producing a
// contiguous copy. order must be a permutation of 0..N-1.
func (t *Tensor) Permute(order []int) (*Tensor, error) {
	if len(order) != len(t.Shape) {
		return nil, fmt.Errorf("permutation length %d does not match rank %d", len(order), len(t.Shape))
	}
	seen := make([]bool, len(order))
	newShape := make([]int, len(order))
	for i, d := range order {
		if d < 0 || d >= len(order) || seen[d] {
			return nil, fmt.Errorf("invalid permutation %v", order)
		}
		seen[d] = true
		newShape[i] = t.Shape[d]
	}

	result := NewTensor(newShape)
	srcIndices := make([]int, len(t.Shape))
	dstIndices := make([]int, len(t.Shape))
	for out := 0; out < result.Size(); out++ {
		for i, d := range order {
			srcIndices[d] = dstIndices[i]
		}
		result.Data[out] = t.Data[t.FlatIndex(srcIndices)]
		for d := len(dstIndices) - 1; d >= 0; d-- {
			dstIndices[d]++
			if dstIndices[d] < newShape[d] {
				break
			}
			dstIndices[d] = 0
		}
	}
	return result, nil
}

// Matmul performs matrix multiplication on the last two dimensions.
// For tensors of shape (..., m, n) and (..., n, p) it returns (..., m, p).
// A 2-D operand is broadcast against a higher-rank one. The 2-D inner
// products are delegated to gonum, which wraps the tensors' backing
// slices without copying.
func Matmul(a, b *Tensor) (*Tensor, error) {
	if len(a.Shape) < 2 || len(b.Shape) < 2 {
		return nil, fmt.Errorf("matmul requires at least 2D tensors, got %dD and %dD",
			len(a.Shape), len(b.Shape))
	}

	a = a.Contiguous()
	b = b.Contiguous()

	n := a.Shape[len(a.Shape)-1]
	if b.Shape[len(b.Shape)-2] != n {
		return nil, fmt.Errorf("incompatible shapes for matmul: %v and %v", a.Shape, b.Shape)
	}

	switch {
	case len(a.Shape) == 2 && len(b.Shape) == 2:
		m, p := a.Shape[0], b.Shape[1]
		result := NewTensor([]int{m, p})
		gemm(a.Data, m, n, b.Data, p, result.Data)
		return result, nil

	case len(b.Shape) == 2:
		// (batch..., m, n) @ (n, p) -> (batch..., m, p)
		m := a.Shape[len(a.Shape)-2]
		p := b.Shape[1]
		batch := a.Size() / (m * n)
		resultShape := append(copyInts(a.Shape[:len(a.Shape)-2]), m, p)
		result := NewTensor(resultShape)
		for bi := 0; bi < batch; bi++ {
			gemm(a.Data[bi*m*n:(bi+1)*m*n], m, n, b.Data, p, result.Data[bi*m*p:(bi+1)*m*p])
		}
		return result, nil

	case len(a.Shape) == 2 && len(b.Shape) == 3:
		// (m, n) @ (batch, n, p) -> (batch, m, p)
		m := a.Shape[0]
		batch, p := b.Shape[0], b.Shape[2]
		result := NewTensor([]int{batch, m, p})
		for bi := 0; bi < batch; bi++ {
			gemm(a.Data, m, n, b.Data[bi*n*p:(bi+1)*n*p], p, result.Data[bi*m*p:(bi+1)*m*p])
		}
		return result, nil

	default:
		// batched matmul with matching leading dimensions
		m := a.Shape[len(a.Shape)-2]
		p := b.Shape[len(b.Shape)-1]
		batchA := a.Size() / (m * n)
		batchB := b.Size() / (n * p)
		if batchA != batchB {
			return nil, fmt.Errorf("incompatible batch dimensions for matmul: %v and %v", a.Shape, b.Shape)
		}
		resultShape := append(copyInts(a.Shape[:len(a.Shape)-2]), m, p)
		result := NewTensor(resultShape)
		for bi := 0; bi < batchA; bi++ {
			gemm(a.Data[bi*m*n:(bi+1)*m*n], m, n, b.Data[bi*n*p:(bi+1)*n*p], p, result.Data[bi*m*p:(bi+1)*m*p])
		}
		return result, nil
	}
}

// gemm computes dst = a @ b for row-major a (m x n), b (n x p), dst (m x p).
func gemm(a []float64, m, n int, b []float64, p int, dst []float64) {
	am := mat.NewDense(m, n, a[:m*n])
	bm := mat.NewDense(n, p, b[:n*p])
	dm := mat.NewDense(m, p, dst[:m*p])
	dm.Mul(am, bm)
}

// Scale multiplies all elements by a scalar.
func Scale(t *Tensor, scalar float64) *Tensor {
	t = t.Contiguous()
	result := NewTensor(t.Shape)
	for i := 0; i < result.Size(); i++ {
		result.Data[i] = t.Data[i] * scalar
	}
	return result
}

// Scale multiplies all elements by a scalar (method form).
func (t *Tensor) Scale(s float64) *Tensor {
	return Scale(t, s)
}

// Add performs element-wise addition with broadcasting.
func Add(a, b *Tensor) (*Tensor, error) {
	return elementWiseOp(a, b, func(x, y float64) float64 { return x + y })
}

// Mul performs element-wise multiplication with broadcasting.
func Mul(a, b *Tensor) (*Tensor, error) {
	return elementWiseOp(a, b, func(x, y float64) float64 { return x * y })
}

func elementWiseOp(a, b *Tensor, op func(float64, float64) float64) (*Tensor, error) {
	a = a.Contiguous()
	b = b.Contiguous()

	outShape, err := broadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, fmt.Errorf("cannot broadcast shapes %v and %v: %w", a.Shape, b.Shape, err)
	}

	result := NewTensor(outShape)
	indices := make([]int, len(outShape))
	for out := 0; out < result.Size(); out++ {
		aVal := a.Data[broadcastIndex(indices, outShape, a.Shape)]
		bVal := b.Data[broadcastIndex(indices, outShape, b.Shape)]
		result.Data[out] = op(aVal, bVal)
		for d := len(indices) - 1; d >= 0; d-- {
			indices[d]++
			if indices[d] < outShape[d] {
				break
			}
			indices[d] = 0
		}
	}
	return result, nil
}

// broadcastShapes computes the broadcast shape of two shapes, aligning
// from the trailing dimension.
func broadcastShapes(a, b []int) ([]int, error) {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	result := make([]int, maxLen)
	for i := 0; i < maxLen; i++ {
		dimA, dimB := 1, 1
		if i < len(a) {
			dimA = a[len(a)-1-i]
		}
		if i < len(b) {
			dimB = b[len(b)-1-i]
		}
		if dimA != dimB && dimA != 1 && dimB != 1 {
			return nil, fmt.Errorf("incompatible dimensions %d and %d", dimA, dimB)
		}
		if dimA > dimB {
			result[maxLen-1-i] = dimA
		} else {
			result[maxLen-1-i] = dimB
		}
	}
	return result, nil
}

// broadcastIndex maps an output index to the flat offset within a
// (possibly lower-rank, possibly size-1) input shape.
func broadcastIndex(outIndices, outShape, inShape []int) int {
	diff := len(outShape) - len(inShape)
	idx := 0
	stride := 1
	for i := len(inShape) - 1; i >= 0; i-- {
		pos := outIndices[i+diff]
		if inShape[i] == 1 {
			pos = 0
		}
		idx += pos * stride
		stride *= inShape[i]
	}
	return idx
}

// Equals checks whether two tensors have the same shape and element-wise
// values within tolerance.
func (t *Tensor) Equals(other *Tensor, tolerance float64) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	a := t.Contiguous()
	b := other.Contiguous()
	for i := 0; i < a.Size(); i++ {
		diff := a.Data[i] - b.Data[i]
		if diff < -tolerance || diff > tolerance {
			return false
		}
	}
	return true
}

// String returns a compact representation for debugging.
func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString("Tensor")
	fmt.Fprintf(&sb, "%v", t.Shape)
	n := t.Size()
	if n > 8 {
		n = 8
	}
	c := t.Contiguous()
	fmt.Fprintf(&sb, ": %v", c.Data[:n])
	if t.Size() > 8 {
		sb.WriteString("...")
	}
	return sb.String()
}

func copyInts(s []int) []int {
	result := make([]int, len(s))
	copy(result, s)
	return result
}
