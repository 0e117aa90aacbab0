// Package cnn implements forward passes for convolutional and max-pooling
// layers from first principles. Both layers are vectorized through the
// strided window view in pkg/tensor: input patches are unfolded into a
// matrix once, and the convolution itself becomes a single matrix product
// against the flattened filters.
package cnn

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

// ConvLayer is a valid (unpadded), stride-1 2-D convolutional layer.
//
// W has shape (outCh, inCh, fH, fW) and B has shape (1, outCh, 1, 1) so it
// broadcasts over batch and spatial dimensions. Gradients are an external
// concern: the layer only exposes explicit weight access and update.
type ConvLayer struct {
	W *tensor.Tensor
	B *tensor.Tensor

	InChannels  int
	OutChannels int
	FilterH     int
	FilterW     int
}

// NewConvLayer creates a convolutional layer with Xavier-scaled normal
// weights, sigma = 1/sqrt(inCh*fH*fW/2), and all biases set to 0.01.
func NewConvLayer(filterH, filterW, inCh, outCh int) *ConvLayer {
	if filterH < 1 || filterW < 1 || inCh < 1 || outCh < 1 {
		panic(fmt.Sprintf("invalid conv layer dimensions: filter (%d, %d), channels %d -> %d",
			filterH, filterW, inCh, outCh))
	}

	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1.0 / math.Sqrt(float64(inCh*filterH*filterW)/2.0),
		Src:   initRand,
	}

	w := tensor.NewTensor([]int{outCh, inCh, filterH, filterW})
	for i := range w.Data {
		w.Data[i] = dist.Rand()
	}

	b := tensor.NewTensor([]int{1, outCh, 1, 1})
	for i := range b.Data {
		b.Data[i] = 0.01
	}

	return &ConvLayer{
		W:           w,
		B:           b,
		InChannels:  inCh,
		OutChannels: outCh,
		FilterH:     filterH,
		FilterW:     filterW,
	}
}

// Forward computes the cross-correlation of x with the layer's filters.
//
// Input shape: (batch, inCh, H, W). Output shape:
// (batch, outCh, H-fH+1, W-fW+1).
//
// The input is unfolded with a (1, 1, fH, fW) window view, collapsed to a
// (batch*outH*outW, inCh*fH*fW) matrix whose row ordering is channel-major
// to match the flattened filters, multiplied against the (outCh,
// inCh*fH*fW) filter matrix in one GEMM, and folded back.
func (c *ConvLayer) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 4 {
		return nil, fmt.Errorf("expected 4D input (batch, channels, height, width), got %dD", len(x.Shape))
	}
	batch, inCh, height, width := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	if inCh != c.InChannels {
		return nil, fmt.Errorf("input has %d channels, layer expects %d", inCh, c.InChannels)
	}
	if height < c.FilterH || width < c.FilterW {
		return nil, fmt.Errorf("input %dx%d is smaller than filter %dx%d",
			height, width, c.FilterH, c.FilterW)
	}

	outH := height - c.FilterH + 1
	outW := width - c.FilterW + 1

	// (batch, inCh, outH, outW, 1, 1, fH, fW) view over the input
	windows, err := tensor.Windows(x, []int{1, 1, c.FilterH, c.FilterW}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build window view: %w", err)
	}

	xcol := windows.Reshape([]int{batch, inCh, outH * outW, c.FilterH * c.FilterW})
	xcol, err = xcol.Transpose(1, 2)
	if err != nil {
		return nil, err
	}
	xcol = xcol.Reshape([]int{batch * outH * outW, inCh * c.FilterH * c.FilterW})

	wcol := c.W.Reshape([]int{c.OutChannels, inCh * c.FilterH * c.FilterW})
	wcolT, err := wcol.Transpose(0, 1)
	if err != nil {
		return nil, err
	}

	out, err := tensor.Matmul(xcol, wcolT)
	if err != nil {
		return nil, fmt.Errorf("failed to compute convolution product: %w", err)
	}

	out = out.Reshape([]int{batch, outH, outW, c.OutChannels})
	out, err = out.Permute([]int{0, 3, 1, 2})
	if err != nil {
		return nil, err
	}

	out, err = tensor.Add(out, c.B)
	if err != nil {
		return nil, fmt.Errorf("failed to add bias: %w", err)
	}
	return out, nil
}

// UpdateWeights adds the supplied deltas to the parameters in place.
// The caller owns any learning-rate scaling; none is applied here.
func (c *ConvLayer) UpdateWeights(dW, db *tensor.Tensor) error {
	if !sameShape(dW.Shape, c.W.Shape) {
		return fmt.Errorf("dW shape %v does not match weight shape %v", dW.Shape, c.W.Shape)
	}
	if !sameShape(db.Shape, c.B.Shape) {
		return fmt.Errorf("db shape %v does not match bias shape %v", db.Shape, c.B.Shape)
	}
	dWc := dW.Contiguous()
	dbc := db.Contiguous()
	for i := range c.W.Data {
		c.W.Data[i] += dWc.Data[i]
	}
	for i := range c.B.Data {
		c.B.Data[i] += dbc.Data[i]
	}
	return nil
}

// Weights returns detached copies of the weight and bias tensors.
func (c *ConvLayer) Weights() (*tensor.Tensor, *tensor.Tensor) {
	return c.W.Clone(), c.B.Clone()
}

// SetWeights replaces the parameters with detached copies of the inputs.
func (c *ConvLayer) SetWeights(w, b *tensor.Tensor) error {
	if !sameShape(w.Shape, c.W.Shape) {
		return fmt.Errorf("weight shape %v does not match expected %v", w.Shape, c.W.Shape)
	}
	if !sameShape(b.Shape, c.B.Shape) {
		return fmt.Errorf("bias shape %v does not match expected %v", b.Shape, c.B.Shape)
	}
	c.W = w.Clone()
	c.B = b.Clone()
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
