package cnn

import (
	"fmt"
	"math"

	"nnkit/pkg/tensor"
)

// MaxPoolLayer is a forward-only square max-pooling layer. No argmax
// indices are retained.
type MaxPoolLayer struct {
	PoolSize int
	Stride   int
}

// NewMaxPoolLayer creates a max-pooling layer with a square window.
func NewMaxPoolLayer(poolSize, stride int) *MaxPoolLayer {
	if poolSize < 1 || stride < 1 {
		panic(fmt.Sprintf("invalid pooling parameters: pool_size=%d stride=%d", poolSize, stride))
	}
	return &MaxPoolLayer{PoolSize: poolSize, Stride: stride}
}

// Forward reduces each pooling window to its maximum.
//
// Input shape: (batch, channels, H, W). Output spatial size is
// (H-pool)/stride + 1 per dimension; trailing rows and columns that do
// not fill a full window are dropped.
func (p *MaxPoolLayer) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 4 {
		return nil, fmt.Errorf("expected 4D input (batch, channels, height, width), got %dD", len(x.Shape))
	}
	batch, channels, height, width := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	if height < p.PoolSize || width < p.PoolSize {
		return nil, fmt.Errorf("input %dx%d is smaller than pooling window %d",
			height, width, p.PoolSize)
	}

	outH := (height-p.PoolSize)/p.Stride + 1
	outW := (width-p.PoolSize)/p.Stride + 1

	windows, err := tensor.Windows(x,
		[]int{1, 1, p.PoolSize, p.PoolSize},
		[]int{1, 1, p.Stride, p.Stride})
	if err != nil {
		return nil, fmt.Errorf("failed to build window view: %w", err)
	}

	// (batch, channels, outH, outW, pool*pool), one row per window
	flat := windows.Reshape([]int{batch, channels, outH, outW, p.PoolSize * p.PoolSize})

	out := tensor.NewTensor([]int{batch, channels, outH, outW})
	winSize := p.PoolSize * p.PoolSize
	for i := 0; i < out.Size(); i++ {
		maxVal := math.Inf(-1)
		base := i * winSize
		for k := 0; k < winSize; k++ {
			if v := flat.Data[base+k]; v > maxVal {
				maxVal = v
			}
		}
		out.Data[i] = maxVal
	}
	return out, nil
}
