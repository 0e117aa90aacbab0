package model

import (
	"fmt"

	"nnkit/pkg/model/attention"
	"nnkit/pkg/tensor"
)

// FeedForward is the position-wise feed-forward sublayer:
// Linear -> ReLU -> Dropout -> Linear.
type FeedForward struct {
	FC1     *attention.Linear // (d_model, d_ff)
	FC2     *attention.Linear // (d_ff, d_model)
	Dropout float64
}

// NewFeedForward creates a feed-forward sublayer for the given config.
func NewFeedForward(config Config) *FeedForward {
	return &FeedForward{
		FC1:     attention.NewLinear(config.DModel, config.DFF),
		FC2:     attention.NewLinear(config.DFF, config.DModel),
		Dropout: config.Dropout,
	}
}

// Forward computes the feed-forward transformation position by position.
// Input and output shape: (batch, seq, d_model).
func (ff *FeedForward) Forward(x *tensor.Tensor, training bool) (*tensor.Tensor, error) {
	hidden, err := ff.FC1.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("failed to compute FC1 projection: %w", err)
	}
	hidden = hidden.ReLU()
	hidden = hidden.Dropout(ff.Dropout, training)

	out, err := ff.FC2.Forward(hidden)
	if err != nil {
		return nil, fmt.Errorf("failed to compute FC2 projection: %w", err)
	}
	return out, nil
}
