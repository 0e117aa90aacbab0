package model

import (
	"fmt"

	"nnkit/pkg/model/attention"
	"nnkit/pkg/tensor"
)

// SentimentClassifier scores token sequences with one logit per example:
// encoder -> mean-pool over the sequence axis -> Dropout -> Linear ->
// ReLU -> Dropout -> Linear(1).
type SentimentClassifier struct {
	Config   Config
	Encoder  *Encoder
	FC1      *attention.Linear // (d_model, d_model)
	FC2      *attention.Linear // (d_model, 1)
	Dropout  float64
	Training bool
}

// NewSentimentClassifier creates a classifier for the given config.
func NewSentimentClassifier(config Config) *SentimentClassifier {
	return &SentimentClassifier{
		Config:   config,
		Encoder:  NewEncoder(config),
		FC1:      attention.NewLinear(config.DModel, config.DModel),
		FC2:      attention.NewLinear(config.DModel, 1),
		Dropout:  config.Dropout,
		Training: true,
	}
}

// SetTraining switches dropout on (training) or off (evaluation).
func (m *SentimentClassifier) SetTraining(training bool) {
	m.Training = training
}

// Forward scores a batch of token sequences.
//
// Input shape: (batch, seq) token indices plus one valid-length per batch
// element (nil for full attention). Output shape: (batch,) raw logits;
// a non-negative logit predicts positive sentiment.
func (m *SentimentClassifier) Forward(tokens *tensor.Tensor, lengths []int) (*tensor.Tensor, error) {
	ctx, err := m.Encoder.Forward(tokens, lengths, m.Training)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	pooled := meanPool(ctx)
	pooled = pooled.Dropout(m.Dropout, m.Training)

	hidden, err := m.FC1.Forward(pooled)
	if err != nil {
		return nil, fmt.Errorf("failed to compute classifier hidden layer: %w", err)
	}
	hidden = hidden.ReLU()
	hidden = hidden.Dropout(m.Dropout, m.Training)

	logits, err := m.FC2.Forward(hidden)
	if err != nil {
		return nil, fmt.Errorf("failed to compute classifier logits: %w", err)
	}
	return logits.Reshape([]int{logits.Shape[0]}), nil
}

// meanPool averages (batch, seq, d_model) over the sequence axis into
// (batch, d_model).
func meanPool(x *tensor.Tensor) *tensor.Tensor {
	batch, seqLen, dModel := x.Shape[0], x.Shape[1], x.Shape[2]
	c := x.Contiguous()
	out := tensor.NewTensor([]int{batch, dModel})
	for b := 0; b < batch; b++ {
		for s := 0; s < seqLen; s++ {
			base := (b*seqLen + s) * dModel
			for d := 0; d < dModel; d++ {
				out.Data[b*dModel+d] += c.Data[base+d]
			}
		}
		for d := 0; d < dModel; d++ {
			out.Data[b*dModel+d] /= float64(seqLen)
		}
	}
	return out
}
