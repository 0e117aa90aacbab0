// Package model implements a Transformer encoder for binary sentiment
// classification: sinusoidal positional encoding, post-norm encoder
// blocks with masked self-attention, a mean-pooling classifier head,
// evaluation metrics and gob checkpointing.
package model

import "fmt"

// Config holds the encoder hyperparameters.
type Config struct {
	// VocabSize is the size of the token vocabulary, including the
	// padding and unknown tokens.
	VocabSize int

	// DModel is the model (embedding) dimension.
	DModel int

	// DFF is the hidden dimension of the position-wise feed-forward
	// sublayer.
	DFF int

	// NumHeads is the number of attention heads per block.
	NumHeads int

	// NumLayers is the number of encoder blocks.
	NumLayers int

	// Dropout is the dropout rate used throughout the encoder.
	Dropout float64

	// PadIndex is the token index that marks padding; used only to
	// derive per-example valid lengths.
	PadIndex int
}

// DefaultConfig returns the hyperparameters used for the IMDB sentiment
// task: d_model 64, d_ff 128, 4 heads, 2 layers, dropout 0.1.
func DefaultConfig(vocabSize int) Config {
	return Config{
		VocabSize: vocabSize,
		DModel:    64,
		DFF:       128,
		NumHeads:  4,
		NumLayers: 2,
		Dropout:   0.1,
		PadIndex:  0,
	}
}

// Validate checks that the configuration is consistent.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be positive, got %d", c.VocabSize)
	}
	if c.DModel <= 0 {
		return fmt.Errorf("d_model must be positive, got %d", c.DModel)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("numhead must be positive, got %d", c.NumHeads)
	}
	if c.DModel%c.NumHeads != 0 {
		return fmt.Errorf("d_model (%d) must be divisible by numhead (%d)", c.DModel, c.NumHeads)
	}
	if c.DFF <= 0 {
		return fmt.Errorf("d_ff must be positive, got %d", c.DFF)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("numlayer must be positive, got %d", c.NumLayers)
	}
	if c.Dropout < 0 || c.Dropout > 1 {
		return fmt.Errorf("dropout must be in [0, 1], got %g", c.Dropout)
	}
	return nil
}

// HeadDim returns the per-head dimension d_model / numhead.
func (c Config) HeadDim() int {
	return c.DModel / c.NumHeads
}
