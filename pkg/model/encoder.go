package model

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"nnkit/pkg/model/attention"
	"nnkit/pkg/tensor"
)

// initRand seeds embedding initialization.
var initRand = rand.NewSource(uint64(time.Now().UnixNano()))

// SetInitSeed seeds embedding initialization, for reproducible tests.
func SetInitSeed(seed uint64) {
	initRand = rand.NewSource(seed)
}

// EncoderBlock is a single post-norm Transformer encoder block:
//
//	x   = norm1(x + dropout(attn(x, x, x, lengths)))
//	out = norm2(x + dropout(ff(x)))
//
// Self-attention uses the input as query, key and value. Both residual
// paths pass through dropout before the add.
type EncoderBlock struct {
	Attn    *attention.MultiHeadAttention
	FF      *FeedForward
	Norm1   *LayerNorm
	Norm2   *LayerNorm
	Dropout float64
}

// NewEncoderBlock creates an encoder block with per-head dimension
// d_model / numhead for queries, keys and values.
func NewEncoderBlock(config Config) *EncoderBlock {
	headDim := config.HeadDim()
	return &EncoderBlock{
		Attn:    attention.NewMultiHeadAttention(config.DModel, headDim, headDim, headDim, config.NumHeads, config.Dropout),
		FF:      NewFeedForward(config),
		Norm1:   NewLayerNorm(config.DModel, 1e-5),
		Norm2:   NewLayerNorm(config.DModel, 1e-5),
		Dropout: config.Dropout,
	}
}

// Forward runs one encoder block. Input and output shape:
// (batch, seq, d_model).
func (b *EncoderBlock) Forward(x *tensor.Tensor, lengths []int, training bool) (*tensor.Tensor, error) {
	attnOut, err := b.Attn.Forward(x, x, x, lengths, training)
	if err != nil {
		return nil, fmt.Errorf("failed to compute self-attention: %w", err)
	}
	attnOut = attnOut.Dropout(b.Dropout, training)

	x1, err := tensor.Add(x, attnOut)
	if err != nil {
		return nil, fmt.Errorf("failed to add attention residual: %w", err)
	}
	x1, err = b.Norm1.Forward(x1)
	if err != nil {
		return nil, fmt.Errorf("failed to apply Norm1: %w", err)
	}

	ffOut, err := b.FF.Forward(x1, training)
	if err != nil {
		return nil, fmt.Errorf("failed to compute feed-forward: %w", err)
	}
	ffOut = ffOut.Dropout(b.Dropout, training)

	out, err := tensor.Add(x1, ffOut)
	if err != nil {
		return nil, fmt.Errorf("failed to add feed-forward residual: %w", err)
	}
	out, err = b.Norm2.Forward(out)
	if err != nil {
		return nil, fmt.Errorf("failed to apply Norm2: %w", err)
	}
	return out, nil
}

// Encoder is a stack of encoder blocks over an embedded token sequence.
//
// Forward embeds the tokens, applies dropout, adds the sinusoidal
// positional encoding, then runs every block in sequence. Each block
// receives the same length vector: sequence length does not change
// through the stack.
type Encoder struct {
	Config   Config
	SrcEmbed *tensor.Tensor // (vocab_size, d_model)
	Blocks   []*EncoderBlock
	Dropout  float64
}

// NewEncoder creates an encoder for the given config. Embeddings are
// initialized from N(0, 0.02).
func NewEncoder(config Config) *Encoder {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	embed := tensor.NewTensor([]int{config.VocabSize, config.DModel})
	dist := distuv.Normal{Mu: 0, Sigma: 0.02, Src: initRand}
	for i := range embed.Data {
		embed.Data[i] = dist.Rand()
	}

	blocks := make([]*EncoderBlock, config.NumLayers)
	for i := range blocks {
		blocks[i] = NewEncoderBlock(config)
	}

	return &Encoder{
		Config:   config,
		SrcEmbed: embed,
		Blocks:   blocks,
		Dropout:  config.Dropout,
	}
}

// Forward encodes a batch of token indices.
//
// Input shape: (batch, seq) token indices; lengths holds one valid-length
// per batch element, or nil for full attention. Output shape:
// (batch, seq, d_model) regardless of the number of layers.
func (e *Encoder) Forward(tokens *tensor.Tensor, lengths []int, training bool) (*tensor.Tensor, error) {
	if len(tokens.Shape) != 2 {
		return nil, fmt.Errorf("expected 2D input (batch, seq), got %dD", len(tokens.Shape))
	}
	seqLen := tokens.Shape[1]

	x, err := lookupEmbeddings(e.SrcEmbed, tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup embeddings: %w", err)
	}
	x = x.Dropout(e.Dropout, training)

	pe := PosEncoding(seqLen, e.Config.DModel)
	x, err = tensor.Add(x, pe)
	if err != nil {
		return nil, fmt.Errorf("failed to add positional encoding: %w", err)
	}

	for i, block := range e.Blocks {
		x, err = block.Forward(x, lengths, training)
		if err != nil {
			return nil, fmt.Errorf("failed in encoder block %d: %w", i, err)
		}
	}
	return x, nil
}

// lookupEmbeddings gathers embedding rows for a (batch, seq) index tensor,
// producing (batch, seq, d_model).
func lookupEmbeddings(table, indices *tensor.Tensor) (*tensor.Tensor, error) {
	batch, seqLen := indices.Shape[0], indices.Shape[1]
	vocabSize, dModel := table.Shape[0], table.Shape[1]

	out := tensor.NewTensor([]int{batch, seqLen, dModel})
	for b := 0; b < batch; b++ {
		for s := 0; s < seqLen; s++ {
			id := int(indices.Get([]int{b, s}))
			if id < 0 || id >= vocabSize {
				return nil, fmt.Errorf("invalid token ID %d at position (%d, %d), vocab size is %d",
					id, b, s, vocabSize)
			}
			copy(out.Data[(b*seqLen+s)*dModel:(b*seqLen+s+1)*dModel],
				table.Data[id*dModel:(id+1)*dModel])
		}
	}
	return out, nil
}
