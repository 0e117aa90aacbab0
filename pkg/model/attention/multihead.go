// Package attention implements multi-head scaled dot-product attention
// with right-padding length masks, plus the dense projections it is
// built from.
package attention

import (
	"fmt"
	"math"

	"nnkit/pkg/tensor"
)

// MultiHeadAttention projects queries, keys and values into NumHeads
// parallel subspaces, attends independently per head, and recombines.
//
// The four projections map d_model -> d*numhead (or back for the output
// projection); each owns its weight and bias. Scale is sqrt(d_K), fixed
// at construction.
type MultiHeadAttention struct {
	DModel   int
	DQ       int
	DK       int
	DV       int
	NumHeads int
	Dropout  float64
	Scale    float64

	WQuery  *Linear // (d_model, d_Q*numhead)
	WKey    *Linear // (d_model, d_K*numhead)
	WValue  *Linear // (d_model, d_V*numhead)
	OutProj *Linear // (d_V*numhead, d_model)
}

// NewMultiHeadAttention creates a multi-head attention layer.
// dQ must equal dK since queries and keys are dotted against each other.
func NewMultiHeadAttention(dModel, dQ, dK, dV, numHeads int, dropout float64) *MultiHeadAttention {
	if numHeads < 1 {
		panic(fmt.Sprintf("numhead must be >= 1, got %d", numHeads))
	}
	if dQ != dK {
		panic(fmt.Sprintf("d_Q (%d) must equal d_K (%d)", dQ, dK))
	}

	return &MultiHeadAttention{
		DModel:   dModel,
		DQ:       dQ,
		DK:       dK,
		DV:       dV,
		NumHeads: numHeads,
		Dropout:  dropout,
		Scale:    math.Sqrt(float64(dK)),
		WQuery:   NewLinear(dModel, dQ*numHeads),
		WKey:     NewLinear(dModel, dK*numHeads),
		WValue:   NewLinear(dModel, dV*numHeads),
		OutProj:  NewLinear(dV*numHeads, dModel),
	}
}

// Forward computes multi-head attention.
//
// Input shapes: xQ, xK, xV are (batch, seq, d_model). lengths, when
// non-nil, holds one valid-length per batch element; score entries whose
// key position is >= that length are set to -Inf before the softmax, so
// padding positions receive exactly zero attention mass in every head and
// query row. nil lengths means full attention, which is a valid mode,
// not an error.
//
// Output shape equals the shape of xQ.
func (m *MultiHeadAttention) Forward(xQ, xK, xV *tensor.Tensor, lengths []int, training bool) (*tensor.Tensor, error) {
	if len(xQ.Shape) != 3 {
		return nil, fmt.Errorf("expected 3D input (batch, seq, d_model), got %dD with shape %v",
			len(xQ.Shape), xQ.Shape)
	}
	batch, seqLen, dModel := xQ.Shape[0], xQ.Shape[1], xQ.Shape[2]
	if dModel != m.DModel {
		return nil, fmt.Errorf("input dimension %d doesn't match expected %d", dModel, m.DModel)
	}
	for _, x := range []*tensor.Tensor{xK, xV} {
		if len(x.Shape) != 3 || x.Shape[0] != batch || x.Shape[2] != m.DModel {
			return nil, fmt.Errorf("key/value shape %v is incompatible with query shape %v", x.Shape, xQ.Shape)
		}
	}
	seqK := xK.Shape[1]
	if xV.Shape[1] != seqK {
		return nil, fmt.Errorf("key seq length %d doesn't match value seq length %d", seqK, xV.Shape[1])
	}
	if lengths != nil {
		if len(lengths) != batch {
			return nil, fmt.Errorf("got %d lengths for batch of %d", len(lengths), batch)
		}
		for i, l := range lengths {
			if l < 1 || l > seqK {
				return nil, fmt.Errorf("length %d for batch element %d out of range [1, %d]", l, i, seqK)
			}
		}
	}

	// Project and split into heads: (batch, numhead, seq, d)
	q, err := m.projectHeads(m.WQuery, xQ, m.DQ)
	if err != nil {
		return nil, fmt.Errorf("failed to compute Q: %w", err)
	}
	k, err := m.projectHeads(m.WKey, xK, m.DK)
	if err != nil {
		return nil, fmt.Errorf("failed to compute K: %w", err)
	}
	v, err := m.projectHeads(m.WValue, xV, m.DV)
	if err != nil {
		return nil, fmt.Errorf("failed to compute V: %w", err)
	}

	// scores: (batch, numhead, seq, seqK)
	kT, err := k.Transpose(2, 3)
	if err != nil {
		return nil, err
	}
	scores, err := tensor.Matmul(q, kT)
	if err != nil {
		return nil, fmt.Errorf("failed to compute attention scores: %w", err)
	}
	scores = scores.Scale(1.0 / m.Scale)

	if lengths != nil {
		maskScores(scores, lengths)
	}

	weights := tensor.SoftmaxLast(scores)
	weights = weights.Dropout(m.Dropout, training)

	// (batch, numhead, seq, d_V)
	ctx, err := tensor.Matmul(weights, v)
	if err != nil {
		return nil, fmt.Errorf("failed to apply attention to V: %w", err)
	}

	// merge heads: (batch, seq, numhead*d_V)
	ctx, err = ctx.Transpose(1, 2)
	if err != nil {
		return nil, err
	}
	ctx = ctx.Reshape([]int{batch, seqLen, m.NumHeads * m.DV})

	out, err := m.OutProj.Forward(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply output projection: %w", err)
	}
	return out, nil
}

// projectHeads applies a projection and reorders the result from
// (batch, seq, numhead*d) to (batch, numhead, seq, d).
func (m *MultiHeadAttention) projectHeads(proj *Linear, x *tensor.Tensor, d int) (*tensor.Tensor, error) {
	batch, seqLen := x.Shape[0], x.Shape[1]
	p, err := proj.Forward(x)
	if err != nil {
		return nil, err
	}
	p = p.Reshape([]int{batch, seqLen, m.NumHeads, d})
	return p.Transpose(1, 2)
}

// maskScores sets score entries whose key index is at or beyond the batch
// element's valid length to -Inf, independently per head and query row.
func maskScores(scores *tensor.Tensor, lengths []int) {
	batch, heads, seqQ, seqK := scores.Shape[0], scores.Shape[1], scores.Shape[2], scores.Shape[3]
	negInf := math.Inf(-1)
	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			for q := 0; q < seqQ; q++ {
				base := ((b*heads+h)*seqQ + q) * seqK
				for kk := lengths[b]; kk < seqK; kk++ {
					scores.Data[base+kk] = negInf
				}
			}
		}
	}
}
