package tensor

import (
	"time"

	"golang.org/x/exp/rand"
)

// dropoutRand is the package-level source used by Dropout.
var dropoutRand *rand.Rand

// SetDropoutSeed seeds the dropout random source, for reproducible tests.
func SetDropoutSeed(seed uint64) {
	dropoutRand = rand.New(rand.NewSource(seed))
}

// Dropout randomly zeroes elements with probability p and scales the
// survivors by 1/(1-p) (inverted dropout). With training=false or p=0 the
// input is returned unchanged as a copy.
func (t *Tensor) Dropout(p float64, training bool) *Tensor {
	if !training || p == 0 {
		return t.Clone()
	}
	if p < 0 || p > 1 {
		panic("dropout probability must be between 0 and 1")
	}

	if dropoutRand == nil {
		dropoutRand = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	c := t.Contiguous()
	result := NewTensor(c.Shape)
	scale := 1.0 / (1.0 - p)
	for i := 0; i < result.Size(); i++ {
		if dropoutRand.Float64() >= p {
			result.Data[i] = c.Data[i] * scale
		}
	}
	return result
}
