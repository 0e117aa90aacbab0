// Package vocab provides a word-level vocabulary for the sentiment task:
// token/index mapping with padding and unknown tokens, batch padding, and
// derivation of per-example valid lengths from the padding convention.
package vocab

import (
	"sort"
	"strings"
	"unicode"

	"nnkit/pkg/tensor"
)

// Special tokens. Padding is index 0 so that zero-filled tensors are
// all-padding by construction.
const (
	PadToken = "<PAD>"
	UnkToken = "<UNK>"

	PadIndex = 0
	UnkIndex = 1
)

// Vocabulary maps words to indices and back.
type Vocabulary struct {
	Stoi map[string]int
	Itos []string
}

// Tokenize lower-cases text and splits it into words on any run of
// non-letter, non-digit characters.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Build constructs a vocabulary from a corpus, keeping words that occur
// at least minFreq times. Words are assigned indices by descending
// frequency, ties broken alphabetically, after the special tokens.
func Build(corpus []string, minFreq int) *Vocabulary {
	if minFreq < 1 {
		minFreq = 1
	}

	counts := make(map[string]int)
	for _, text := range corpus {
		for _, word := range Tokenize(text) {
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for word, n := range counts {
		if n >= minFreq {
			words = append(words, word)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	v := &Vocabulary{
		Stoi: make(map[string]int, len(words)+2),
		Itos: make([]string, 0, len(words)+2),
	}
	for _, special := range []string{PadToken, UnkToken} {
		v.Stoi[special] = len(v.Itos)
		v.Itos = append(v.Itos, special)
	}
	for _, word := range words {
		v.Stoi[word] = len(v.Itos)
		v.Itos = append(v.Itos, word)
	}
	return v
}

// Size returns the number of entries, special tokens included.
func (v *Vocabulary) Size() int {
	return len(v.Itos)
}

// Encode tokenizes text and maps every word to its index; unknown words
// map to UnkIndex.
func (v *Vocabulary) Encode(text string) []int {
	words := Tokenize(text)
	ids := make([]int, len(words))
	for i, word := range words {
		if id, ok := v.Stoi[word]; ok {
			ids[i] = id
		} else {
			ids[i] = UnkIndex
		}
	}
	return ids
}

// Decode maps indices back to words, skipping padding.
func (v *Vocabulary) Decode(ids []int) string {
	var words []string
	for _, id := range ids {
		if id == PadIndex {
			continue
		}
		if id >= 0 && id < len(v.Itos) {
			words = append(words, v.Itos[id])
		}
	}
	return strings.Join(words, " ")
}

// PadBatch right-pads the sequences to a common length with PadIndex and
// returns a (batch, maxLen) tensor of token indices.
func PadBatch(seqs [][]int) *tensor.Tensor {
	maxLen := 0
	for _, seq := range seqs {
		if len(seq) > maxLen {
			maxLen = len(seq)
		}
	}

	out := tensor.NewTensor([]int{len(seqs), maxLen})
	for b, seq := range seqs {
		for s, id := range seq {
			out.Data[b*maxLen+s] = float64(id)
		}
	}
	return out
}

// Lengths counts the non-padding positions per row of a (batch, seq)
// token tensor. These are the valid lengths the attention mask is built
// from.
func Lengths(batch *tensor.Tensor, padIndex int) []int {
	rows, cols := batch.Shape[0], batch.Shape[1]
	c := batch.Contiguous()
	lengths := make([]int, rows)
	for b := 0; b < rows; b++ {
		n := 0
		for s := 0; s < cols; s++ {
			if int(c.Data[b*cols+s]) != padIndex {
				n++
			}
		}
		lengths[b] = n
	}
	return lengths
}
