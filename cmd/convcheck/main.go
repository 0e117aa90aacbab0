// Command convcheck verifies the vectorized convolution and max-pooling
// forward passes against naive nested-loop references on random inputs,
// and reports agreement as a percentage.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"nnkit/pkg/cnn"
	"nnkit/pkg/tensor"
)

func main() {
	batch := flag.Int("batch", 8, "batch size")
	inputSize := flag.Int("input", 32, "input height and width")
	channels := flag.Int("channels", 3, "input channels")
	filterSize := flag.Int("filter", 3, "filter height and width")
	numFilters := flag.Int("filters", 8, "number of convolution filters")
	poolSize := flag.Int("pool", 2, "pooling window size")
	poolStride := flag.Int("stride", 2, "pooling stride")
	numTests := flag.Int("tests", 50, "number of random trials")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	fmt.Println("=== Convolution and Pooling Forward Check ===")
	fmt.Printf("Input: (%d, %d, %d, %d), filter: %dx%d, filters: %d\n",
		*batch, *channels, *inputSize, *inputSize, *filterSize, *filterSize, *numFilters)
	fmt.Printf("Pooling: %dx%d window, stride %d, trials: %d\n\n",
		*poolSize, *poolSize, *poolStride, *numTests)

	cnn.SetInitSeed(*seed)
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(*seed + 1)}

	var convErr, poolErr float64
	for t := 0; t < *numTests; t++ {
		x := randomTensor([]int{*batch, *channels, *inputSize, *inputSize}, dist)

		conv := cnn.NewConvLayer(*filterSize, *filterSize, *channels, *numFilters)
		got, err := conv.Forward(x)
		if err != nil {
			log.Fatalf("Convolution forward failed: %v", err)
		}
		want := referenceConv(x, conv.W, conv.B)
		convErr += relativeError(got, want)

		pool := cnn.NewMaxPoolLayer(*poolSize, *poolStride)
		pooled, err := pool.Forward(got)
		if err != nil {
			log.Fatalf("Pooling forward failed: %v", err)
		}
		poolWant := referencePool(got, *poolSize, *poolStride)
		poolErr += relativeError(pooled, poolWant)
	}

	n := float64(*numTests)
	fmt.Printf("Convolution forward accuracy: %.6f%%\n", 100*(1-convErr/n))
	fmt.Printf("Max-pooling forward accuracy: %.6f%%\n", 100*(1-poolErr/n))
}

func randomTensor(shape []int, dist distuv.Normal) *tensor.Tensor {
	t := tensor.NewTensor(shape)
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
	return t
}

// referenceConv is the direct nested-loop cross-correlation the vectorized
// layer must reproduce.
func referenceConv(x, w, b *tensor.Tensor) *tensor.Tensor {
	batch, inCh, height, width := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	outCh, fH, fW := w.Shape[0], w.Shape[2], w.Shape[3]
	outH := height - fH + 1
	outW := width - fW + 1

	out := tensor.NewTensor([]int{batch, outCh, outH, outW})
	for n := 0; n < batch; n++ {
		for o := 0; o < outCh; o++ {
			for i := 0; i < outH; i++ {
				for j := 0; j < outW; j++ {
					sum := b.Data[o]
					for c := 0; c < inCh; c++ {
						for p := 0; p < fH; p++ {
							for q := 0; q < fW; q++ {
								sum += x.Data[((n*inCh+c)*height+i+p)*width+j+q] *
									w.Data[((o*inCh+c)*fH+p)*fW+q]
							}
						}
					}
					out.Data[((n*outCh+o)*outH+i)*outW+j] = sum
				}
			}
		}
	}
	return out
}

func referencePool(x *tensor.Tensor, poolSize, stride int) *tensor.Tensor {
	batch, channels, height, width := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	outH := (height-poolSize)/stride + 1
	outW := (width-poolSize)/stride + 1

	out := tensor.NewTensor([]int{batch, channels, outH, outW})
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			for i := 0; i < outH; i++ {
				for j := 0; j < outW; j++ {
					maxVal := math.Inf(-1)
					for p := 0; p < poolSize; p++ {
						for q := 0; q < poolSize; q++ {
							v := x.Data[((n*channels+c)*height+i*stride+p)*width+j*stride+q]
							if v > maxVal {
								maxVal = v
							}
						}
					}
					out.Data[((n*channels+c)*outH+i)*outW+j] = maxVal
				}
			}
		}
	}
	return out
}

// relativeError is ||got - want|| / ||want|| over the flattened tensors.
func relativeError(got, want *tensor.Tensor) float64 {
	g := got.Contiguous()
	diff := make([]float64, len(g.Data))
	floats.SubTo(diff, g.Data, want.Data)

	ref := floats.Norm(want.Data, 2)
	if ref == 0 {
		return floats.Norm(diff, 2)
	}
	return floats.Norm(diff, 2) / ref
}
