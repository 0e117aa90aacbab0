package model

import (
	"strings"
	"testing"

	"nnkit/pkg/model/attention"
	"nnkit/pkg/tensor"
)

func testConfig(numLayers int) Config {
	return Config{
		VocabSize: 20,
		DModel:    8,
		DFF:       16,
		NumHeads:  2,
		NumLayers: numLayers,
		Dropout:   0.1,
		PadIndex:  0,
	}
}

func tokenBatch(ids [][]float64) *tensor.Tensor {
	rows := len(ids)
	cols := len(ids[0])
	out := tensor.NewTensor([]int{rows, cols})
	for r, row := range ids {
		copy(out.Data[r*cols:(r+1)*cols], row)
	}
	return out
}

func TestEncoderForwardShape(t *testing.T) {
	for _, layers := range []int{1, 2, 3} {
		SetInitSeed(100)
		attention.SetInitSeed(100)
		enc := NewEncoder(testConfig(layers))

		tokens := tokenBatch([][]float64{
			{2, 3, 4, 0, 0},
			{5, 6, 7, 8, 9},
		})
		out, err := enc.Forward(tokens, []int{3, 5}, false)
		if err != nil {
			t.Fatalf("Forward with %d layers failed: %v", layers, err)
		}
		if out.Shape[0] != 2 || out.Shape[1] != 5 || out.Shape[2] != 8 {
			t.Errorf("with %d layers got shape %v, want [2 5 8]", layers, out.Shape)
		}
	}
}

func TestEncoderBlocksChain(t *testing.T) {
	SetInitSeed(200)
	attention.SetInitSeed(200)
	config := testConfig(2)

	one := NewEncoder(testConfig(1))
	SetInitSeed(200)
	attention.SetInitSeed(200)
	two := NewEncoder(config)

	// same seeds: the first block of the 2-layer stack matches the
	// 1-layer encoder, so applying that block again by hand must
	// reproduce the deep output
	tokens := tokenBatch([][]float64{{2, 3, 4, 5}})
	lengths := []int{4}

	shallow, err := one.Forward(tokens, lengths, false)
	if err != nil {
		t.Fatalf("1-layer Forward failed: %v", err)
	}
	chained, err := two.Blocks[1].Forward(shallow, lengths, false)
	if err != nil {
		t.Fatalf("manual second block failed: %v", err)
	}
	deep, err := two.Forward(tokens, lengths, false)
	if err != nil {
		t.Fatalf("2-layer Forward failed: %v", err)
	}

	if !deep.Equals(chained, 1e-12) {
		t.Error("stacked blocks do not consume the previous block's output")
	}
}

func TestEncoderEvalDeterministic(t *testing.T) {
	SetInitSeed(300)
	attention.SetInitSeed(300)
	enc := NewEncoder(testConfig(2))

	tokens := tokenBatch([][]float64{{2, 3, 0, 0}})
	lengths := []int{2}

	a, err := enc.Forward(tokens, lengths, false)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	b, err := enc.Forward(tokens, lengths, false)
	if err != nil {
		t.Fatalf("second Forward failed: %v", err)
	}
	if !a.Equals(b, 0) {
		t.Error("evaluation-mode forward should be deterministic")
	}
}

func TestEncoderForwardErrors(t *testing.T) {
	SetInitSeed(400)
	attention.SetInitSeed(400)
	enc := NewEncoder(testConfig(1))

	if _, err := enc.Forward(tensor.NewTensor([]int{4}), nil, false); err == nil {
		t.Error("expected error for 1D token tensor")
	}

	bad := tokenBatch([][]float64{{2, 99}})
	_, err := enc.Forward(bad, nil, false)
	if err == nil || !strings.Contains(err.Error(), "invalid token ID") {
		t.Errorf("expected token ID error, got %v", err)
	}
}

func TestNewEncoderPanicsOnInvalidConfig(t *testing.T) {
	config := testConfig(1)
	config.NumHeads = 3 // does not divide d_model 8

	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid config")
		}
	}()
	NewEncoder(config)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero vocab", func(c *Config) { c.VocabSize = 0 }},
		{"zero d_model", func(c *Config) { c.DModel = 0 }},
		{"zero heads", func(c *Config) { c.NumHeads = 0 }},
		{"indivisible heads", func(c *Config) { c.NumHeads = 3 }},
		{"zero d_ff", func(c *Config) { c.DFF = 0 }},
		{"zero layers", func(c *Config) { c.NumLayers = 0 }},
		{"negative dropout", func(c *Config) { c.Dropout = -0.1 }},
		{"dropout above one", func(c *Config) { c.Dropout = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig(100)
			tt.mutate(&config)
			if err := config.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	if err := DefaultConfig(100).Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(5000)
	if config.DModel != 64 || config.DFF != 128 || config.NumHeads != 4 || config.NumLayers != 2 {
		t.Errorf("unexpected defaults: %+v", config)
	}
	if config.HeadDim() != 16 {
		t.Errorf("HeadDim = %d, want 16", config.HeadDim())
	}
}
