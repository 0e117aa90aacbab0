package model

import (
	"path/filepath"
	"testing"

	"nnkit/pkg/model/attention"
)

func newTestClassifier(t *testing.T, seed uint64) *SentimentClassifier {
	t.Helper()
	SetInitSeed(seed)
	attention.SetInitSeed(seed)
	m := NewSentimentClassifier(testConfig(2))
	m.SetTraining(false)
	return m
}

func TestClassifierForwardShape(t *testing.T) {
	m := newTestClassifier(t, 500)

	tokens := tokenBatch([][]float64{
		{2, 3, 4, 0, 0},
		{5, 6, 0, 0, 0},
		{7, 8, 9, 10, 11},
	})
	logits, err := m.Forward(tokens, []int{3, 2, 5})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if len(logits.Shape) != 1 || logits.Shape[0] != 3 {
		t.Errorf("logits shape %v, want [3]", logits.Shape)
	}
}

func TestClassifierEvalDeterministic(t *testing.T) {
	m := newTestClassifier(t, 600)

	tokens := tokenBatch([][]float64{{2, 3, 4, 0}})
	lengths := []int{3}

	a, err := m.Forward(tokens, lengths)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	b, err := m.Forward(tokens, lengths)
	if err != nil {
		t.Fatalf("second Forward failed: %v", err)
	}
	if !a.Equals(b, 0) {
		t.Error("evaluation-mode scoring should be deterministic")
	}
}

func TestClassifierForwardError(t *testing.T) {
	m := newTestClassifier(t, 700)

	tokens := tokenBatch([][]float64{{2, 3}})
	if _, err := m.Forward(tokens, []int{5}); err == nil {
		t.Error("expected error for out-of-range length")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	m := newTestClassifier(t, 800)

	tokens := tokenBatch([][]float64{
		{2, 3, 4, 0},
		{5, 6, 7, 8},
	})
	lengths := []int{3, 4}

	want, err := m.Forward(tokens, lengths)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveCheckpoint(path, m); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	loaded.SetTraining(false)

	got, err := loaded.Forward(tokens, lengths)
	if err != nil {
		t.Fatalf("Forward on loaded model failed: %v", err)
	}
	if !got.Equals(want, 0) {
		t.Error("loaded model should score identically to the saved one")
	}

	if loaded.Config.DModel != m.Config.DModel || loaded.Config.NumLayers != m.Config.NumLayers {
		t.Errorf("loaded config %+v does not match saved config %+v", loaded.Config, m.Config)
	}
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	if _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "absent.gob")); err == nil {
		t.Error("expected error for missing checkpoint file")
	}
}
