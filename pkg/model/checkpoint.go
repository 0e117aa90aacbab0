package model

import (
	"encoding/gob"
	"fmt"
	"os"
)

// SaveCheckpoint writes the classifier's full state (config and all
// parameter tensors) to path with gob encoding.
func SaveCheckpoint(path string, m *SentimentClassifier) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(m); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a classifier saved by SaveCheckpoint.
func LoadCheckpoint(path string) (*SentimentClassifier, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var m SentimentClassifier
	if err := gob.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &m, nil
}
