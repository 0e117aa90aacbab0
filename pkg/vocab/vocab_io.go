package vocab

import (
	"bufio"
	"fmt"
	"os"
)

// Save writes the vocabulary to a file, one word per line in index order.
// The special tokens are written too, so the file fully determines the
// mapping.
func (v *Vocabulary) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, word := range v.Itos {
		if _, err := fmt.Fprintln(writer, word); err != nil {
			return fmt.Errorf("failed to write word %q: %w", word, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

// Load reads a vocabulary written by Save.
func Load(path string) (*Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	v := &Vocabulary{Stoi: make(map[string]int)}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := scanner.Text()
		if word == "" {
			continue
		}
		if _, dup := v.Stoi[word]; dup {
			return nil, fmt.Errorf("duplicate word %q in vocabulary file", word)
		}
		v.Stoi[word] = len(v.Itos)
		v.Itos = append(v.Itos, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(v.Itos) < 2 || v.Itos[PadIndex] != PadToken || v.Itos[UnkIndex] != UnkToken {
		return nil, fmt.Errorf("vocabulary file %s is missing the %s/%s header", path, PadToken, UnkToken)
	}
	return v, nil
}
