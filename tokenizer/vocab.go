package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads a vocabulary in the standard vocab.txt format (one token per
// line, line number = token id) and constructs a Tokenizer from it.
// Blank lines are skipped but still consume their line index, matching the
// ids baked into exported embedding models.
func Load(r io.Reader) (*Tokenizer, error) {
	vocab := make(map[string]int)

	scanner := bufio.NewScanner(r)
	index := 0
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token != "" {
			vocab[token] = index
		}
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}

	return New(vocab)
}

// LoadFile loads a vocabulary from a file path. See Load.
func LoadFile(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}
