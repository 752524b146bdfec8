package onnx

import (
	"bufio"
	"fmt"
	"os"
)

// vocab is a WordPiece vocabulary. Token IDs are 0-indexed line numbers of
// the vocab.txt file the model ships with.
type vocab struct {
	tokenToID map[string]int64

	padID int64
	unkID int64
	clsID int64
	sepID int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	tokenToID := make(map[string]int64, 32000)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokenToID[scanner.Text()] = int64(len(tokenToID))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read error: %w", err)
	}
	if len(tokenToID) == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	v := &vocab{tokenToID: tokenToID}
	for _, s := range []struct {
		name string
		dest *int64
	}{
		{"[PAD]", &v.padID},
		{"[UNK]", &v.unkID},
		{"[CLS]", &v.clsID},
		{"[SEP]", &v.sepID},
	} {
		id, ok := tokenToID[s.name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", s.name)
		}
		*s.dest = id
	}
	return v, nil
}

// lookup returns the ID for token, or the [UNK] ID if absent.
func (v *vocab) lookup(token string) int64 {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	return v.unkID
}

func (v *vocab) contains(token string) bool {
	_, ok := v.tokenToID[token]
	return ok
}
