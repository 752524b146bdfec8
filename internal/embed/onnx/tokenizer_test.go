package onnx

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testVocab(t *testing.T, tokens ...string) *tokenizer {
	t.Helper()
	all := append([]string{"[PAD]", "[UNK]", "[CLS]", "[SEP]"}, tokens...)
	path := filepath.Join(t.TempDir(), "vocab.txt")
	content := ""
	for _, tok := range all {
		content += tok + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	tok, err := newTokenizer(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tok
}

func TestBasicTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Clock CLK_MAIN missing", []string{"clock", "clk", "_", "main", "missing"}},
		{"u_core/reg/D", []string{"u", "_", "core", "/", "reg", "/", "d"}},
		{"  spaced\tout  ", []string{"spaced", "out"}},
		{"café", []string{"cafe"}},
	}
	for _, tt := range tests {
		got := basicTokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("basicTokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWordpieceDecomposition(t *testing.T) {
	tok := testVocab(t, "clock", "##s", "un", "##defined")

	got := tok.wordpiece([]string{"clocks", "undefined", "zzz"})
	want := []string{"clock", "##s", "un", "##defined", "[UNK]"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wordpiece = %v, want %v", got, want)
	}
}

func TestEncodeAddsSpecialTokens(t *testing.T) {
	tok := testVocab(t, "clock")

	ids := tok.encode("clock")
	// [CLS] clock [SEP]
	want := []int64{2, 4, 3}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("encode = %v, want %v", ids, want)
	}
}

func TestTokenizeBatchPadsToLongest(t *testing.T) {
	tok := testVocab(t, "a", "b", "c")

	batch := tok.tokenizeBatch([]string{"a b c", "a"})
	if batch.batchSize != 2 {
		t.Fatalf("expected batch size 2, got %d", batch.batchSize)
	}
	// Longest sequence: [CLS] a b c [SEP] = 5.
	if batch.seqLen != 5 {
		t.Fatalf("expected seq len 5, got %d", batch.seqLen)
	}

	wantMask := []int64{1, 1, 1, 1, 1, 1, 1, 1, 0, 0}
	if !reflect.DeepEqual(batch.attentionMask, wantMask) {
		t.Fatalf("mask = %v, want %v", batch.attentionMask, wantMask)
	}
	// Padding positions must hold the [PAD] id.
	if batch.inputIDs[8] != 0 || batch.inputIDs[9] != 0 {
		t.Fatalf("expected zero padding, got %v", batch.inputIDs)
	}
}

func TestLoadVocabMissingSpecialToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("just\nwords\n"), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	if _, err := newTokenizer(path); err == nil {
		t.Fatal("expected error for vocab without special tokens")
	}
}
