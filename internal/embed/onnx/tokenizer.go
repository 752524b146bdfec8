package onnx

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSeqLen = 128

// tokenized packs a batch of token sequences into the flat slices the ONNX
// session consumes. All slices have length batchSize * seqLen.
type tokenized struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// tokenizer performs WordPiece tokenization for BERT-style models. Report
// text is effectively ASCII, so no CJK handling is needed; accents are still
// stripped to stay consistent with the model's lowercase vocabulary.
type tokenizer struct {
	vocab *vocab
}

func newTokenizer(vocabPath string) (*tokenizer, error) {
	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	return &tokenizer{vocab: v}, nil
}

// tokenizeBatch tokenizes all texts and pads them to the longest sequence in
// the batch, capped at maxSeqLen.
func (t *tokenizer) tokenizeBatch(texts []string) tokenized {
	n := len(texts)
	if n == 0 {
		return tokenized{}
	}

	sequences := make([][]int64, n)
	seqLen := int64(0)
	for i, text := range texts {
		ids := t.encode(text)
		sequences[i] = ids
		if int64(len(ids)) > seqLen {
			seqLen = int64(len(ids))
		}
	}

	batchSize := int64(n)
	total := batchSize * seqLen
	out := tokenized{
		inputIDs:      make([]int64, total),
		attentionMask: make([]int64, total),
		tokenTypeIDs:  make([]int64, total),
		batchSize:     batchSize,
		seqLen:        seqLen,
	}
	for i, ids := range sequences {
		offset := int64(i) * seqLen
		for j, id := range ids {
			out.inputIDs[offset+int64(j)] = id
			out.attentionMask[offset+int64(j)] = 1
		}
		// Remaining positions stay 0: padID, mask 0, type 0.
	}
	return out
}

// encode converts one text into [CLS] subword-ids... [SEP], truncated so the
// whole sequence fits in maxSeqLen.
func (t *tokenizer) encode(text string) []int64 {
	tokens := t.wordpiece(basicTokenize(text))
	if len(tokens) > maxSeqLen-2 {
		tokens = tokens[:maxSeqLen-2]
	}

	ids := make([]int64, 0, len(tokens)+2)
	ids = append(ids, t.vocab.clsID)
	for _, tok := range tokens {
		ids = append(ids, t.vocab.lookup(tok))
	}
	return append(ids, t.vocab.sepID)
}

// wordpiece decomposes basic tokens into vocabulary subwords using longest
// prefix matching. Tokens with no decomposition become [UNK].
func (t *tokenizer) wordpiece(tokens []string) []string {
	var result []string
	for _, token := range tokens {
		runes := []rune(token)
		if len(runes) == 0 {
			continue
		}
		if len(runes) > 200 {
			result = append(result, "[UNK]")
			continue
		}

		var subTokens []string
		start := 0
		for start < len(runes) {
			end := len(runes)
			found := false
			for end > start {
				sub := string(runes[start:end])
				if start > 0 {
					sub = "##" + sub
				}
				if t.vocab.contains(sub) {
					subTokens = append(subTokens, sub)
					found = true
					break
				}
				end--
			}
			if !found {
				subTokens = []string{"[UNK]"}
				break
			}
			start = end
		}
		result = append(result, subTokens...)
	}
	return result
}

// basicTokenize lowercases, strips accents and control characters, and
// splits on whitespace and punctuation.
func basicTokenize(text string) []string {
	text = stripAccents(strings.ToLower(cleanText(text)))

	var tokens []string
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, splitOnPunctuation(word)...)
	}
	return tokens
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitOnPunctuation(word string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range word {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
