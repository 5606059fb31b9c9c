package embedding

import (
	"strings"
	"unicode"
)

// BERT special token IDs.
const (
	tokenCLS   = 101
	tokenSEP   = 102
	vocabLimit = 30000
)

// Tokenizer produces BERT-style model inputs (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer lower-cases and splits on non-alphanumerics, mapping words to
// hashed IDs. It stands in for a real WordPiece vocabulary.
type SimpleTokenizer struct{}

// Tokenize returns [CLS] words... [SEP] padded to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = tokenCLS
	attentionMask[0] = 1
	pos := 1
	for _, word := range SplitWords(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(HashString(word)%(vocabLimit-1000) + 1000)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = tokenSEP
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords lower-cases text and splits it on anything that is not a letter or digit.
func SplitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -(h + 1)
	}
	return h
}
