package tokenizer

import (
	"fmt"
	"unicode"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"
	unkToken = "[UNK]"

	// continuationMarker prefixes every subword piece after the first one
	// within a word.
	continuationMarker = "##"

	// maxCharsPerWord is the ceiling above which a basic token is mapped to
	// [UNK] without attempting segmentation.
	maxCharsPerWord = 100
)

// Encoding is the fixed-shape output of Encode. IDs and Mask always have the
// same length, equal to the maxLength passed to Encode. Mask holds 1 for every
// real token position and 0 for padding.
type Encoding struct {
	IDs  []int
	Mask []int
}

// Tokenizer is a WordPiece-style subword encoder over a fixed vocabulary.
// It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	vocab map[string]int

	clsID int
	sepID int
	padID int
	unkID int
}

// New creates a Tokenizer from a vocabulary mapping token strings to ids.
// The vocabulary must contain the [CLS], [SEP], [PAD] and [UNK] entries;
// a vocabulary missing any of them fails construction once, never per call.
func New(vocab map[string]int) (*Tokenizer, error) {
	if len(vocab) == 0 {
		return nil, ErrEmptyVocabulary
	}

	t := &Tokenizer{vocab: vocab}

	var ok bool
	for _, special := range []struct {
		token string
		id    *int
	}{
		{clsToken, &t.clsID},
		{sepToken, &t.sepID},
		{padToken, &t.padID},
		{unkToken, &t.unkID},
	} {
		if *special.id, ok = vocab[special.token]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSpecialToken, special.token)
		}
	}

	return t, nil
}

// Encode converts text into a fixed-length token id sequence with a parallel
// attention mask. The result always starts with [CLS], ends real content with
// [SEP], and is right-padded with [PAD] to exactly maxLength positions. Real
// content occupies at most maxLength-2 positions; longer inputs are truncated.
// Encode is deterministic and has no side effects.
func (t *Tokenizer) Encode(text string, maxLength int) Encoding {
	if maxLength < 2 {
		maxLength = 2 // room for [CLS] and [SEP]
	}

	words := basicTokenize(text)

	var pieces []string
	for _, word := range words {
		pieces = append(pieces, t.wordpiece(word)...)
	}

	ids := make([]int, 0, maxLength)
	ids = append(ids, t.clsID)
	for _, piece := range pieces {
		if len(ids) >= maxLength-1 {
			break
		}
		id, ok := t.vocab[piece]
		if !ok {
			id = t.unkID
		}
		ids = append(ids, id)
	}
	ids = append(ids, t.sepID)

	mask := make([]int, len(ids), maxLength)
	for i := range mask {
		mask[i] = 1
	}

	for len(ids) < maxLength {
		ids = append(ids, t.padID)
		mask = append(mask, 0)
	}

	// The reserved slot above makes overflow impossible, but the shape
	// contract is enforced regardless.
	if len(ids) > maxLength {
		ids = ids[:maxLength]
		mask = mask[:maxLength]
		ids[maxLength-1] = t.sepID
	}

	return Encoding{IDs: ids, Mask: mask}
}

// Size returns the number of entries in the vocabulary.
func (t *Tokenizer) Size() int {
	return len(t.vocab)
}

// basicTokenize lowercases the text and splits it into words and
// single-character punctuation tokens. Whitespace separates tokens and is
// never emitted.
func basicTokenize(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	for _, r := range text {
		r = unicode.ToLower(r)
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current = append(current, r)
		}
	}
	flush()

	return tokens
}

// wordpiece segments a basic token into vocabulary pieces using greedy
// longest-match-first search. Pieces after the first carry the continuation
// marker. A token longer than maxCharsPerWord, or one with an unmatchable
// remainder, collapses to a single [UNK] for the whole token.
func (t *Tokenizer) wordpiece(token string) []string {
	chars := []rune(token)
	if len(chars) > maxCharsPerWord {
		return []string{unkToken}
	}

	var pieces []string
	start := 0
	for start < len(chars) {
		end := len(chars)
		var found string

		for start < end {
			candidate := string(chars[start:end])
			if start > 0 {
				candidate = continuationMarker + candidate
			}
			if _, ok := t.vocab[candidate]; ok {
				found = candidate
				break
			}
			end--
		}

		if found == "" {
			return []string{unkToken}
		}

		pieces = append(pieces, found)
		start = end
	}

	return pieces
}
