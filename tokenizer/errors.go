package tokenizer

import "errors"

var (
	// ErrEmptyVocabulary is returned when a tokenizer is constructed without
	// any vocabulary entries.
	ErrEmptyVocabulary = errors.New("vocabulary is empty")

	// ErrMissingSpecialToken is returned when the vocabulary lacks one of the
	// [CLS], [SEP], [PAD] or [UNK] entries.
	ErrMissingSpecialToken = errors.New("vocabulary missing special token")
)
