package ingestion

import "errors"

var (
	// ErrQueueRequired is returned when a capture queue is not provided.
	ErrQueueRequired = errors.New("capture queue required")

	// ErrPostRepositoryRequired is returned when a post repository is not provided.
	ErrPostRepositoryRequired = errors.New("post repository required")

	// ErrDeadLetterRepositoryRequired is returned when a dead-letter repository is not provided.
	ErrDeadLetterRepositoryRequired = errors.New("dead-letter repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrTokenizerRequired is returned when a tokenizer is not provided.
	ErrTokenizerRequired = errors.New("tokenizer required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
