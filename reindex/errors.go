package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrStoreNotIterable is returned when the vector store cannot
	// enumerate its chunks in batches.
	ErrStoreNotIterable = errors.New("vector store does not support batch iteration")
)
