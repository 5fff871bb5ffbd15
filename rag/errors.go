package rag

import "errors"

var (
	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrNotInitialized is returned when the engine is used before Init.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrLoaderRequired is returned when a nil loader is registered.
	ErrLoaderRequired = errors.New("loader required")

	// ErrEmbeddingCountMismatch is returned when the embedder returns a
	// different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedder returned wrong number of vectors")
)
