package storage

import (
	"context"

	"github.com/poiesic/ragcore/core"
)

// VectorStore persists embedded chunks and serves similarity searches.
// Implementations must be thread-safe and accept concurrent inserts.
type VectorStore interface {
	// Init prepares the store for use with the given embedding dimension.
	// It must be called once before any other operation. Opening an existing
	// store with a different dimension returns ErrDimensionConflict.
	Init(ctx context.Context, dimensions int) error

	// InsertChunks persists the given chunks and returns how many were
	// inserted. Every chunk must carry a stamped id and a vector whose
	// length matches the initialized dimension.
	InsertChunks(ctx context.Context, chunks []*core.EmbeddedChunk) (int, error)

	// SimilaritySearch returns up to k stored chunks nearest to the query
	// vector, ordered by similarity score descending.
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error)

	// VectorCount returns the number of stored vectors.
	VectorCount(ctx context.Context) (int, error)

	// CreateVectorIndex (re)creates the similarity index for the given
	// dimension.
	CreateVectorIndex(ctx context.Context, dimensions int) error

	// DocsCount returns the number of distinct loaders with stored chunks.
	DocsCount(ctx context.Context) (int, error)

	// DeleteKeys removes every chunk the given loader produced.
	// Returns whether the deletion succeeded.
	DeleteKeys(ctx context.Context, loaderID string) (bool, error)

	// Reset removes all stored chunks and the index metadata.
	Reset(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ChunkSource provides batch iteration over all stored chunks.
// Stores that support reindexing implement it alongside VectorStore.
type ChunkSource interface {
	// ForEachChunkBatch calls fn with successive batches of at most
	// batchSize chunks until all chunks are visited or fn returns an error.
	ForEachChunkBatch(ctx context.Context, batchSize int, fn func([]*core.EmbeddedChunk) error) error
}

// LoaderCache persists per-loader ingestion bookkeeping. The existence of a
// record for a loader id signals that the source was already ingested and
// drives idempotent replacement on re-ingestion.
type LoaderCache interface {
	// Init prepares the cache for use. It must be called once before any
	// other operation.
	Init(ctx context.Context) error

	// HasLoader reports whether a record exists for the given loader id.
	HasLoader(ctx context.Context, loaderID string) (bool, error)

	// GetLoader retrieves the record for the given loader id.
	// Returns ErrNotFound if no record exists.
	GetLoader(ctx context.Context, loaderID string) (*core.LoaderRecord, error)

	// AddLoader stores or replaces the record for the given loader id.
	AddLoader(ctx context.Context, loaderID string, chunkCount int) error

	// DeleteLoader removes the record for the given loader id.
	// Removing a missing record is not an error.
	DeleteLoader(ctx context.Context, loaderID string) error

	// Close releases resources held by the cache.
	Close() error
}
