// Package reindex provides functionality for re-embedding stored chunks
// with new or updated embedding models.
//
// This package supports batch processing of stored chunks, progress tracking,
// retry logic with exponential backoff, and vector normalization to ensure
// compatibility with cosine similarity search. The embedder must produce
// vectors of the dimension the store was initialized with.
package reindex
