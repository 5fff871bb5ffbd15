package core

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// Metadata keys the pipeline reserves on every fragment it stores.
const (
	// MetadataKeyID holds the deterministic chunk id "<loaderID>_<index>".
	MetadataKeyID = "id"
	// MetadataKeyLoaderID tags a chunk with the loader that produced it.
	MetadataKeyLoaderID = "uniqueLoaderId"
	// MetadataKeySource names the origin of a fragment (file path, URL, ...).
	// Distinct source values of a query's context become its citations.
	MetadataKeySource = "source"
)

// ID is a 64-bit content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID; the retrieval pipeline uses it to
// collapse fragments with identical page content.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FragmentID builds the deterministic chunk id for a fragment at the given
// 0-based position in a loader's stream. The scheme makes deletion-by-loader
// exact and re-ingestion safe without content hashing.
func FragmentID(loaderID string, index int) string {
	return fmt.Sprintf("%s_%d", loaderID, index)
}

// Fragment is a unit of raw content produced by a loader, before embedding.
type Fragment struct {
	PageContent string
	Metadata    map[string]string
}

// ID returns the chunk id stamped into the fragment's metadata,
// or "" if the fragment has not been through ingestion yet.
func (f *Fragment) ID() string {
	return f.Metadata[MetadataKeyID]
}

// LoaderID returns the loader id stamped into the fragment's metadata.
func (f *Fragment) LoaderID() string {
	return f.Metadata[MetadataKeyLoaderID]
}

// Source returns the fragment's source citation, or "" if it has none.
func (f *Fragment) Source() string {
	return f.Metadata[MetadataKeySource]
}

// EmbeddedChunk is a fragment together with its embedding vector,
// the value handed to the vector store for insertion.
type EmbeddedChunk struct {
	Fragment
	Vector []float32
}

// SearchResult is a vector-store hit with its similarity score.
// Higher scores are more relevant.
type SearchResult struct {
	Fragment Fragment
	Score    float32
}

// LoaderRecord is the cache-resident bookkeeping entry for one loader:
// how many fragments its last full ingestion produced. The existence of a
// record signals that the source was already ingested.
type LoaderRecord struct {
	LoaderID   string
	ChunkCount int
}

// IngestResult reports the outcome of registering a loader.
type IngestResult struct {
	LoaderID     string
	EntriesAdded int
}

// Answer is the result of a retrieval-augmented query: the model's reply
// and the distinct sources of the context it was given.
type Answer struct {
	Result  string
	Sources []string
}
