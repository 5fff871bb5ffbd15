package ai

import (
	"context"

	"github.com/poiesic/ragcore/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string,
	// typically a search query.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of the vectors this embedder produces.
	// The value is fixed for the lifetime of the embedder and must match the
	// dimension the vector store was initialized with.
	Dimensions() int
}

// AnswerRequest carries everything a ChatModel needs to answer a query.
type AnswerRequest struct {
	// Template is the fixed instruction template the model is primed with.
	Template string

	// Query is the original, uncleaned user query.
	Query string

	// Context is the deduplicated list of fragments retrieved for the query.
	Context []core.Fragment

	// ConversationID optionally identifies the conversation this query
	// belongs to. Empty for one-shot queries.
	ConversationID string
}

// ChatModel produces natural-language answers from an assembled context.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Init prepares the model for use. It must be called once before Answer,
	// and may perform connectivity checks against the backing service.
	Init(ctx context.Context) error

	// Answer generates a reply to the request's query grounded in its context.
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

// Reranker reorders retrieved fragments by relevance to a query.
// A reranker may also rescore results, not merely permute them; its scores
// are the final arbiter of both inclusion and order in the retrieval pipeline.
type Reranker interface {
	ReRankDocuments(ctx context.Context, query string, results []*core.SearchResult) ([]*core.SearchResult, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the answer generation service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
