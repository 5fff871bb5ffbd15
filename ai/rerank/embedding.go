// Package rerank provides Reranker implementations for the retrieval pipeline.
package rerank

import (
	"context"
	"log/slog"
	"math"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
)

// EmbeddingReranker rescores retrieved fragments by re-embedding their page
// content and the query with a (typically stronger) embedder, replacing each
// result's score with the cosine similarity between the two vectors.
type EmbeddingReranker struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ ai.Reranker = (*EmbeddingReranker)(nil)

// NewEmbeddingReranker creates a reranker backed by the given embedder.
func NewEmbeddingReranker(embedder ai.Embedder) (*EmbeddingReranker, error) {
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}
	return &EmbeddingReranker{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedding-reranker"),
	}, nil
}

// ReRankDocuments rescores every result against the query. The input order is
// preserved; the retrieval pipeline sorts by the new scores afterwards.
func (r *EmbeddingReranker) ReRankDocuments(ctx context.Context, query string, results []*core.SearchResult) ([]*core.SearchResult, error) {
	if len(results) == 0 {
		return results, nil
	}

	queryVector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("failed to embed query for reranking", "err", err)
		return nil, err
	}

	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Fragment.PageContent
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		r.logger.Error("failed to embed documents for reranking", "count", len(texts), "err", err)
		return nil, err
	}

	reranked := make([]*core.SearchResult, len(results))
	for i, result := range results {
		reranked[i] = &core.SearchResult{
			Fragment: result.Fragment,
			Score:    cosineSimilarity(queryVector, vectors[i]),
		}
	}

	return reranked, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths are compared over the shorter prefix.
func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
