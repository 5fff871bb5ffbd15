package rerank

import (
	"context"
	"testing"

	"github.com/poiesic/ragcore/ai/mock"
	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingReranker(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEmbeddingReranker(nil)
		require.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		r, err := NewEmbeddingReranker(mock.NewMockEmbedder())
		require.NoError(t, err)
		require.NotNil(t, r)
	})
}

func TestReRankDocuments(t *testing.T) {
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			switch text {
			case "aligned":
				vectors[i] = []float32{1, 0, 0}
			case "orthogonal":
				vectors[i] = []float32{0, 1, 0}
			default:
				vectors[i] = []float32{0.5, 0.5, 0}
			}
		}
		return vectors, nil
	}

	reranker, err := NewEmbeddingReranker(embedder)
	require.NoError(t, err)

	results := []*core.SearchResult{
		{Fragment: core.Fragment{PageContent: "orthogonal"}, Score: 0.9},
		{Fragment: core.Fragment{PageContent: "aligned"}, Score: 0.1},
	}

	reranked, err := reranker.ReRankDocuments(ctx, "query", results)
	require.NoError(t, err)
	require.Len(t, reranked, 2)

	// Order preserved, scores replaced
	assert.Equal(t, "orthogonal", reranked[0].Fragment.PageContent)
	assert.InDelta(t, 0.0, reranked[0].Score, 1e-6)
	assert.Equal(t, "aligned", reranked[1].Fragment.PageContent)
	assert.InDelta(t, 1.0, reranked[1].Score, 1e-6)
}

func TestReRankDocumentsEmpty(t *testing.T) {
	reranker, err := NewEmbeddingReranker(mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := reranker.ReRankDocuments(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), 1e-6)
}
