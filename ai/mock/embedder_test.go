package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVectorsAreDeterministic(t *testing.T) {
	embedder := NewMockEmbedder()

	first, err := embedder.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	second, err := embedder.EmbedText(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, DefaultDimensions)
}

func TestDefaultVectorsHaveUnitLength(t *testing.T) {
	embedder := NewMockEmbedder()
	embedder.Dims = 8

	vector, err := embedder.EmbedText(context.Background(), "hello")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}
