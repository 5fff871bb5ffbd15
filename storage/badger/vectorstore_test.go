package badger

import (
	"context"
	"testing"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) storage.VectorStore {
	t.Helper()

	store, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	require.NoError(t, store.Init(context.Background(), 3))
	return store
}

func makeChunk(loaderID string, index int, content string, vector []float32) *core.EmbeddedChunk {
	return &core.EmbeddedChunk{
		Fragment: core.Fragment{
			PageContent: content,
			Metadata: map[string]string{
				core.MetadataKeyID:       core.FragmentID(loaderID, index),
				core.MetadataKeyLoaderID: loaderID,
				core.MetadataKeySource:   loaderID + ".txt",
			},
		},
		Vector: vector,
	}
}

func TestVectorStoreInit(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive dimensions", func(t *testing.T) {
		store, _, backend, err := NewMemoryStores()
		require.NoError(t, err)
		defer backend.Close()

		require.Error(t, store.Init(ctx, 0))
	})

	t.Run("rejects dimension conflict", func(t *testing.T) {
		store, _, backend, err := NewMemoryStores()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, store.Init(ctx, 3))

		other, err := NewVectorStore(backend)
		require.NoError(t, err)
		err = other.Init(ctx, 4)
		assert.ErrorIs(t, err, storage.ErrDimensionConflict)
	})

	t.Run("accepts matching dimension on reopen", func(t *testing.T) {
		store, _, backend, err := NewMemoryStores()
		require.NoError(t, err)
		defer backend.Close()

		require.NoError(t, store.Init(ctx, 3))

		other, err := NewVectorStore(backend)
		require.NoError(t, err)
		require.NoError(t, other.Init(ctx, 3))
	})
}

func TestVectorStoreInsertChunks(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t.Run("inserts and counts", func(t *testing.T) {
		inserted, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
			makeChunk("a", 0, "alpha", []float32{1, 0, 0}),
			makeChunk("a", 1, "beta", []float32{0, 1, 0}),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		count, err := store.VectorCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("rejects wrong dimension", func(t *testing.T) {
		_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
			makeChunk("a", 2, "gamma", []float32{1, 0}),
		})
		assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})

	t.Run("rejects missing chunk id", func(t *testing.T) {
		_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
			{Fragment: core.Fragment{PageContent: "no id"}, Vector: []float32{1, 1, 1}},
		})
		assert.ErrorIs(t, err, storage.ErrMissingChunkID)
	})

	t.Run("insert before init fails", func(t *testing.T) {
		store, _, backend, err := NewMemoryStores()
		require.NoError(t, err)
		defer backend.Close()

		_, err = store.InsertChunks(ctx, []*core.EmbeddedChunk{
			makeChunk("a", 0, "x", []float32{1, 0, 0}),
		})
		assert.ErrorIs(t, err, storage.ErrNotInitialized)
	})
}

func TestVectorStoreSimilaritySearch(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
		makeChunk("a", 0, "east", []float32{1, 0, 0}),
		makeChunk("a", 1, "north", []float32{0, 1, 0}),
		makeChunk("a", 2, "northeast", []float32{1, 1, 0}),
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "east", results[0].Fragment.PageContent)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "northeast", results[1].Fragment.PageContent)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestVectorStoreDeleteKeys(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
		makeChunk("docs", 0, "a", []float32{1, 0, 0}),
		makeChunk("docs", 1, "b", []float32{0, 1, 0}),
		makeChunk("docs_extra", 0, "c", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	// "docs" must not remove "docs_extra" chunks even though the key
	// prefix overlaps
	ok, err := store.DeleteKeys(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := store.VectorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.SimilaritySearch(ctx, []float32{0, 0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "docs_extra", results[0].Fragment.LoaderID())
}

func TestVectorStoreDocsCount(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
		makeChunk("a", 0, "one", []float32{1, 0, 0}),
		makeChunk("a", 1, "two", []float32{0, 1, 0}),
		makeChunk("b", 0, "three", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	docs, err := store.DocsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, docs)
}

func TestVectorStoreReset(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
		makeChunk("a", 0, "one", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	count, err := store.VectorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Store stays usable after a reset
	_, err = store.InsertChunks(ctx, []*core.EmbeddedChunk{
		makeChunk("a", 0, "back", []float32{1, 0, 0}),
	})
	require.NoError(t, err)
}

func TestVectorStoreForEachChunkBatch(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.InsertChunks(ctx, []*core.EmbeddedChunk{
		makeChunk("a", 0, "one", []float32{1, 0, 0}),
		makeChunk("a", 1, "two", []float32{0, 1, 0}),
		makeChunk("a", 2, "three", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	source, ok := store.(interface {
		ForEachChunkBatch(ctx context.Context, batchSize int, fn func([]*core.EmbeddedChunk) error) error
	})
	require.True(t, ok)

	var batches [][]*core.EmbeddedChunk
	err = source.ForEachChunkBatch(ctx, 2, func(chunks []*core.EmbeddedChunk) error {
		batches = append(batches, chunks)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
}
