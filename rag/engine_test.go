package rag

import (
	"context"
	"testing"

	"github.com/poiesic/ragcore/ai/mock"
	"github.com/poiesic/ragcore/loader/static"
	"github.com/poiesic/ragcore/storage"
	"github.com/poiesic/ragcore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine builds an engine over in-memory stores and a mock provider
// with 3-dimensional embeddings.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *mock.MockProvider, storage.LoaderCache) {
	t.Helper()

	store, cache, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().Dims = 3

	engine, err := NewEngine(provider, store, append([]Option{WithCache(cache)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(engine.Release)

	return engine, provider, cache
}

// installVectors pins the mock embedder to a fixed text-to-vector mapping.
// Unknown texts embed to the zero vector.
func installVectors(embedder *mock.MockEmbedder, vectors map[string][]float32) {
	lookup := func(text string) []float32 {
		if v, ok := vectors[text]; ok {
			return v
		}
		return []float32{0, 0, 0}
	}
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return lookup(text), nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = lookup(text)
		}
		return out, nil
	}
}

func mustLoader(t *testing.T, id string, texts []string, opts ...static.Option) *static.Loader {
	t.Helper()
	l, err := static.New(id, texts, opts...)
	require.NoError(t, err)
	return l
}

func TestNewEngineValidation(t *testing.T) {
	store, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewEngine(nil, store)
	assert.ErrorIs(t, err, ErrProviderRequired)

	_, err = NewEngine(mock.NewMockProvider(), nil)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)
}

func TestEngineRequiresInit(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.AddLoader(ctx, mustLoader(t, "docs", []string{"a"}))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = engine.GetContext(ctx, "anything")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitIngestsRegisteredLoaders(t *testing.T) {
	ctx := context.Background()

	first := mustLoader(t, "docs", []string{"one", "two"})
	second := mustLoader(t, "notes", []string{"three"})
	// Same id as first: only the replacement should be ingested.
	replacement := mustLoader(t, "docs", []string{"uno", "dos", "tres"})

	engine, _, _ := newTestEngine(t, WithLoaders(first, second, replacement))
	require.NoError(t, engine.Init(ctx))

	count, err := engine.EmbeddingsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	docs, err := engine.DocsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, docs)
}

func TestInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, provider, _ := newTestEngine(t, WithLoaders(mustLoader(t, "docs", []string{"one"})))

	require.NoError(t, engine.Init(ctx))
	require.NoError(t, engine.Init(ctx))

	assert.Equal(t, 1, provider.GetMockChatModel().InitCount())

	count, err := engine.EmbeddingsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInitPropagatesModelError(t *testing.T) {
	engine, provider, _ := newTestEngine(t)
	provider.GetMockChatModel().InitErr = assert.AnError

	assert.ErrorIs(t, engine.Init(context.Background()), assert.AnError)
}

func TestCreateVectorIndex(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)
	require.NoError(t, engine.Init(ctx))

	require.NoError(t, engine.CreateVectorIndex(ctx))
}
