package rag

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/loader"
	"github.com/poiesic/ragcore/storage"
)

const (
	// defaultTopK is the number of fragments returned by retrieval.
	defaultTopK = 5

	// defaultBatchSize is the number of fragments embedded and stored per
	// round trip during ingestion.
	defaultBatchSize = 50

	// overFetchMargin is how many extra candidates the vector search
	// requests beyond topK, so reranking and filtering have room to work.
	overFetchMargin = 10
)

// Engine orchestrates document ingestion and retrieval-augmented answering.
// It coordinates loaders, the embedder, the vector store and the chat model.
type Engine struct {
	embedder ai.Embedder
	model    ai.ChatModel
	store    storage.VectorStore
	cache    storage.LoaderCache
	reranker ai.Reranker
	loaders  []loader.Loader

	ingestPool *ants.Pool
	logger     *slog.Logger

	topK            int
	relevanceCutoff float32
	batchSize       int

	mu          sync.Mutex
	initialized bool
	nextIndex   map[string]int
}

// Option configures an Engine.
type Option func(*Engine) error

// WithCache enables re-ingestion detection backed by the given cache.
// Without a cache every registration appends, never replaces.
func WithCache(cache storage.LoaderCache) Option {
	return func(e *Engine) error {
		e.cache = cache
		return nil
	}
}

// WithReranker sets a reranker applied to retrieval candidates before
// filtering. Default is none.
func WithReranker(reranker ai.Reranker) Option {
	return func(e *Engine) error {
		e.reranker = reranker
		return nil
	}
}

// WithLoaders registers loaders ingested during Init, in order. Loaders
// sharing a unique id are collapsed to the last one given.
func WithLoaders(loaders ...loader.Loader) Option {
	return func(e *Engine) error {
		e.loaders = append(e.loaders, loaders...)
		return nil
	}
}

// WithTopK sets how many fragments retrieval returns.
// Default is 5.
func WithTopK(topK int) Option {
	return func(e *Engine) error {
		if topK > 0 {
			e.topK = topK
		}
		return nil
	}
}

// WithRelevanceCutoff sets the minimum score a candidate must exceed to be
// included in retrieval results. Default is 0.
func WithRelevanceCutoff(cutoff float32) Option {
	return func(e *Engine) error {
		e.relevanceCutoff = cutoff
		return nil
	}
}

// WithBatchSize sets the ingestion batch size.
// Default is 50.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size > 0 {
			e.batchSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for asynchronous ingestion of
// incremental updates. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}

		if e.ingestPool != nil {
			e.ingestPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.ingestPool = pool
		return nil
	}
}

// NewEngine creates a new engine. Call Init before ingesting or querying.
func NewEngine(provider ai.Provider, store storage.VectorStore, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if store == nil {
		return nil, ErrVectorStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		embedder:   provider.Embedder(),
		model:      provider.ChatModel(),
		store:      store,
		ingestPool: pool,
		logger:     slog.Default(),
		topK:       defaultTopK,
		batchSize:  defaultBatchSize,
		nextIndex:  make(map[string]int),
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	e.logger = e.logger.With("component", "engine")
	return e, nil
}

// Init prepares the engine: it initializes the chat model, the vector store
// and the cache, then ingests every registered loader sequentially. Calling
// Init again after a successful run is a no-op.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.model.Init(ctx); err != nil {
		return err
	}
	if err := e.store.Init(ctx, e.embedder.Dimensions()); err != nil {
		return err
	}
	if e.cache != nil {
		if err := e.cache.Init(ctx); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()

	for _, l := range dedupeLoaders(e.loaders) {
		if _, err := e.AddLoader(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// dedupeLoaders collapses loaders sharing a unique id, keeping the last
// occurrence but preserving first-seen order.
func dedupeLoaders(loaders []loader.Loader) []loader.Loader {
	byID := make(map[string]loader.Loader, len(loaders))
	order := make([]string, 0, len(loaders))
	for _, l := range loaders {
		if l == nil {
			continue
		}
		id := l.UniqueID()
		if _, ok := byID[id]; !ok {
			order = append(order, id)
		}
		byID[id] = l
	}

	deduped := make([]loader.Loader, 0, len(order))
	for _, id := range order {
		deduped = append(deduped, byID[id])
	}
	return deduped
}

// EmbeddingsCount returns the number of stored vectors.
func (e *Engine) EmbeddingsCount(ctx context.Context) (int, error) {
	return e.store.VectorCount(ctx)
}

// DocsCount returns the number of distinct ingested sources.
func (e *Engine) DocsCount(ctx context.Context) (int, error) {
	return e.store.DocsCount(ctx)
}

// CreateVectorIndex (re)creates the store's similarity index using the
// embedder's dimension.
func (e *Engine) CreateVectorIndex(ctx context.Context) error {
	return e.store.CreateVectorIndex(ctx, e.embedder.Dimensions())
}

func (e *Engine) requireInit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	return nil
}

// reserveIndexes allocates a contiguous block of fragment indexes for the
// loader and returns the first. Indexes keep growing across incremental
// updates so chunk ids never collide with ones already stored.
func (e *Engine) reserveIndexes(loaderID string, count int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := e.nextIndex[loaderID]
	e.nextIndex[loaderID] = start + count
	return start
}

func (e *Engine) resetIndexes(loaderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextIndex[loaderID] = 0
}

// Release releases the worker pool. The engine should not be used after
// calling Release.
func (e *Engine) Release() {
	if e.ingestPool != nil {
		e.ingestPool.Release()
	}
}
