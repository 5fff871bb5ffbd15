package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// VectorStore implements storage.VectorStore on BadgerDB using a brute-force
// similarity scan over all stored chunks. It also implements
// storage.ChunkSource for reindexing.
type VectorStore struct {
	backend    *Backend
	dimensions int
	logger     *slog.Logger
}

var (
	_ storage.VectorStore = (*VectorStore)(nil)
	_ storage.ChunkSource = (*VectorStore)(nil)
)

// NewVectorStore creates a vector store on the given backend.
// Init must be called before any other operation.
func NewVectorStore(backend *Backend) (*VectorStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &VectorStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-vectorstore"),
	}, nil
}

// Init records the embedding dimension for the store. Reopening a store that
// was created with a different dimension fails: vectors of mixed lengths
// cannot be compared.
func (s *VectorStore) Init(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(indexMetaKey))
		if err == badger.ErrKeyNotFound {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(dimensions))
			if err := tx.Set([]byte(indexMetaKey), buf); err != nil {
				return err
			}
			return tx.Commit()
		}
		if err != nil {
			return err
		}

		var existing uint64
		err = item.Value(func(val []byte) error {
			existing = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return err
		}
		if int(existing) != dimensions {
			return fmt.Errorf("%w: index has %d, requested %d",
				storage.ErrDimensionConflict, existing, dimensions)
		}
		return nil
	}, true)
	if err != nil {
		return err
	}

	s.dimensions = dimensions
	s.logger.Debug("vector store initialized", "dimensions", dimensions)
	return nil
}

// InsertChunks persists the given chunks keyed by their stamped ids.
func (s *VectorStore) InsertChunks(ctx context.Context, chunks []*core.EmbeddedChunk) (int, error) {
	if s.dimensions == 0 {
		return 0, storage.ErrNotInitialized
	}

	inserted := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			id := chunk.ID()
			if id == "" {
				return storage.ErrMissingChunkID
			}
			if len(chunk.Vector) != s.dimensions {
				return fmt.Errorf("%w: chunk %s has %d, store has %d",
					storage.ErrDimensionMismatch, id, len(chunk.Vector), s.dimensions)
			}

			if err := tx.Set(makeChunkKey(id), storage.MarshalEmbeddedChunk(chunk)); err != nil {
				return err
			}
			inserted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// SimilaritySearch scans all stored chunks and returns the k nearest to the
// query vector by cosine similarity, highest first.
func (s *VectorStore) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.EmbeddedChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalEmbeddedChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			results = append(results, &core.SearchResult{
				Fragment: chunk.Fragment,
				Score:    cosineSimilarity(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// VectorCount returns the number of stored chunks.
func (s *VectorStore) VectorCount(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateVectorIndex records the embedding dimension. The brute-force scan
// needs no index structure, so this is equivalent to Init.
func (s *VectorStore) CreateVectorIndex(ctx context.Context, dimensions int) error {
	return s.Init(ctx, dimensions)
}

// DocsCount returns the number of distinct loaders with stored chunks.
func (s *VectorStore) DocsCount(ctx context.Context) (int, error) {
	loaders := make(map[string]struct{})
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalEmbeddedChunk(val)
				if err != nil {
					return err
				}
				loaders[chunk.LoaderID()] = struct{}{}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return len(loaders), nil
}

// DeleteKeys removes every chunk the given loader produced. The key-prefix
// scan is verified against each chunk's stamped loader id, so a loader id
// that happens to prefix another's never deletes the wrong chunks.
func (s *VectorStore) DeleteKeys(ctx context.Context, loaderID string) (bool, error) {
	if loaderID == "" {
		return false, core.ErrEmptyLoaderID
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeLoaderChunkPrefix(loaderID)
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			matches := false
			err := item.Value(func(val []byte) error {
				chunk, err := storage.UnmarshalEmbeddedChunk(val)
				if err != nil {
					return err
				}
				matches = chunk.LoaderID() == loaderID
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
			if matches {
				keys = append(keys, item.KeyCopy(nil))
			}
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		s.logger.Error("failed to delete chunks for loader", "loader", loaderID, "err", err)
		return false, err
	}

	return true, nil
}

// Reset removes all stored chunks and the index metadata. The recorded
// dimension survives in memory, so the store stays usable after a reset.
func (s *VectorStore) Reset(ctx context.Context) error {
	if err := s.backend.DropPrefix(makeChunkScanPrefix()); err != nil {
		return err
	}
	return s.backend.DropPrefix([]byte(indexMetaKey))
}

// ForEachChunkBatch calls fn with successive batches of stored chunks.
// Implements storage.ChunkSource for reindexing.
func (s *VectorStore) ForEachChunkBatch(ctx context.Context, batchSize int, fn func([]*core.EmbeddedChunk) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	var chunks []*core.EmbeddedChunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalEmbeddedChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for i := 0; i < len(chunks); i += batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := fn(chunks[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// Close is a no-op; the shared backend's owner closes the database.
func (s *VectorStore) Close() error {
	return nil
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
