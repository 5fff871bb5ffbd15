package badger

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// LoaderCache implements storage.LoaderCache on BadgerDB.
// It stores one LoaderRecord per loader id.
type LoaderCache struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.LoaderCache = (*LoaderCache)(nil)

// NewLoaderCache creates a loader cache on the given backend.
func NewLoaderCache(backend *Backend) (*LoaderCache, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &LoaderCache{
		backend: backend,
		logger:  slog.Default().With("component", "badger-cache"),
	}, nil
}

// Init prepares the cache for use. The badger backend needs no setup.
func (c *LoaderCache) Init(ctx context.Context) error {
	c.logger.Debug("loader cache initialized")
	return nil
}

// HasLoader reports whether a record exists for the given loader id.
func (c *LoaderCache) HasLoader(ctx context.Context, loaderID string) (bool, error) {
	found := false
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeLoaderRecordKey(loaderID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}

// GetLoader retrieves the record for the given loader id.
func (c *LoaderCache) GetLoader(ctx context.Context, loaderID string) (*core.LoaderRecord, error) {
	var record *core.LoaderRecord
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLoaderRecordKey(loaderID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalLoaderRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AddLoader stores or replaces the record for the given loader id.
func (c *LoaderCache) AddLoader(ctx context.Context, loaderID string, chunkCount int) error {
	record := &core.LoaderRecord{LoaderID: loaderID, ChunkCount: chunkCount}
	if err := core.ValidateLoaderRecord(record); err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLoaderRecordKey(loaderID), storage.MarshalLoaderRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteLoader removes the record for the given loader id.
// Removing a missing record is not an error.
func (c *LoaderCache) DeleteLoader(ctx context.Context, loaderID string) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeLoaderRecordKey(loaderID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the shared backend's owner closes the database.
func (c *LoaderCache) Close() error {
	return nil
}
