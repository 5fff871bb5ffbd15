package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/loader"
	"github.com/poiesic/ragcore/storage"
)

// AddLoader registers a document source and ingests its fragments: fragments
// are consumed in batches, embedded, stamped with deterministic chunk ids and
// persisted. When a cache is configured and already holds a record for the
// loader's unique id with a positive chunk count, the loader's previous
// chunks are deleted first, so re-registering a changed source replaces its
// content instead of accumulating stale chunks.
//
// If the loader supports incremental updates, the engine subscribes to them:
// new fragments are ingested asynchronously on the worker pool, with ids
// continuing from where the initial pass stopped.
func (e *Engine) AddLoader(ctx context.Context, l loader.Loader) (*core.IngestResult, error) {
	if l == nil {
		return nil, ErrLoaderRequired
	}
	if err := e.requireInit(); err != nil {
		return nil, err
	}

	if err := l.Init(ctx); err != nil {
		return nil, fmt.Errorf("init loader: %w", err)
	}

	loaderID := l.UniqueID()
	if err := e.clearPreviousIngestion(ctx, loaderID); err != nil {
		return nil, err
	}

	seq, err := l.Fragments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fragments for %q: %w", loaderID, err)
	}

	total := 0
	batch := make([]core.Fragment, 0, e.batchSize)
	for fragment, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("read fragments for %q: %w", loaderID, err)
		}
		if fragment.PageContent == "" {
			e.logger.Warn("skipping empty fragment", "loader", loaderID)
			continue
		}

		batch = append(batch, fragment)
		if len(batch) == e.batchSize {
			added, err := e.ingestBatch(ctx, loaderID, batch)
			if err != nil {
				return nil, err
			}
			total += added
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		added, err := e.ingestBatch(ctx, loaderID, batch)
		if err != nil {
			return nil, err
		}
		total += added
	}

	if e.cache != nil {
		if err := e.cache.AddLoader(ctx, loaderID, total); err != nil {
			return nil, fmt.Errorf("record loader %q: %w", loaderID, err)
		}
	}

	if incremental, ok := l.(loader.IncrementalLoader); ok {
		e.subscribeIncremental(incremental)
	}

	e.logger.Info("loader ingested", "loader", loaderID, "fragments", total)
	return &core.IngestResult{LoaderID: loaderID, EntriesAdded: total}, nil
}

// clearPreviousIngestion removes a loader's earlier chunks when the cache
// shows a prior ingestion, making registration idempotent.
func (e *Engine) clearPreviousIngestion(ctx context.Context, loaderID string) error {
	if e.cache == nil {
		return nil
	}

	record, err := e.cache.GetLoader(ctx, loaderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up loader %q: %w", loaderID, err)
	}

	if record.ChunkCount > 0 {
		e.logger.Info("re-ingesting known loader, removing previous chunks",
			"loader", loaderID, "previousChunks", record.ChunkCount)
		if _, err := e.store.DeleteKeys(ctx, loaderID); err != nil {
			return fmt.Errorf("delete previous chunks for %q: %w", loaderID, err)
		}
	}
	e.resetIndexes(loaderID)
	return nil
}

// ingestBatch embeds one batch of fragments and persists the resulting
// chunks. Each fragment gets a deterministic id derived from the loader id
// and its running index. The returned count is the number of fragments
// formatted, which is what the loader's cache record and index counter are
// keyed on; a store is free to report a different insertion count.
func (e *Engine) ingestBatch(ctx context.Context, loaderID string, fragments []core.Fragment) (int, error) {
	start := e.reserveIndexes(loaderID, len(fragments))

	texts := make([]string, len(fragments))
	for i := range fragments {
		if fragments[i].Metadata == nil {
			fragments[i].Metadata = make(map[string]string, 2)
		}
		fragments[i].Metadata[core.MetadataKeyID] = core.FragmentID(loaderID, start+i)
		fragments[i].Metadata[core.MetadataKeyLoaderID] = loaderID
		texts[i] = fragments[i].PageContent
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch for %q: %w", loaderID, err)
	}
	if len(vectors) != len(texts) {
		return 0, ErrEmbeddingCountMismatch
	}

	chunks := make([]*core.EmbeddedChunk, len(fragments))
	for i := range fragments {
		chunks[i] = &core.EmbeddedChunk{
			Fragment: fragments[i],
			Vector:   vectors[i],
		}
	}

	inserted, err := e.store.InsertChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("insert batch for %q: %w", loaderID, err)
	}
	if inserted != len(chunks) {
		e.logger.Warn("store insertion count differs from batch size",
			"loader", loaderID, "batch", len(chunks), "inserted", inserted)
	}
	return len(fragments), nil
}

// subscribeIncremental wires a growing source's new fragments into the
// worker pool. Errors during async ingestion are logged but never surface to
// the source.
func (e *Engine) subscribeIncremental(l loader.IncrementalLoader) {
	loaderID := l.UniqueID()
	l.OnNewFragments(func(fragments []core.Fragment) {
		if len(fragments) == 0 {
			return
		}
		err := e.ingestPool.Submit(func() {
			if err := e.ingestNew(context.Background(), loaderID, fragments); err != nil {
				e.logger.Error("error ingesting new fragments", "loader", loaderID, "err", err)
			}
		})
		if err != nil {
			e.logger.Error("error submitting incremental ingestion", "loader", loaderID, "err", err)
		}
	})
}

// ingestNew appends fragments produced after the initial pass and bumps the
// loader's cached chunk count.
func (e *Engine) ingestNew(ctx context.Context, loaderID string, fragments []core.Fragment) error {
	added := 0
	for start := 0; start < len(fragments); start += e.batchSize {
		end := min(start+e.batchSize, len(fragments))
		n, err := e.ingestBatch(ctx, loaderID, fragments[start:end])
		if err != nil {
			return err
		}
		added += n
	}

	if e.cache != nil {
		previous := 0
		record, err := e.cache.GetLoader(ctx, loaderID)
		if err == nil {
			previous = record.ChunkCount
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("look up loader %q: %w", loaderID, err)
		}
		if err := e.cache.AddLoader(ctx, loaderID, previous+added); err != nil {
			return fmt.Errorf("record loader %q: %w", loaderID, err)
		}
	}

	e.logger.Info("incremental fragments ingested", "loader", loaderID, "fragments", added)
	return nil
}

// DeleteLoader removes every chunk the given loader produced, plus its cache
// record. The confirm flag guards against accidental deletion: without it
// nothing is removed and the call returns false.
func (e *Engine) DeleteLoader(ctx context.Context, loaderID string, confirm bool) (bool, error) {
	if !confirm {
		e.logger.Warn("loader deletion not confirmed, skipping", "loader", loaderID)
		return false, nil
	}

	ok, err := e.store.DeleteKeys(ctx, loaderID)
	if err != nil {
		return false, err
	}
	if e.cache != nil {
		if err := e.cache.DeleteLoader(ctx, loaderID); err != nil {
			return false, err
		}
	}
	e.resetIndexes(loaderID)
	e.logger.Info("loader deleted", "loader", loaderID)
	return ok, nil
}

// DeleteAll removes every stored chunk. Loader cache records are left in
// place; a stale record only triggers a redundant delete on the loader's
// next registration. The confirm flag guards against accidental deletion:
// without it nothing is removed and the call returns false.
func (e *Engine) DeleteAll(ctx context.Context, confirm bool) (bool, error) {
	if !confirm {
		e.logger.Warn("full deletion not confirmed, skipping")
		return false, nil
	}

	if err := e.store.Reset(ctx); err != nil {
		return false, err
	}

	e.mu.Lock()
	e.nextIndex = make(map[string]int)
	e.mu.Unlock()

	e.logger.Info("all stored chunks deleted")
	return true, nil
}
