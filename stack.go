// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ragcore assembles a retrieval-augmented generation stack: a
// badger-backed vector store and loader cache, an OpenAI-compatible AI
// provider and the rag engine wired on top of them.
package ragcore

import (
	"io"
	"log/slog"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/ai/openai"
	"github.com/poiesic/ragcore/rag"
	"github.com/poiesic/ragcore/reindex"
	"github.com/poiesic/ragcore/storage"
	"github.com/poiesic/ragcore/storage/badger"
)

// Stack owns the storage backend, the AI provider and the engine built on
// them. Close releases everything in reverse order of construction.
type Stack struct {
	backend  *badger.Backend
	store    storage.VectorStore
	cache    storage.LoaderCache
	provider ai.Provider
	engine   *rag.Engine
	logger   *slog.Logger
}

// StackOption configures a Stack.
type StackOption func(*stackOptions)

type stackOptions struct {
	aiConfig   *ai.Config
	inMemory   bool
	engineOpts []rag.Option
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) StackOption {
	return func(o *stackOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens the storage backend in memory, discarding everything
// on Close. Useful for tests and throwaway sessions.
func WithInMemory() StackOption {
	return func(o *stackOptions) {
		o.inMemory = true
	}
}

// WithEngineOptions forwards options to the underlying engine.
func WithEngineOptions(opts ...rag.Option) StackOption {
	return func(o *stackOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// NewStack opens the storage backend at filePath and wires the full stack.
// Call Engine().Init before ingesting or querying, and Close when done.
func NewStack(filePath string, opts ...StackOption) (*Stack, error) {
	options := &stackOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	store, err := badger.NewVectorStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	cache, err := badger.NewLoaderCache(backend)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		cache.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	engineOpts := append([]rag.Option{rag.WithCache(cache)}, options.engineOpts...)
	engine, err := rag.NewEngine(provider, store, engineOpts...)
	if err != nil {
		provider.Close()
		cache.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	return &Stack{
		backend:  backend,
		store:    store,
		cache:    cache,
		provider: provider,
		engine:   engine,
		logger:   slog.Default(),
	}, nil
}

// Close releases the engine's resources, the AI provider and the storage
// backend.
func (s *Stack) Close() error {
	s.engine.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.cache.Close(); err != nil {
		s.logger.Error("error closing loader cache", "err", err)
		return err
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing vector store", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Engine returns the retrieval-augmented generation engine.
func (s *Stack) Engine() *rag.Engine {
	return s.engine
}

// Provider returns the AI provider.
func (s *Stack) Provider() ai.Provider {
	return s.provider
}

// VectorStore returns the vector store.
func (s *Stack) VectorStore() storage.VectorStore {
	return s.store
}

// LoaderCache returns the loader cache.
func (s *Stack) LoaderCache() storage.LoaderCache {
	return s.cache
}

// NewReindexer builds a reindexer over the stack's store and embedder.
// progress: where to write progress output (typically os.Stderr)
func (s *Stack) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(s.store, s.provider.Embedder(), config, progress)
}
