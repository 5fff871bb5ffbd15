// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for the pipeline.
//
// This package defines the VectorStore and LoaderCache interfaces that
// decouple storage implementation from pipeline logic. It allows different
// storage backends (BadgerDB, in-memory, remote vector databases) to be used
// interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interface types to enforce
// abstraction and enable multiple storage backend implementations:
//
//	store, err := badger.NewVectorStore(backend)  // returns storage.VectorStore
//
// # Architecture
//
//   - VectorStore: persistence and similarity search over embedded chunks
//   - LoaderCache: per-loader ingestion bookkeeping (re-ingestion detection)
//   - ChunkSource: batch iteration over stored chunks (reindexing support)
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access from
// multiple goroutines: the pipeline issues concurrent inserts from
// incremental-update handlers and concurrent reads from queries.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
