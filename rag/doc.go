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

// Package rag implements the retrieval-augmented generation engine.
//
// The Engine ties the pieces together: loaders produce document fragments,
// the embedder turns them into vectors, the vector store persists and
// searches them, and the chat model answers questions grounded in retrieved
// context. Registration of a source is idempotent when a loader cache is
// configured, and sources that grow over time feed new fragments into the
// store asynchronously.
package rag
