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

// Package loader defines the document source contract consumed by the
// ingestion engine. A Loader identifies itself with a stable unique id
// and yields document fragments lazily, so large corpora never have to
// be resident in memory all at once.
package loader

import (
	"context"
	"iter"

	"github.com/poiesic/ragcore/core"
)

// Loader is a source of document fragments. Implementations must return
// the same UniqueID across process restarts for the same underlying
// source, since re-ingestion detection is keyed on it.
type Loader interface {
	// Init prepares the loader for use. It must be called before
	// Fragments.
	Init(ctx context.Context) error

	// UniqueID returns the stable identifier for this source.
	UniqueID() string

	// Fragments returns a lazy sequence over the source's fragments.
	// Iteration stops early if the yield function returns false. A
	// non-nil error in the second position terminates the sequence.
	Fragments(ctx context.Context) (iter.Seq2[core.Fragment, error], error)
}

// FragmentHandler receives fragments that appeared after the initial
// ingestion pass.
type FragmentHandler func(fragments []core.Fragment)

// IncrementalLoader is an optional capability for loaders whose source
// can grow over time. The engine type-asserts for it after the initial
// pass and subscribes a handler that appends new fragments to the store.
type IncrementalLoader interface {
	Loader

	// OnNewFragments registers the handler invoked whenever the source
	// produces fragments beyond those already returned by Fragments.
	// Only one handler is supported; registering again replaces it.
	OnNewFragments(handler FragmentHandler)
}
