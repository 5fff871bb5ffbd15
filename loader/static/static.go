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

// Package static provides an in-memory loader backed by a fixed slice
// of texts. It implements the incremental capability, so texts pushed
// after the initial pass flow to a registered handler.
package static

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/loader"
)

// ErrEmptyID is returned when a loader is constructed without an id.
var ErrEmptyID = errors.New("static loader requires a non-empty id")

// Loader serves fragments from an in-memory list of texts. Safe for
// concurrent use.
type Loader struct {
	id       string
	source   string
	mu       sync.Mutex
	texts    []string
	metadata map[string]string
	handler  loader.FragmentHandler
}

var _ loader.IncrementalLoader = (*Loader)(nil)

// Option configures a static loader.
type Option func(*Loader)

// WithSource sets the source label stamped on every fragment's
// metadata. Defaults to the loader id.
func WithSource(source string) Option {
	return func(l *Loader) {
		l.source = source
	}
}

// WithMetadata merges extra metadata keys onto every fragment.
func WithMetadata(metadata map[string]string) Option {
	return func(l *Loader) {
		l.metadata = metadata
	}
}

// New creates a static loader with the given id and initial texts.
func New(id string, texts []string, opts ...Option) (*Loader, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	l := &Loader{
		id:     id,
		source: id,
		texts:  append([]string(nil), texts...),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Init implements loader.Loader. It is a no-op for in-memory sources.
func (l *Loader) Init(ctx context.Context) error {
	return nil
}

// UniqueID implements loader.Loader.
func (l *Loader) UniqueID() string {
	return l.id
}

// Fragments implements loader.Loader.
func (l *Loader) Fragments(ctx context.Context) (iter.Seq2[core.Fragment, error], error) {
	l.mu.Lock()
	texts := append([]string(nil), l.texts...)
	l.mu.Unlock()

	seq := func(yield func(core.Fragment, error) bool) {
		for _, text := range texts {
			if err := ctx.Err(); err != nil {
				yield(core.Fragment{}, err)
				return
			}
			if !yield(l.fragment(text), nil) {
				return
			}
		}
	}
	return seq, nil
}

// OnNewFragments implements loader.IncrementalLoader.
func (l *Loader) OnNewFragments(handler loader.FragmentHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
}

// Push appends texts to the source. If a handler is registered the new
// fragments are delivered to it synchronously.
func (l *Loader) Push(texts ...string) {
	if len(texts) == 0 {
		return
	}

	l.mu.Lock()
	l.texts = append(l.texts, texts...)
	handler := l.handler
	l.mu.Unlock()

	if handler == nil {
		return
	}

	fragments := make([]core.Fragment, 0, len(texts))
	for _, text := range texts {
		fragments = append(fragments, l.fragment(text))
	}
	handler(fragments)
}

func (l *Loader) fragment(text string) core.Fragment {
	metadata := map[string]string{
		core.MetadataKeySource: l.source,
	}
	for k, v := range l.metadata {
		metadata[k] = v
	}
	return core.Fragment{
		PageContent: text,
		Metadata:    metadata,
	}
}
