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

// Package dir provides a loader that reads plain-text documents from a
// directory. Each .txt or .md file is split into paragraph fragments on
// blank lines, with the file path recorded as the fragment source. An
// optional watch mode uses fsnotify to pick up files created after the
// initial pass.
package dir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/loader"
)

// ErrEmptyID is returned when a loader is constructed without an id.
var ErrEmptyID = errors.New("dir loader requires a non-empty id")

// ErrEmptyPath is returned when a loader is constructed without a
// directory path.
var ErrEmptyPath = errors.New("dir loader requires a directory path")

var eligibleExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Loader reads paragraph fragments from text files in a directory.
type Loader struct {
	id     string
	path   string
	watch  bool
	logger *slog.Logger

	mu      sync.Mutex
	seen    map[string]bool
	handler loader.FragmentHandler
	watcher *fsnotify.Watcher
	done    chan struct{}
}

var _ loader.IncrementalLoader = (*Loader)(nil)

// Option configures a directory loader.
type Option func(*Loader)

// WithWatch enables fsnotify watching. Files created in the directory
// after the initial pass are delivered to the incremental handler.
func WithWatch() Option {
	return func(l *Loader) {
		l.watch = true
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a directory loader rooted at path.
func New(id, path string, opts ...Option) (*Loader, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if path == "" {
		return nil, ErrEmptyPath
	}

	l := &Loader{
		id:     id,
		path:   path,
		logger: slog.Default(),
		seen:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "dirloader", "loader", id)
	return l, nil
}

// Init verifies the directory exists and, in watch mode, starts the
// fsnotify watcher.
func (l *Loader) Init(ctx context.Context) error {
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", l.path)
	}

	if !l.watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(l.path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", l.path, err)
	}

	l.watcher = watcher
	l.done = make(chan struct{})
	go l.watchLoop()
	return nil
}

// UniqueID implements loader.Loader.
func (l *Loader) UniqueID() string {
	return l.id
}

// Fragments implements loader.Loader. Files are visited in lexical
// order so fragment ordering is stable across runs.
func (l *Loader) Fragments(ctx context.Context) (iter.Seq2[core.Fragment, error], error) {
	files, err := l.listFiles()
	if err != nil {
		return nil, err
	}

	seq := func(yield func(core.Fragment, error) bool) {
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				yield(core.Fragment{}, err)
				return
			}

			fragments, err := l.loadFile(file)
			if err != nil {
				yield(core.Fragment{}, err)
				return
			}

			l.markSeen(file)
			for _, fragment := range fragments {
				if !yield(fragment, nil) {
					return
				}
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

// Close stops the watcher if one is running.
func (l *Loader) Close() error {
	if l.watcher == nil {
		return nil
	}
	err := l.watcher.Close()
	<-l.done
	return err
}

func (l *Loader) watchLoop() {
	defer close(l.done)
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				l.handleFile(event.Name)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("watcher error", "error", err)
		}
	}
}

func (l *Loader) handleFile(path string) {
	if !eligibleExtensions[strings.ToLower(filepath.Ext(path))] {
		return
	}

	l.mu.Lock()
	handler := l.handler
	already := l.seen[path]
	l.mu.Unlock()

	if handler == nil || already {
		return
	}

	fragments, err := l.loadFile(path)
	if err != nil {
		l.logger.Warn("failed to load new file", "path", path, "error", err)
		return
	}
	if len(fragments) == 0 {
		return
	}

	l.markSeen(path)
	l.logger.Info("new file detected", "path", path, "fragments", len(fragments))
	handler(fragments)
}

func (l *Loader) listFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if eligibleExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.path, err)
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadFile(path string) ([]core.Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var fragments []core.Fragment
	for _, paragraph := range splitParagraphs(string(data)) {
		fragments = append(fragments, core.Fragment{
			PageContent: paragraph,
			Metadata: map[string]string{
				core.MetadataKeySource: path,
			},
		})
	}
	return fragments, nil
}

func (l *Loader) markSeen(path string) {
	l.mu.Lock()
	l.seen[path] = true
	l.mu.Unlock()
}

// splitParagraphs splits text on blank lines, trimming whitespace and
// dropping empty paragraphs.
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}
