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

package plist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
	"howett.net/plist"
)

// DefaultFileName is the document name used when a directory is given.
const DefaultFileName = "Items.plist"

// WriteFunc writes an encoded document to w.
type WriteFunc func(w io.Writer, data []byte) error

func writeAll(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithXML writes XML documents instead of binary ones. Either form is read.
func WithXML() Option {
	return func(s *Store) {
		s.format = plist.XMLFormat
	}
}

// WithWriteFunc replaces the function that writes encoded bytes to the pending file.
func WithWriteFunc(fn WriteFunc) Option {
	return func(s *Store) {
		s.write = fn
	}
}

// Store keeps a flat list of items in a property list file.
// Every item belongs to the implicit default category.
type Store struct {
	*storage.SnapshotStore
	path   string
	format int
	write  WriteFunc
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open loads the document at path. A missing or unreadable file yields an empty list.
// A file that exists but cannot be decoded fails with storage.ErrPersistence.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		format: plist.BinaryFormat,
		write:  writeAll,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "plist-store", "path", path)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		s.path = filepath.Join(path, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", storage.ErrPersistence, err)
	}

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	s.SnapshotStore = storage.NewSnapshotStore(&storage.Snapshot{
		Categories: []*core.Category{defaultCategory()},
		Items:      items,
	})
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func defaultCategory() *core.Category {
	return &core.Category{ID: core.DefaultCategoryID, Name: core.DefaultCategoryName}
}

func (s *Store) load() ([]*core.Item, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no document, starting empty")
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("document unreadable, starting empty", "error", err)
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	records, err := decode(data)
	if err != nil {
		return nil, err
	}

	loadedAt := core.Now().Truncate(time.Second)
	items := make([]*core.Item, 0, len(records))
	assigned := 0
	for _, r := range records {
		item := r.toItem(loadedAt)
		if r.ID == "" {
			assigned++
		}
		items = append(items, item)
	}
	if assigned > 0 {
		s.logger.Info("assigned ids to legacy records", "count", assigned)
	}
	s.logger.Debug("document loaded", "items", len(items))
	return items, nil
}

// Persist rewrites the whole document. The new content is encoded first and
// then written to a temporary file that atomically replaces the old one, so a
// failed write leaves the previous document intact.
func (s *Store) Persist(ctx context.Context, changes *storage.Changeset) error {
	return s.Update(func(current *storage.Snapshot) (*storage.Snapshot, error) {
		if changes.IsEmpty() {
			return current, nil
		}
		if len(changes.PutCategories) > 0 || len(changes.DeleteCategories) > 0 {
			return nil, fmt.Errorf("%w: categories are fixed in a flat list", storage.ErrUnsupported)
		}

		next, err := current.Apply(changes)
		if err != nil {
			return nil, err
		}
		// Property list dates carry whole seconds
		for _, item := range next.Items {
			item.DateCreated = item.DateCreated.Truncate(time.Second)
		}

		data, err := encode(next.Items, s.format)
		if err != nil {
			return nil, err
		}
		if err := s.replace(data); err != nil {
			s.logger.Error("write failed, previous document kept", "error", err)
			return nil, err
		}

		s.logger.Debug("document written", "items", len(next.Items), "bytes", len(data))
		return next, nil
	})
}

func (s *Store) replace(data []byte) error {
	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", storage.ErrPersistence, err)
	}
	defer pending.Cleanup()

	if err := s.write(pending, data); err != nil {
		return fmt.Errorf("%w: write: %w", storage.ErrPersistence, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: replace: %w", storage.ErrPersistence, err)
	}
	return nil
}
