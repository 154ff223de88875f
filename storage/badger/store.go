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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
)

// Store implements storage.Store for BadgerDB.
type Store struct {
	backend *Backend
	seq     *badger.Sequence
	owned   bool
	logger  *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) a database directory and returns a store that owns it.
func Open(path string, logger *slog.Logger) (*Store, error) {
	backend, err := OpenBackend(path, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", storage.ErrPersistence, path, err)
	}
	store, err := NewStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// NewStore creates a store on an open backend. The caller keeps ownership of backend.
func NewStore(backend *Backend) (*Store, error) {
	seq, err := backend.Sequence(orderSeq)
	if err != nil {
		return nil, fmt.Errorf("%w: order sequence: %w", storage.ErrPersistence, err)
	}
	return &Store{
		backend: backend,
		seq:     seq,
		logger:  backend.logger.With("component", "badger-store"),
	}, nil
}

// Close releases the order sequence and, for stores created by Open, the database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	err := s.seq.Release()
	if s.owned {
		err = errors.Join(err, s.backend.Close())
	}
	return err
}

// view runs fn in a read-only transaction and maps errors onto storage sentinels.
func (s *Store) view(fn func(tx *badger.Txn) error) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return wrapErr(s.backend.View(fn))
}

// wrapErr leaves storage sentinels alone and marks everything else as a persistence failure.
func wrapErr(err error) error {
	if err == nil || errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrUnsupported) {
		return err
	}
	if errors.Is(err, storage.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
}

// nextSeq returns the next order value. Sequences can return 0 on first call, so it is skipped.
func (s *Store) nextSeq() (uint64, error) {
	next, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		return s.seq.Next()
	}
	return next, nil
}

// GetCategories returns every category in insertion order.
func (s *Store) GetCategories(ctx context.Context) ([]*core.Category, error) {
	return s.FindCategories(ctx, "")
}

// GetCategory retrieves a single category by ID.
func (s *Store) GetCategory(ctx context.Context, id core.ID) (*core.Category, error) {
	var result *core.Category
	err := s.view(func(tx *badger.Txn) error {
		category, _, err := readCategory(tx, id)
		if err != nil {
			return err
		}
		if category == nil {
			return fmt.Errorf("%w: category %s", storage.ErrNotFound, id)
		}
		result = category
		return nil
	})
	return result, err
}

// GetItems returns the items of a category in insertion order.
func (s *Store) GetItems(ctx context.Context, categoryID core.ID) ([]*core.Item, error) {
	return s.FindItems(ctx, categoryID, "")
}

// GetItem retrieves a single item by ID.
func (s *Store) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	var result *core.Item
	err := s.view(func(tx *badger.Txn) error {
		item, _, err := readItem(tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: item %s", storage.ErrNotFound, id)
		}
		result = item
		return nil
	})
	return result, err
}

// FindCategories walks the category order index and keeps names containing query.
func (s *Store) FindCategories(ctx context.Context, query string) ([]*core.Category, error) {
	results := []*core.Category{}
	err := s.view(func(tx *badger.Txn) error {
		ids, err := scanIndex(tx, makeCategoryOrderPrefix())
		if err != nil {
			return err
		}
		for _, id := range ids {
			category, _, err := readCategory(tx, id)
			if err != nil {
				return err
			}
			if category != nil && core.ContainsFold(category.Name, query) {
				results = append(results, category)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindItems walks only the order index of one category and keeps titles containing query.
func (s *Store) FindItems(ctx context.Context, categoryID core.ID, query string) ([]*core.Item, error) {
	results := []*core.Item{}
	err := s.view(func(tx *badger.Txn) error {
		category, _, err := readCategory(tx, categoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return fmt.Errorf("%w: category %s", storage.ErrNotFound, categoryID)
		}

		ids, err := scanIndex(tx, makeItemOrderPrefix(categoryID))
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, _, err := readItem(tx, id)
			if err != nil {
				return err
			}
			if item != nil && core.ContainsFold(item.Title, query) {
				results = append(results, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Persist applies a changeset in a single read-write transaction.
func (s *Store) Persist(ctx context.Context, changes *storage.Changeset) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if changes.IsEmpty() {
		return nil
	}
	if err := changes.Validate(); err != nil {
		return err
	}

	err := s.backend.Update(func(tx *badger.Txn) error {
		for _, category := range changes.PutCategories {
			if err := s.putCategory(tx, category); err != nil {
				return err
			}
		}
		for _, item := range changes.PutItems {
			if err := s.putItem(tx, item); err != nil {
				return err
			}
		}
		for _, id := range changes.DeleteItems {
			if err := deleteItem(tx, id); err != nil {
				return err
			}
		}
		for _, id := range changes.DeleteCategories {
			if err := deleteCategory(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("persist rolled back", "error", err)
		return wrapErr(err)
	}
	return nil
}

func (s *Store) putCategory(tx *badger.Txn, category *core.Category) error {
	_, seq, err := readCategory(tx, category.ID)
	if err != nil {
		return err
	}
	if seq == 0 {
		if seq, err = s.nextSeq(); err != nil {
			return err
		}
		if err := tx.Set(makeCategoryOrderKey(seq), []byte(category.ID)); err != nil {
			return err
		}
	}
	return tx.Set(makeCategoryKey(category.ID), marshalCategory(seq, category))
}

func (s *Store) putItem(tx *badger.Txn, item *core.Item) error {
	owner, _, err := readCategory(tx, item.CategoryID)
	if err != nil {
		return err
	}
	if owner == nil {
		return fmt.Errorf("%w: category %s for item %s", storage.ErrNotFound, item.CategoryID, item.ID)
	}

	old, seq, err := readItem(tx, item.ID)
	if err != nil {
		return err
	}
	if old != nil && old.CategoryID != item.CategoryID {
		// Moving to another category appends it there
		if err := tx.Delete(makeItemOrderKey(old.CategoryID, seq)); err != nil {
			return err
		}
		seq = 0
	}
	if seq == 0 {
		if seq, err = s.nextSeq(); err != nil {
			return err
		}
		if err := tx.Set(makeItemOrderKey(item.CategoryID, seq), []byte(item.ID)); err != nil {
			return err
		}
	}
	return tx.Set(makeItemKey(item.ID), marshalItem(seq, item))
}

func deleteItem(tx *badger.Txn, id core.ID) error {
	item, seq, err := readItem(tx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item %s", storage.ErrNotFound, id)
	}
	if err := tx.Delete(makeItemOrderKey(item.CategoryID, seq)); err != nil {
		return err
	}
	return tx.Delete(makeItemKey(id))
}

// deleteCategory removes a category and every item still indexed under it.
func deleteCategory(tx *badger.Txn, id core.ID) error {
	category, seq, err := readCategory(tx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category %s", storage.ErrNotFound, id)
	}

	children, err := scanIndex(tx, makeItemOrderPrefix(id))
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := deleteItem(tx, child); err != nil {
			return err
		}
	}

	if err := tx.Delete(makeCategoryOrderKey(seq)); err != nil {
		return err
	}
	return tx.Delete(makeCategoryKey(id))
}

// Helper functions

// scanIndex collects the IDs stored under an order index prefix, in key order.
// The iterator is closed before returning so callers may modify the keys.
func scanIndex(tx *badger.Txn, prefix []byte) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			ids = append(ids, core.ID(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// readCategory returns nil with seq 0 when the category doesn't exist.
func readCategory(tx *badger.Txn, id core.ID) (*core.Category, uint64, error) {
	item, err := tx.Get(makeCategoryKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var (
		category *core.Category
		seq      uint64
	)
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		category, seq, unmarshalErr = unmarshalCategory(id, val)
		return unmarshalErr
	})
	return category, seq, err
}

// readItem returns nil with seq 0 when the item doesn't exist.
func readItem(tx *badger.Txn, id core.ID) (*core.Item, uint64, error) {
	entry, err := tx.Get(makeItemKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var (
		item *core.Item
		seq  uint64
	)
	err = entry.Value(func(val []byte) error {
		var unmarshalErr error
		item, seq, unmarshalErr = unmarshalItem(id, val)
		return unmarshalErr
	})
	return item, seq, err
}
