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

// CheckpointStore implements storage.CheckpointStore for BadgerDB.
type CheckpointStore struct {
	backend *Backend
	owned   bool
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a checkpoint store on an open backend.
// The caller keeps ownership of backend.
func NewCheckpointStore(backend *Backend) *CheckpointStore {
	return &CheckpointStore{backend: backend}
}

// OpenCheckpointStore opens (or creates) a database directory that holds only checkpoints.
// An empty path keeps them in memory.
func OpenCheckpointStore(path string, logger *slog.Logger) (*CheckpointStore, error) {
	backend, err := OpenBackend(path, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", storage.ErrPersistence, path, err)
	}
	return &CheckpointStore{backend: backend, owned: true}, nil
}

// Close releases the database for stores created by OpenCheckpointStore.
func (s *CheckpointStore) Close() error {
	if !s.owned || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

// SaveCheckpoint persists checkpoint and stamps its UpdatedAt.
func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	checkpoint.UpdatedAt = core.Now()
	err := s.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeCheckpointKey(checkpoint.Key), marshalCheckpoint(checkpoint))
	})
	return wrapErr(err)
}

// LoadCheckpoint retrieves the checkpoint for key, or nil if there is none.
func (s *CheckpointStore) LoadCheckpoint(ctx context.Context, key string) (*core.Checkpoint, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var checkpoint *core.Checkpoint
	err := s.backend.View(func(tx *badger.Txn) error {
		entry, err := tx.Get(makeCheckpointKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return entry.Value(func(val []byte) (err error) {
			checkpoint, err = unmarshalCheckpoint(key, val)
			return err
		})
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return checkpoint, nil
}

// DeleteCheckpoint removes the checkpoint for key.
func (s *CheckpointStore) DeleteCheckpoint(ctx context.Context, key string) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	err := s.backend.Update(func(tx *badger.Txn) error {
		return tx.Delete(makeCheckpointKey(key))
	})
	return wrapErr(err)
}
