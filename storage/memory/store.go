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

// Package memory implements storage.Store in process memory.
// Nothing survives the process; it is the reference backend for tests.
package memory

import (
	"context"

	"github.com/poiesic/todoey/storage"
)

// Store keeps categories and items in a storage.Snapshot guarded by a mutex.
type Store struct {
	*storage.SnapshotStore
}

var _ storage.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{SnapshotStore: storage.NewSnapshotStore(nil)}
}

// Persist applies the changeset to a staged copy and swaps it in on success.
func (s *Store) Persist(ctx context.Context, changes *storage.Changeset) error {
	return s.Update(func(current *storage.Snapshot) (*storage.Snapshot, error) {
		if changes.IsEmpty() {
			return current, nil
		}
		return current.Apply(changes)
	})
}
