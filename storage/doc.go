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

// Package storage provides the storage abstraction layer for todoey.
//
// This package defines the Store interface that decouples persistence from the
// repository logic in package todo. Backends are interchangeable and selected
// when the store is opened:
//
//   - memory: process memory only, the reference implementation
//   - plist: a single property-list file holding one flat list of items
//   - badger: a BadgerDB directory with ordered indices
//   - sqlite: a SQLite database file with foreign-key cascades
//
// # Writes
//
// All writes go through Store.Persist with a Changeset. Persist is atomic: a
// failed call leaves nothing behind that a later read could observe.
//
//	err := store.Persist(ctx, &storage.Changeset{
//	    PutCategories: []*core.Category{category},
//	})
//
// # Errors
//
// Missing records are reported as ErrNotFound. I/O, database and codec failures
// are wrapped with ErrPersistence so callers can tell them apart with errors.Is.
//
// # Contract tests
//
// Package storetest holds a test suite every backend runs against.
package storage
