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

// Package todo is the single entry point for working with categories and items.
//
// A Repository combines a storage.Store with the invariants that do not depend
// on the backend: input validation, identifier and timestamp assignment,
// display colors, cascade deletion, result ordering, and change notifications.
//
// Basic usage:
//
//	repo, err := todo.New(memory.NewStore())
//	if err != nil {
//		return err
//	}
//	work, err := repo.CreateCategory(ctx, "Work")
//	item, err := repo.CreateItem(ctx, work.ID, "Call Bob")
//	_, err = repo.ToggleDone(ctx, item.ID)
//
// Errors wrap core.ErrValidation, storage.ErrNotFound or storage.ErrPersistence
// and are meant to be tested with errors.Is. Nothing is swallowed.
//
// Mutations are serialised by the Repository. Observers are notified after a
// mutation has been persisted, outside the Repository lock, so an observer may
// call back into the Repository.
package todo
