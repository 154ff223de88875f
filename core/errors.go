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

package core

import "errors"

// Domain validation errors
var (
	// ErrValidation indicates an entity failed validation.
	// Every other error in this block is reported wrapped in it.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyName indicates a category name is empty after trimming.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyTitle indicates an item title is empty after trimming.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrMissingID indicates an entity has no identifier.
	ErrMissingID = errors.New("id cannot be empty")

	// ErrMissingCategory indicates an item does not reference a category.
	ErrMissingCategory = errors.New("item must belong to a category")
)
