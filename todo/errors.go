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

package todo

import (
	"errors"
	"fmt"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
)

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")
)

// wrapStoreErr passes through the errors callers are expected to handle and
// marks every other backend failure as a persistence error.
func wrapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
}
