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

// Package plist implements the file-backed storage.Store.
//
// The document is a property list holding an ordered array of dictionaries
// with "title" and "done" keys, plus "id" and "dateCreated" which older
// documents lack. There is no category nesting: every item belongs to the
// implicit default category (core.DefaultCategoryID), and changesets that put
// or delete categories fail with storage.ErrUnsupported.
//
// Each Persist rewrites the complete document through a temporary file that
// replaces the previous one with an atomic rename.
package plist
