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

// Package search implements the filter-and-order rules shared by every backend.
//
// A query that is empty after trimming whitespace is not a search: results are
// the plain listing in chronological order (creation time ascending, ties in
// insertion order). Any other query is handed to the store untrimmed as a
// case-insensitive substring predicate, and the matches are ordered
// alphabetically by title or name.
//
// The switch from chronological to alphabetical order when a query becomes
// active is deliberate and matches the behavior users of the list expect.
package search
