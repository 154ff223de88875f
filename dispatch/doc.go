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

// Package dispatch runs Repository operations off the caller's goroutine.
//
// A Dispatcher owns a single-worker ants pool, so operations execute one at a
// time in submission order: a read submitted after a write has completed
// observes that write. Each submission returns a channel that delivers exactly
// one Result.
//
// Dispatchers can retry operations that fail with storage.ErrPersistence using
// exponential backoff. Validation and not-found errors are never retried.
package dispatch
