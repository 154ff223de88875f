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

// Package migrate copies every category and item from one store into another.
//
// Entities are read from the source in insertion order and written to the
// target in batches, one Persist per batch, so the target ends up with the same
// ordering. Categories the target already holds (such as the implicit default
// category of a flat list) are not rewritten. Progress is reported to an
// io.Writer while the copy runs.
package migrate
