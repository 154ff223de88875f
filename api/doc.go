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

// Package api serves the to-do repository over HTTP as JSON.
//
// Every handler runs its repository call through a dispatch.Dispatcher, so
// requests are applied one at a time in arrival order. Repository errors map to
// status codes: validation failures are 400, missing records 404, operations the
// store does not support 409 and everything else 500. Error bodies have the form
// {"error": "..."}.
package api
