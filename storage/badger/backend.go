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

package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// sequenceLease is how many order values a sequence reserves per disk write.
const sequenceLease = 100

// Backend owns the Badger database behind a Store.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogLogger forwards Badger's printf-style logging to slog.
type slogLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = slogLogger{}

func (l slogLogger) log(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l slogLogger) Errorf(format string, args ...any)   { l.log(slog.LevelError, format, args) }
func (l slogLogger) Warningf(format string, args ...any) { l.log(slog.LevelWarn, format, args) }
func (l slogLogger) Debugf(format string, args ...any)   { l.log(slog.LevelDebug, format, args) }

// Infof logs at debug: Badger reports every compaction and replay at info.
func (l slogLogger) Infof(format string, args ...any) { l.log(slog.LevelDebug, format, args) }

// OpenBackend opens the database directory at path, creating it when missing.
// An empty path opens a database that lives only in memory. A nil logger means
// slog.Default().
func OpenBackend(path string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		// MkdirAll also fails when path exists as a regular file.
		return nil, fmt.Errorf("database directory: %w", err)
	}
	opts.Logger = slogLogger{logger: logger.With("component", "badger")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Backend{db: db, logger: logger}, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// View runs fn in a read-only transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	return b.db.View(fn)
}

// Update runs fn in a read-write transaction that commits when fn returns nil
// and is discarded otherwise.
func (b *Backend) Update(fn func(tx *badger.Txn) error) error {
	return b.db.Update(fn)
}

// Sequence returns the named monotonic sequence. Release it before closing.
func (b *Backend) Sequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), sequenceLease)
}
