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

// Package todoey opens a to-do store and the repository that manages it.
//
// A Config picks one of the storage strategies. Open wires the store to a
// todo.Repository and hands both back behind an explicit Close:
//
//	db, err := todoey.Open(todoey.NewConfig(todoey.WithBackend(todoey.BackendBadger)))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	work, err := db.Repository().CreateCategory(ctx, "Work")
package todoey

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/todoey/dispatch"
	"github.com/poiesic/todoey/migrate"
	"github.com/poiesic/todoey/storage"
	"github.com/poiesic/todoey/storage/badger"
	"github.com/poiesic/todoey/storage/memory"
	"github.com/poiesic/todoey/storage/plist"
	"github.com/poiesic/todoey/storage/sqlite"
	"github.com/poiesic/todoey/todo"
)

// Todoey owns an open store and the repository built on it.
type Todoey struct {
	config Config
	store  storage.Store
	repo   *todo.Repository
	logger *slog.Logger
}

// OpenStore opens the store for a backend. A nil logger uses slog.Default().
func OpenStore(backend Backend, path string, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store storage.Store
		err   error
	)
	// Each case checks err itself so a failed open never yields a typed nil store.
	switch backend {
	case BackendMemory:
		store = memory.NewStore()
	case BackendPlist:
		s, openErr := plist.Open(path, plist.WithLogger(logger))
		if err = openErr; err == nil {
			store = s
		}
	case BackendBadger:
		s, openErr := badger.Open(path, logger)
		if err = openErr; err == nil {
			store = s
		}
	case BackendSQLite:
		s, openErr := sqlite.Open(path, logger)
		if err = openErr; err == nil {
			store = s
		}
	default:
		err = fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Open validates cfg, opens its store and creates the repository.
// Extra repository options, such as observers, are applied after the config.
func Open(cfg *Config, opts ...todo.Option) (*Todoey, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	config := *cfg
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(config.Backend, config.Path, logger)
	if err != nil {
		return nil, err
	}

	repoOpts := append([]todo.Option{
		todo.WithLogger(logger),
		todo.WithColors(config.Colors),
	}, opts...)
	repo, err := todo.New(store, repoOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.Debug("store opened", "backend", config.Backend, "path", config.Path)
	return &Todoey{
		config: config,
		store:  store,
		repo:   repo,
		logger: logger,
	}, nil
}

// Close closes the underlying store.
func (t *Todoey) Close() error {
	if err := t.store.Close(); err != nil {
		t.logger.Error("error closing store", "backend", t.config.Backend, "err", err)
		return err
	}
	return nil
}

// Config returns the normalized configuration the store was opened with.
func (t *Todoey) Config() Config {
	return t.config
}

// Store returns the open store.
func (t *Todoey) Store() storage.Store {
	return t.store
}

// Repository returns the repository over the store.
func (t *Todoey) Repository() *todo.Repository {
	return t.repo
}

// NewDispatcher creates a dispatcher that runs repository calls off the caller's goroutine.
// The caller releases it.
func (t *Todoey) NewDispatcher(opts ...dispatch.Option) (*dispatch.Dispatcher, error) {
	opts = append([]dispatch.Option{dispatch.WithLogger(t.logger)}, opts...)
	return dispatch.New(t.repo, opts...)
}

// NewMigrator creates a migrator that copies this store into target.
func (t *Todoey) NewMigrator(target storage.Store, config *migrate.Config, progress io.Writer) (*migrate.Migrator, error) {
	return migrate.NewMigrator(t.store, target, config, progress)
}
