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

package todoey

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Backend names a storage strategy.
type Backend string

const (
	// BackendMemory keeps everything in process memory.
	BackendMemory Backend = "memory"
	// BackendPlist stores a single flat list in a property list file.
	BackendPlist Backend = "plist"
	// BackendBadger stores categories and items in a Badger database directory.
	BackendBadger Backend = "badger"
	// BackendSQLite stores categories and items in a SQLite database file.
	BackendSQLite Backend = "sqlite"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendMemory, BackendPlist, BackendBadger, BackendSQLite}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// ParseBackend maps a name such as "SQLite" to a Backend.
func ParseBackend(name string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, name)
}

// DefaultPath returns where a backend keeps its data when no path is configured.
func (b Backend) DefaultPath() string {
	switch b {
	case BackendPlist:
		return "Items.plist"
	case BackendBadger:
		return "todoey.badger"
	case BackendSQLite:
		return "todoey.db"
	default:
		return ""
	}
}

// Config holds configuration for opening a to-do store.
type Config struct {
	// Backend selects the storage strategy.
	// Default: BackendSQLite
	Backend Backend

	// Path is the file or directory the backend reads and writes.
	// Ignored by BackendMemory. Defaults to Backend.DefaultPath().
	Path string

	// Colors enables palette colors for new categories.
	// Default: true
	Colors bool

	// Logger receives diagnostics. Default: slog.Default()
	Logger *slog.Logger
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the storage strategy.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithPath sets the data location.
func WithPath(path string) ConfigOption {
	return func(c *Config) {
		c.Path = path
	}
}

// WithColors turns category colors on or off.
func WithColors(enabled bool) ConfigOption {
	return func(c *Config) {
		c.Colors = enabled
	}
}

// WithLogger sets the logger handed to the store and repository.
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns a Config backed by a SQLite file in the working directory.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendSQLite,
		Colors:  true,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendBadger),
//	    WithPath("/var/lib/todoey"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form: the backend name is
// lower-cased, an empty path gets the backend default, and the path is cleaned.
func (c *Config) Normalize() {
	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.Backend == BackendMemory {
		c.Path = ""
		return
	}
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Path = c.Backend.DefaultPath()
	}
	c.Path = filepath.Clean(c.Path)
}

// Validate normalizes the configuration and checks that it is complete.
func (c *Config) Validate() error {
	c.Normalize()

	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.Backend != BackendMemory && c.Path == "" {
		return fmt.Errorf("%w: path is required for %s", ErrInvalidConfig, c.Backend)
	}
	return nil
}
