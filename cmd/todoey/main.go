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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/todoey"
	"github.com/urfave/cli/v2"
)

func main() {
	// Flags read their env vars while parsing, so .env has to be loaded first.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "todoey",
		Usage: "Manage categorised to-do lists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Storage backend (memory, plist, badger, sqlite)",
				Value:   string(todoey.BackendSQLite),
				EnvVars: []string{"TODOEY_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Data file or directory (defaults depend on the backend)",
				EnvVars: []string{"TODOEY_PATH"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Do not assign palette colors to new categories",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			categoriesCommand(),
			itemsCommand(),
			migrateCommand(),
			serveCommand(),
		},
	}
}

// configFromFlags builds the store configuration from the global flags.
func configFromFlags(c *cli.Context) (*todoey.Config, error) {
	backend, err := todoey.ParseBackend(c.String("backend"))
	if err != nil {
		return nil, err
	}
	cfg := todoey.NewConfig(
		todoey.WithBackend(backend),
		todoey.WithPath(c.String("path")),
		todoey.WithColors(!c.Bool("no-color")),
		todoey.WithLogger(slog.Default()),
	)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(c *cli.Context) (*todoey.Todoey, error) {
	cfg, err := configFromFlags(c)
	if err != nil {
		return nil, err
	}
	db, err := todoey.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	return db, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
