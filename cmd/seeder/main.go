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
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/todoey"
	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/dispatch"
	"github.com/poiesic/todoey/storage"
	"github.com/poiesic/todoey/todo"
)

// entry is one seed line: an item title and the category it belongs to.
type entry struct {
	Category string
	Title    string
}

var demo = []entry{
	{"Work", "Email team about the release"},
	{"Work", "Call Bob"},
	{"Work", "Review pull requests"},
	{"Work", "Book meeting room for Thursday"},
	{"Home", "Buy milk"},
	{"Home", "Buy eggs"},
	{"Home", "Water the plants"},
	{"Home", "Fix the leaking tap"},
	{"Errands", "Find Mike"},
	{"Errands", "Destroy Demogorgon"},
	{"Errands", "Post letter to grandma"},
	{"Errands", "Pick up dry cleaning"},
	{"Reading", "Finish the Go memory model"},
	{"Reading", "Skim the SQLite file format notes"},
	{"Someday", "Learn to juggle"},
	{"Someday", "Visit Kyoto in autumn"},
}

var (
	backendName  = flag.String("backend", string(todoey.BackendSQLite), "storage backend (memory, plist, badger, sqlite)")
	dataPath     = flag.String("path", "", "data file or directory")
	seedFileName = flag.String("src", "", "file of seed data, one \"Category: title\" per line")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// parseLine splits "Category: title". Lines without a category go to fallback.
func parseLine(line, fallback string) (entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return entry{}, false
	}
	category, title, ok := strings.Cut(line, ":")
	if !ok {
		return entry{Category: fallback, Title: line}, true
	}
	category, title = strings.TrimSpace(category), strings.TrimSpace(title)
	if category == "" {
		category = fallback
	}
	return entry{Category: category, Title: title}, title != ""
}

// entriesFromFile returns an iterator over the entries in a file.
// A read error ends the sequence with that error.
func entriesFromFile(filename string) (iter.Seq2[entry, error], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(entry, error) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			e, ok := parseLine(scanner.Text(), core.DefaultCategoryName)
			if !ok {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(entry{}, fmt.Errorf("read %s: %w", filename, err))
		}
	}, nil
}

// entriesFromSlice returns an iterator over a slice of entries.
func entriesFromSlice(entries []entry) iter.Seq2[entry, error] {
	return func(yield func(entry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// seeder creates categories on first use and queues item creation on a dispatcher.
type seeder struct {
	dispatcher *dispatch.Dispatcher
	categories map[string]core.ID
	flat       bool
}

func newSeeder(ctx context.Context, d *dispatch.Dispatcher) (*seeder, error) {
	s := &seeder{dispatcher: d, categories: make(map[string]core.ID)}
	existing, err := d.Repository().ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		s.categories[c.Name] = c.ID
	}
	return s, nil
}

// categoryFor returns the id for name, creating the category when needed.
// Stores without categories put everything in the default list.
func (s *seeder) categoryFor(ctx context.Context, name string) (core.ID, error) {
	if s.flat {
		return core.DefaultCategoryID, nil
	}
	if id, ok := s.categories[name]; ok {
		return id, nil
	}

	category, err := dispatch.Await(ctx, s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Category, error) {
		return repo.CreateCategory(ctx, name)
	})
	if errors.Is(err, storage.ErrUnsupported) {
		slog.Info("store has a single list, seeding the default category")
		s.flat = true
		return core.DefaultCategoryID, nil
	}
	if err != nil {
		return "", err
	}
	s.categories[name] = category.ID
	return category.ID, nil
}

// seedBatched queues batchSize items at a time and waits for each batch.
func seedBatched(ctx context.Context, s *seeder, source iter.Seq2[entry, error], batchSize int) (int, error) {
	pending := make([]<-chan dispatch.Result[*core.Item], 0, batchSize)
	created := 0

	wait := func() error {
		for _, result := range pending {
			r := <-result
			if r.Err != nil {
				return r.Err
			}
			created++
		}
		pending = pending[:0]
		return nil
	}

	for e, err := range source {
		if err != nil {
			// Keep what was already queued
			return created, errors.Join(err, wait())
		}
		categoryID, err := s.categoryFor(ctx, e.Category)
		if err != nil {
			return created, err
		}
		title := e.Title
		pending = append(pending, dispatch.Do(ctx, s.dispatcher, func(ctx context.Context, repo *todo.Repository) (*core.Item, error) {
			return repo.CreateItem(ctx, categoryID, title)
		}))
		if len(pending) == batchSize {
			if err := wait(); err != nil {
				return created, err
			}
		}
	}

	// Wait for any remaining items
	if err := wait(); err != nil {
		return created, err
	}
	return created, nil
}

func run(ctx context.Context) error {
	backend, err := todoey.ParseBackend(*backendName)
	if err != nil {
		return err
	}
	db, err := todoey.Open(todoey.NewConfig(todoey.WithBackend(backend), todoey.WithPath(*dataPath)))
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := db.NewDispatcher()
	if err != nil {
		return err
	}
	defer d.Release()

	// Determine source of seed data
	var source iter.Seq2[entry, error]
	if *seedFileName != "" {
		source, err = entriesFromFile(*seedFileName)
		if err != nil {
			return err
		}
	} else {
		source = entriesFromSlice(demo)
	}

	s, err := newSeeder(ctx, d)
	if err != nil {
		return err
	}
	created, err := seedBatched(ctx, s, source, 5)
	if err != nil {
		return err
	}

	cfg := db.Config()
	slog.Info("seeded store", "backend", cfg.Backend, "path", cfg.Path, "items", created)
	return nil
}

func main() {
	flag.Parse()
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
