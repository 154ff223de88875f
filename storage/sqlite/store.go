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

// Package sqlite implements storage.Store on SQLite.
//
// Items reference their category with ON DELETE CASCADE, so the database
// itself enforces the cascade on category deletion. Name and title searches
// run in SQL through the contains_fold function.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

//go:embed schema.sql
var schemaSQL string

// Store implements storage.Store for SQLite.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// Open connects to the database at path, creating the file and schema when missing.
// A nil logger means slog.Default().
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := "file::memory:?_foreign_keys=on"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %w", storage.ErrPersistence, err)
		}
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to sqlite db at %s: %w", storage.ErrPersistence, path, err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	conn.SetMaxOpenConns(1)

	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: run schema: %w", storage.ErrPersistence, err)
	}

	return &Store{
		conn:   conn,
		logger: logger.With("component", "sqlite-store", "path", path),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

func (s *Store) check() error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	return nil
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", storage.ErrPersistence, op, err)
}

// GetCategories returns every category in insertion order.
func (s *Store) GetCategories(ctx context.Context) ([]*core.Category, error) {
	return s.FindCategories(ctx, "")
}

// GetCategory retrieves a single category by ID.
func (s *Store) GetCategory(ctx context.Context, id core.ID) (*core.Category, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, name, date_created, color_hex FROM category WHERE id = ?`, id)
	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, persistenceErr("load category", err)
	}
	return category, nil
}

// GetItems returns the items of a category in insertion order.
func (s *Store) GetItems(ctx context.Context, categoryID core.ID) ([]*core.Item, error) {
	return s.FindItems(ctx, categoryID, "")
}

// GetItem retrieves a single item by ID.
func (s *Store) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, category_id, title, done, date_created FROM item WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, persistenceErr("load item", err)
	}
	return item, nil
}

// FindCategories returns categories whose name contains query, ignoring case.
func (s *Store) FindCategories(ctx context.Context, query string) ([]*core.Category, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, date_created, color_hex
		FROM category
		WHERE contains_fold(name, ?)
		ORDER BY seq`, query)
	if err != nil {
		return nil, persistenceErr("load categories", err)
	}
	defer rows.Close()

	categories := []*core.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, persistenceErr("scan categories", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("scan categories", err)
	}
	return categories, nil
}

// FindItems returns items of a category whose title contains query, ignoring case.
func (s *Store) FindItems(ctx context.Context, categoryID core.ID, query string) ([]*core.Item, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, category_id, title, done, date_created
		FROM item
		WHERE category_id = ? AND contains_fold(title, ?)
		ORDER BY seq`, categoryID, query)
	if err != nil {
		return nil, persistenceErr("load items", err)
	}
	defer rows.Close()

	items := []*core.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, persistenceErr("scan items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("scan items", err)
	}
	return items, nil
}

// Persist applies a changeset inside one transaction.
func (s *Store) Persist(ctx context.Context, changes *storage.Changeset) error {
	if err := s.check(); err != nil {
		return err
	}
	if changes.IsEmpty() {
		return nil
	}
	if err := changes.Validate(); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin", err)
	}
	defer tx.Rollback()

	if err := applyChanges(ctx, tx, changes); err != nil {
		s.logger.Debug("persist rolled back", "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistenceErr("commit", err)
	}
	return nil
}

func applyChanges(ctx context.Context, tx *sql.Tx, changes *storage.Changeset) error {
	for _, category := range changes.PutCategories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO category (id, name, date_created, color_hex, seq)
			VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM category))
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				date_created = excluded.date_created,
				color_hex = excluded.color_hex`,
			category.ID, category.Name, category.DateCreated.UnixMicro(), category.Color)
		if err != nil {
			return persistenceErr("save category", err)
		}
	}

	for _, item := range changes.PutItems {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM category WHERE id = ?`, item.CategoryID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: category %s for item %s", storage.ErrNotFound, item.CategoryID, item.ID)
		}
		if err != nil {
			return persistenceErr("check category", err)
		}

		// Moving an item to another category appends it there
		_, err = tx.ExecContext(ctx,
			`INSERT INTO item (id, category_id, title, done, date_created, seq)
			VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM item))
			ON CONFLICT (id) DO UPDATE SET
				seq = CASE WHEN item.category_id = excluded.category_id THEN item.seq ELSE excluded.seq END,
				category_id = excluded.category_id,
				title = excluded.title,
				done = excluded.done,
				date_created = excluded.date_created`,
			item.ID, item.CategoryID, item.Title, item.Done, item.DateCreated.UnixMicro())
		if err != nil {
			return persistenceErr("save item", err)
		}
	}

	for _, id := range changes.DeleteItems {
		if err := deleteRow(ctx, tx, `DELETE FROM item WHERE id = ?`, id); err != nil {
			return fmt.Errorf("%w: item %s", err, id)
		}
	}

	for _, id := range changes.DeleteCategories {
		if err := deleteRow(ctx, tx, `DELETE FROM category WHERE id = ?`, id); err != nil {
			return fmt.Errorf("%w: category %s", err, id)
		}
	}
	return nil
}

// deleteRow runs a single-row delete and reports ErrNotFound when nothing matched.
func deleteRow(ctx context.Context, tx *sql.Tx, query string, id core.ID) error {
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return persistenceErr("delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistenceErr("delete", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (*core.Category, error) {
	var (
		category core.Category
		created  int64
	)
	if err := row.Scan(&category.ID, &category.Name, &created, &category.Color); err != nil {
		return nil, err
	}
	category.DateCreated = time.UnixMicro(created).UTC()
	return &category, nil
}

func scanItem(row scanner) (*core.Item, error) {
	var (
		item    core.Item
		created int64
	)
	if err := row.Scan(&item.ID, &item.CategoryID, &item.Title, &item.Done, &created); err != nil {
		return nil, err
	}
	item.DateCreated = time.UnixMicro(created).UTC()
	return &item, nil
}
