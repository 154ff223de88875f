package storage

import (
	"context"

	"github.com/poiesic/todoey/core"
)

// Store persists Categories and their Items.
// Read methods never mutate state and return copies the caller may keep.
type Store interface {
	// GetCategories returns every category in insertion order.
	GetCategories(ctx context.Context) ([]*core.Category, error)

	// GetCategory retrieves a single category by ID.
	// Returns ErrNotFound if the category doesn't exist.
	GetCategory(ctx context.Context, id core.ID) (*core.Category, error)

	// GetItems returns the items owned by a category in insertion order.
	// Returns ErrNotFound if the category doesn't exist.
	GetItems(ctx context.Context, categoryID core.ID) ([]*core.Item, error)

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)

	// FindCategories returns categories whose name contains query, ignoring case
	// (see core.ContainsFold). Results are in insertion order.
	FindCategories(ctx context.Context, query string) ([]*core.Category, error)

	// FindItems returns items of a category whose title contains query, ignoring case.
	// Results are in insertion order.
	// Returns ErrNotFound if the category doesn't exist.
	FindItems(ctx context.Context, categoryID core.ID, query string) ([]*core.Item, error)

	// Persist applies a changeset atomically: either every change is visible
	// to later reads or none is.
	Persist(ctx context.Context, changes *Changeset) error

	// Close releases the resources held by the store.
	Close() error
}

// CheckpointStore persists migration checkpoints so an interrupted copy can resume.
type CheckpointStore interface {
	// SaveCheckpoint stores checkpoint under its key, replacing any previous one.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for key.
	// Returns nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, key string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for key. Missing keys are not an error.
	DeleteCheckpoint(ctx context.Context, key string) error
}
