package storage

import (
	"context"
	"sync"

	"github.com/poiesic/todoey/core"
)

// SnapshotStore serves the read half of Store from a Snapshot guarded by a
// RWMutex. Stores without a query engine embed it and implement Persist with
// Update.
type SnapshotStore struct {
	mu     sync.RWMutex
	state  *Snapshot
	closed bool
}

// NewSnapshotStore creates a SnapshotStore holding state.
func NewSnapshotStore(state *Snapshot) *SnapshotStore {
	if state == nil {
		state = &Snapshot{}
	}
	return &SnapshotStore{state: state}
}

// Close marks the store closed. Later calls fail with ErrStorageClosed.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Update runs fn with the current state under the write lock and installs the
// snapshot it returns. When fn fails the current state is kept.
func (s *SnapshotStore) Update(fn func(current *Snapshot) (*Snapshot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageClosed
	}
	next, err := fn(s.state)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *SnapshotStore) read(fn func(state *Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStorageClosed
	}
	return fn(s.state)
}

// GetCategories returns every category in insertion order.
func (s *SnapshotStore) GetCategories(ctx context.Context) ([]*core.Category, error) {
	var result []*core.Category
	err := s.read(func(state *Snapshot) error {
		result = core.CloneCategories(state.Categories)
		return nil
	})
	return result, err
}

// GetCategory retrieves a single category by ID.
func (s *SnapshotStore) GetCategory(ctx context.Context, id core.ID) (*core.Category, error) {
	var result *core.Category
	err := s.read(func(state *Snapshot) (err error) {
		result, err = state.LookupCategory(id)
		return err
	})
	return result, err
}

// GetItems returns the items of a category in insertion order.
func (s *SnapshotStore) GetItems(ctx context.Context, categoryID core.ID) ([]*core.Item, error) {
	return s.FindItems(ctx, categoryID, "")
}

// GetItem retrieves a single item by ID.
func (s *SnapshotStore) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	var result *core.Item
	err := s.read(func(state *Snapshot) (err error) {
		result, err = state.LookupItem(id)
		return err
	})
	return result, err
}

// FindCategories returns categories whose name contains query, ignoring case.
func (s *SnapshotStore) FindCategories(ctx context.Context, query string) ([]*core.Category, error) {
	var result []*core.Category
	err := s.read(func(state *Snapshot) error {
		result = state.FindCategories(query)
		return nil
	})
	return result, err
}

// FindItems returns items of a category whose title contains query, ignoring case.
func (s *SnapshotStore) FindItems(ctx context.Context, categoryID core.ID, query string) ([]*core.Item, error) {
	var result []*core.Item
	err := s.read(func(state *Snapshot) (err error) {
		result, err = state.FindItems(categoryID, query)
		return err
	})
	return result, err
}
