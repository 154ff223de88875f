package migrate

import (
	"context"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
)

const (
	// DefaultBatchSize is the default number of entities written per Persist.
	DefaultBatchSize = 100
)

// Batch is one changeset of a migration.
type Batch struct {
	*storage.Changeset

	// Completes lists the categories whose last items are in this batch.
	Completes []core.ID
}

// size counts the entities in a batch.
func (b *Batch) size() int {
	return len(b.PutCategories) + len(b.PutItems)
}

// EntityIterator walks a store and groups its entities into batches.
type EntityIterator struct {
	store     storage.Store
	batchSize int
}

// NewEntityIterator creates a new entity iterator.
// batchSize: number of entities per changeset (must be > 0)
func NewEntityIterator(store storage.Store, batchSize int) *EntityIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntityIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// Batches loads the store and returns batches in write order: categories
// first, then the items of each category. Items never share a batch with
// categories. Categories listed in skip are left out; the items of
// categories listed in done are left out.
func (it *EntityIterator) Batches(ctx context.Context, skip, done map[core.ID]bool) ([]*Batch, error) {
	categories, err := it.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	var batches []*Batch
	current := &Batch{Changeset: &storage.Changeset{}}
	flush := func() {
		if !current.IsEmpty() || len(current.Completes) > 0 {
			batches = append(batches, current)
			current = &Batch{Changeset: &storage.Changeset{}}
		}
	}

	for _, category := range categories {
		if skip[category.ID] {
			continue
		}
		current.PutCategories = append(current.PutCategories, category)
		if len(current.PutCategories) == it.batchSize {
			flush()
		}
	}
	flush()

	for _, category := range categories {
		if done[category.ID] {
			continue
		}
		items, err := it.store.GetItems(ctx, category.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			current.PutItems = append(current.PutItems, item)
			if len(current.PutItems) == it.batchSize {
				flush()
			}
		}
		current.Completes = append(current.Completes, category.ID)
	}
	flush()

	return batches, nil
}
