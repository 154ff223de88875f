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

package todo

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/search"
	"github.com/poiesic/todoey/storage"
)

// Repository orchestrates CRUD and search against a storage.Store.
type Repository struct {
	mu       sync.Mutex
	store    storage.Store
	searcher *search.Searcher
	logger   *slog.Logger
	now      func() time.Time
	colors   bool
	rng      *rand.Rand

	observersMu  sync.RWMutex
	observers    []subscription
	nextObserver int
}

// New creates a Repository over store. The caller keeps ownership of store.
func New(store storage.Store, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	r := &Repository{
		store:  store,
		logger: slog.Default(),
		now:    core.Now,
		colors: true,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "repository")

	searcher, err := search.NewSearcher(store, search.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	r.searcher = searcher
	return r, nil
}

// Store returns the underlying store.
func (r *Repository) Store() storage.Store {
	return r.store
}

// Subscribe registers fn for change notifications and returns a function that unregisters it.
func (r *Repository) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := r.subscribe(ObserverFunc(fn))
	return func() {
		r.observersMu.Lock()
		defer r.observersMu.Unlock()
		r.observers = slices.DeleteFunc(r.observers, func(s subscription) bool { return s.id == id })
	}
}

func (r *Repository) subscribe(observer Observer) int {
	r.observersMu.Lock()
	defer r.observersMu.Unlock()
	r.nextObserver++
	r.observers = append(r.observers, subscription{id: r.nextObserver, observer: observer})
	return r.nextObserver
}

func (r *Repository) notify(changes []Change) {
	r.observersMu.RLock()
	observers := slices.Clone(r.observers)
	r.observersMu.RUnlock()

	for _, change := range changes {
		for _, s := range observers {
			s.observer.Notify(change)
		}
	}
}

// mutate runs fn under the repository lock and notifies observers once the lock is released.
func (r *Repository) mutate(fn func() ([]Change, error)) error {
	changes, err := func() ([]Change, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		return fn()
	}()
	if err != nil {
		return err
	}
	for _, change := range changes {
		r.logger.Debug("change persisted", "entity", change.Entity, "id", change.ID, "kind", change.Kind)
	}
	r.notify(changes)
	return nil
}

func (r *Repository) persist(ctx context.Context, changes *storage.Changeset) error {
	if err := r.store.Persist(ctx, changes); err != nil {
		r.logger.Error("persist failed", "err", err)
		return wrapStoreErr(err)
	}
	return nil
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// ListCategories returns every category, oldest first.
func (r *Repository) ListCategories(ctx context.Context) ([]*core.Category, error) {
	categories, err := r.searcher.Categories(ctx, "")
	return categories, wrapStoreErr(err)
}

// GetCategory returns a single category.
func (r *Repository) GetCategory(ctx context.Context, id core.ID) (*core.Category, error) {
	category, err := r.store.GetCategory(ctx, id)
	return category, wrapStoreErr(err)
}

// CreateCategory validates name and persists a new category with a fresh ID,
// the current time and, when colors are enabled, a palette color that stands
// apart from the colors already in use.
func (r *Repository) CreateCategory(ctx context.Context, name string) (*core.Category, error) {
	category, err := core.NewCategory(name)
	if err != nil {
		return nil, err
	}

	err = r.mutate(func() ([]Change, error) {
		category.DateCreated = r.timestamp()
		if r.colors {
			existing, err := r.store.GetCategories(ctx)
			if err != nil {
				return nil, wrapStoreErr(err)
			}
			used := make([]string, 0, len(existing))
			for _, c := range existing {
				used = append(used, c.Color)
			}
			category.Color = core.RandomColor(r.rng, used...)
		}

		if err := r.persist(ctx, &storage.Changeset{PutCategories: []*core.Category{category}}); err != nil {
			return nil, err
		}
		if stored, err := r.store.GetCategory(ctx, category.ID); err == nil {
			category = stored
		} else {
			r.logger.Warn("reading back created category failed", "id", category.ID, "err", err)
		}
		return []Change{categoryChange(Created, category.ID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return category.Clone(), nil
}

// RenameCategory changes the name of an existing category.
func (r *Repository) RenameCategory(ctx context.Context, id core.ID, name string) (*core.Category, error) {
	name, err := core.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var category *core.Category
	err = r.mutate(func() ([]Change, error) {
		var err error
		category, err = r.store.GetCategory(ctx, id)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		category.Name = name
		if err := r.persist(ctx, &storage.Changeset{PutCategories: []*core.Category{category}}); err != nil {
			return nil, err
		}
		return []Change{categoryChange(Updated, id)}, nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category and every item it owns in a single changeset.
func (r *Repository) DeleteCategory(ctx context.Context, id core.ID) error {
	return r.mutate(func() ([]Change, error) {
		items, err := r.store.GetItems(ctx, id)
		if err != nil {
			return nil, wrapStoreErr(err)
		}

		changes := &storage.Changeset{DeleteCategories: []core.ID{id}}
		events := make([]Change, 0, len(items)+1)
		for _, item := range items {
			changes.DeleteItems = append(changes.DeleteItems, item.ID)
			events = append(events, itemChange(Deleted, item))
		}
		events = append(events, categoryChange(Deleted, id))

		if err := r.persist(ctx, changes); err != nil {
			return nil, err
		}
		return events, nil
	})
}

// ListItems returns the items of a category, oldest first.
func (r *Repository) ListItems(ctx context.Context, categoryID core.ID) ([]*core.Item, error) {
	items, err := r.searcher.Items(ctx, categoryID, "")
	return items, wrapStoreErr(err)
}

// GetItem returns a single item.
func (r *Repository) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	item, err := r.store.GetItem(ctx, id)
	return item, wrapStoreErr(err)
}

// CreateItem validates title and adds a new, not yet done item to a category.
func (r *Repository) CreateItem(ctx context.Context, categoryID core.ID, title string) (*core.Item, error) {
	item, err := core.NewItem(categoryID, title)
	if err != nil {
		return nil, err
	}

	err = r.mutate(func() ([]Change, error) {
		if _, err := r.store.GetCategory(ctx, categoryID); err != nil {
			return nil, wrapStoreErr(err)
		}
		item.DateCreated = r.timestamp()
		if err := r.persist(ctx, &storage.Changeset{PutItems: []*core.Item{item}}); err != nil {
			return nil, err
		}
		// Stores may coarsen what they keep, plist dates for one
		if stored, err := r.store.GetItem(ctx, item.ID); err == nil {
			item = stored
		} else {
			r.logger.Warn("reading back created item failed", "id", item.ID, "err", err)
		}
		return []Change{itemChange(Created, item)}, nil
	})
	if err != nil {
		return nil, err
	}
	return item.Clone(), nil
}

// ToggleDone flips the done flag of an item and returns the updated item.
func (r *Repository) ToggleDone(ctx context.Context, id core.ID) (*core.Item, error) {
	return r.updateItem(ctx, id, func(item *core.Item) {
		item.Done = !item.Done
	})
}

// RenameItem changes the title of an existing item.
func (r *Repository) RenameItem(ctx context.Context, id core.ID, title string) (*core.Item, error) {
	title, err := core.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return r.updateItem(ctx, id, func(item *core.Item) {
		item.Title = title
	})
}

func (r *Repository) updateItem(ctx context.Context, id core.ID, update func(item *core.Item)) (*core.Item, error) {
	var item *core.Item
	err := r.mutate(func() ([]Change, error) {
		var err error
		item, err = r.store.GetItem(ctx, id)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		update(item)
		if err := r.persist(ctx, &storage.Changeset{PutItems: []*core.Item{item}}); err != nil {
			return nil, err
		}
		return []Change{itemChange(Updated, item)}, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes a single item from its category.
func (r *Repository) DeleteItem(ctx context.Context, id core.ID) error {
	return r.mutate(func() ([]Change, error) {
		item, err := r.store.GetItem(ctx, id)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		if err := r.persist(ctx, &storage.Changeset{DeleteItems: []core.ID{id}}); err != nil {
			return nil, err
		}
		return []Change{itemChange(Deleted, item)}, nil
	})
}

// SearchItems returns the items of a category whose title contains query, ignoring case.
// A blank query behaves like ListItems. Otherwise results are sorted by title.
func (r *Repository) SearchItems(ctx context.Context, categoryID core.ID, query string) ([]*core.Item, error) {
	items, err := r.searcher.Items(ctx, categoryID, query)
	return items, wrapStoreErr(err)
}

// SearchCategories applies the SearchItems rules to category names.
func (r *Repository) SearchCategories(ctx context.Context, query string) ([]*core.Category, error) {
	categories, err := r.searcher.Categories(ctx, query)
	return categories, wrapStoreErr(err)
}
