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

package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/storage"
)

// Searcher applies the search rules on top of a store's substring predicates.
type Searcher struct {
	store  storage.Store
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.Store, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Searcher{
		store:  store,
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Items returns the items of a category matching query.
// An inactive query lists every item chronologically. An active one is matched
// as given, without trimming, and the matches are sorted by title.
func (s *Searcher) Items(ctx context.Context, categoryID core.ID, query string) ([]*core.Item, error) {
	order := OrderFor(query)

	var (
		items []*core.Item
		err   error
	)
	if order == Chronological {
		items, err = s.store.GetItems(ctx, categoryID)
	} else {
		items, err = s.store.FindItems(ctx, categoryID, query)
	}
	if err != nil {
		s.logger.Debug("item search failed", "category", categoryID, "query", query, "err", err)
		return nil, err
	}

	SortItems(items, order)
	s.logger.Debug("item search", "category", categoryID, "query", query, "order", order, "hits", len(items))
	return items, nil
}

// Categories returns the categories matching query, with the same rules as Items.
func (s *Searcher) Categories(ctx context.Context, query string) ([]*core.Category, error) {
	order := OrderFor(query)

	var (
		categories []*core.Category
		err        error
	)
	if order == Chronological {
		categories, err = s.store.GetCategories(ctx)
	} else {
		categories, err = s.store.FindCategories(ctx, query)
	}
	if err != nil {
		s.logger.Debug("category search failed", "query", query, "err", err)
		return nil, err
	}

	SortCategories(categories, order)
	s.logger.Debug("category search", "query", query, "order", order, "hits", len(categories))
	return categories, nil
}
