package search

import (
	"slices"
	"strings"

	"github.com/poiesic/todoey/core"
)

// Order selects how results are arranged.
type Order int

const (
	// Chronological orders by creation time ascending.
	Chronological Order = iota
	// Alphabetical orders by title or name, ignoring case.
	Alphabetical
)

func (o Order) String() string {
	if o == Alphabetical {
		return "alphabetical"
	}
	return "chronological"
}

// IsActive reports whether query filters anything. Whitespace-only queries do not.
func IsActive(query string) bool {
	return strings.TrimSpace(query) != ""
}

// OrderFor returns the order used for results of query.
func OrderFor(query string) Order {
	if IsActive(query) {
		return Alphabetical
	}
	return Chronological
}

// SortItems orders items in place. The sort is stable so equal keys keep insertion order.
func SortItems(items []*core.Item, order Order) {
	slices.SortStableFunc(items, func(a, b *core.Item) int {
		if order == Alphabetical {
			if c := core.CompareFold(a.Title, b.Title); c != 0 {
				return c
			}
		}
		return a.DateCreated.Compare(b.DateCreated)
	})
}

// SortCategories orders categories in place. The sort is stable so equal keys keep insertion order.
func SortCategories(categories []*core.Category, order Order) {
	slices.SortStableFunc(categories, func(a, b *core.Category) int {
		if order == Alphabetical {
			if c := core.CompareFold(a.Name, b.Name); c != 0 {
				return c
			}
		}
		return a.DateCreated.Compare(b.DateCreated)
	})
}
