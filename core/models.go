package core

import (
	"time"

	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// It is opaque to callers and never changes once assigned.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// DefaultCategoryID identifies the implicit category of single-list stores.
const DefaultCategoryID ID = "default"

// DefaultCategoryName is the display name of the implicit category.
const DefaultCategoryName = "Todoey"

// Category is a named grouping that owns zero or more Items.
type Category struct {
	ID          ID
	Name        string
	DateCreated time.Time // When the category was created, UTC
	Color       string    // Display color token such as "#1ABC9C", may be empty
}

// Clone returns an independent copy of the category.
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Item is a single to-do entry owned by a Category.
type Item struct {
	ID          ID
	CategoryID  ID
	Title       string
	Done        bool
	DateCreated time.Time // When the item was created, UTC
}

// Clone returns an independent copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

// CloneCategories copies every category in the slice.
func CloneCategories(categories []*Category) []*Category {
	out := make([]*Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.Clone())
	}
	return out
}

// CloneItems copies every item in the slice.
func CloneItems(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, i := range items {
		out = append(out, i.Clone())
	}
	return out
}

// Now returns the current time in the precision stores keep: UTC, microseconds.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
