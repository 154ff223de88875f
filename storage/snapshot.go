package storage

import (
	"fmt"
	"slices"

	"github.com/poiesic/todoey/core"
)

// Snapshot is a complete in-memory copy of a store's contents.
// Stores without their own query engine keep their state in one and replace it
// wholesale on every Persist.
type Snapshot struct {
	Categories []*core.Category // insertion order
	Items      []*core.Item     // insertion order across all categories
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Categories: core.CloneCategories(s.Categories),
		Items:      core.CloneItems(s.Items),
	}
}

// Category returns the category with the given ID, or nil.
func (s *Snapshot) Category(id core.ID) *core.Category {
	i := slices.IndexFunc(s.Categories, func(c *core.Category) bool { return c.ID == id })
	if i < 0 {
		return nil
	}
	return s.Categories[i]
}

// Item returns the item with the given ID, or nil.
func (s *Snapshot) Item(id core.ID) *core.Item {
	i := slices.IndexFunc(s.Items, func(it *core.Item) bool { return it.ID == id })
	if i < 0 {
		return nil
	}
	return s.Items[i]
}

// ItemsOf returns the items owned by a category in insertion order.
func (s *Snapshot) ItemsOf(categoryID core.ID) []*core.Item {
	var items []*core.Item
	for _, it := range s.Items {
		if it.CategoryID == categoryID {
			items = append(items, it)
		}
	}
	return items
}

// Apply returns a new snapshot with the changeset applied.
// The receiver is never modified, so a failed apply leaves no trace.
func (s *Snapshot) Apply(changes *Changeset) (*Snapshot, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	next := s.Clone()
	if changes == nil {
		return next, nil
	}

	for _, category := range changes.PutCategories {
		category = category.Clone()
		if i := slices.IndexFunc(next.Categories, func(c *core.Category) bool { return c.ID == category.ID }); i >= 0 {
			next.Categories[i] = category
		} else {
			next.Categories = append(next.Categories, category)
		}
	}

	for _, item := range changes.PutItems {
		if next.Category(item.CategoryID) == nil {
			return nil, fmt.Errorf("%w: category %s for item %s", ErrNotFound, item.CategoryID, item.ID)
		}
		item = item.Clone()
		i := slices.IndexFunc(next.Items, func(it *core.Item) bool { return it.ID == item.ID })
		switch {
		case i < 0:
			next.Items = append(next.Items, item)
		case next.Items[i].CategoryID != item.CategoryID:
			// Moving to another category appends it there
			next.Items = append(slices.Delete(next.Items, i, i+1), item)
		default:
			next.Items[i] = item
		}
	}

	for _, id := range changes.DeleteItems {
		i := slices.IndexFunc(next.Items, func(it *core.Item) bool { return it.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
		}
		next.Items = slices.Delete(next.Items, i, i+1)
	}

	for _, id := range changes.DeleteCategories {
		i := slices.IndexFunc(next.Categories, func(c *core.Category) bool { return c.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		next.Categories = slices.Delete(next.Categories, i, i+1)
		next.Items = slices.DeleteFunc(next.Items, func(it *core.Item) bool { return it.CategoryID == id })
	}

	return next, nil
}

// FindCategories returns copies of the categories whose name contains query.
func (s *Snapshot) FindCategories(query string) []*core.Category {
	found := []*core.Category{}
	for _, category := range s.Categories {
		if core.ContainsFold(category.Name, query) {
			found = append(found, category.Clone())
		}
	}
	return found
}

// FindItems returns copies of the items of a category whose title contains query.
func (s *Snapshot) FindItems(categoryID core.ID, query string) ([]*core.Item, error) {
	if s.Category(categoryID) == nil {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
	}
	found := []*core.Item{}
	for _, item := range s.ItemsOf(categoryID) {
		if core.ContainsFold(item.Title, query) {
			found = append(found, item.Clone())
		}
	}
	return found, nil
}

// LookupCategory returns a copy of a category or ErrNotFound.
func (s *Snapshot) LookupCategory(id core.ID) (*core.Category, error) {
	category := s.Category(id)
	if category == nil {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	return category.Clone(), nil
}

// LookupItem returns a copy of an item or ErrNotFound.
func (s *Snapshot) LookupItem(id core.ID) (*core.Item, error) {
	item := s.Item(id)
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	return item.Clone(), nil
}
