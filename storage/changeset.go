package storage

import (
	"fmt"

	"github.com/poiesic/todoey/core"
)

// Changeset is a set of writes that a Store applies as one unit.
//
// Stores apply the groups in field order: category puts, item puts, item deletes,
// category deletes. Puts are upserts; a new entity is appended to the insertion
// order while an existing one keeps its position. Deleting a category also removes
// any items it still owns.
type Changeset struct {
	PutCategories    []*core.Category
	PutItems         []*core.Item
	DeleteItems      []core.ID
	DeleteCategories []core.ID
}

// IsEmpty reports whether the changeset contains no writes.
func (c *Changeset) IsEmpty() bool {
	return c == nil || len(c.PutCategories)+len(c.PutItems)+len(c.DeleteItems)+len(c.DeleteCategories) == 0
}

// Validate checks every entity the changeset would write.
func (c *Changeset) Validate() error {
	if c == nil {
		return nil
	}
	for _, category := range c.PutCategories {
		if err := core.ValidateCategory(category); err != nil {
			return err
		}
	}
	for _, item := range c.PutItems {
		if err := core.ValidateItem(item); err != nil {
			return err
		}
	}
	for _, id := range c.DeleteItems {
		if id == "" {
			return fmt.Errorf("%w: %w", core.ErrValidation, core.ErrMissingID)
		}
	}
	for _, id := range c.DeleteCategories {
		if id == "" {
			return fmt.Errorf("%w: %w", core.ErrValidation, core.ErrMissingID)
		}
	}
	return nil
}
