package todo

import (
	"fmt"

	"github.com/poiesic/todoey/core"
)

// ChangeKind describes what happened to an entity.
type ChangeKind int

const (
	Created ChangeKind = iota
	Updated
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// EntityKind tells categories and items apart.
type EntityKind int

const (
	CategoryEntity EntityKind = iota
	ItemEntity
)

func (e EntityKind) String() string {
	if e == ItemEntity {
		return "item"
	}
	return "category"
}

// Change is emitted once per affected entity after a mutation is persisted.
// CategoryID is the owning category for items and the category itself otherwise.
type Change struct {
	Kind       ChangeKind
	Entity     EntityKind
	ID         core.ID
	CategoryID core.ID
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s %s", c.Entity, c.ID, c.Kind)
}

func categoryChange(kind ChangeKind, id core.ID) Change {
	return Change{Kind: kind, Entity: CategoryEntity, ID: id, CategoryID: id}
}

func itemChange(kind ChangeKind, item *core.Item) Change {
	return Change{Kind: kind, Entity: ItemEntity, ID: item.ID, CategoryID: item.CategoryID}
}

// Observer receives change notifications.
type Observer interface {
	Notify(change Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(change Change)

// Notify calls f(change).
func (f ObserverFunc) Notify(change Change) {
	f(change)
}

type subscription struct {
	id       int
	observer Observer
}
